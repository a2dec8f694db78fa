package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"splitpot/backend/dates"
	"splitpot/backend/database"
	"splitpot/backend/models"
)

// GetPreferences returns the user's saved preferences, or the defaults
func GetPreferences(userID string) (*models.Preferences, error) {
	prefs := models.Preferences{UserID: userID}
	err := database.DB.QueryRow(database.Rebind(`
		SELECT date_format, decimal_separator, currency_symbol, currency_position, locale, updated_at
		FROM user_preferences
		WHERE user_id = ?
	`), userID).Scan(&prefs.DateFormat, &prefs.DecimalSeparator, &prefs.CurrencySymbol,
		&prefs.CurrencyPosition, &prefs.Locale, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := models.DefaultPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting preferences: %w", err)
	}
	return &prefs, nil
}

// SavePreferences validates and stores the user's preferences
func SavePreferences(userID string, prefs models.Preferences) (*models.Preferences, error) {
	defaults := models.DefaultPreferences(userID)
	if prefs.DateFormat == "" {
		prefs.DateFormat = defaults.DateFormat
	}
	if prefs.DecimalSeparator == "" {
		prefs.DecimalSeparator = defaults.DecimalSeparator
	}
	if prefs.CurrencyPosition == "" {
		prefs.CurrencyPosition = defaults.CurrencyPosition
	}
	if prefs.Locale == "" {
		prefs.Locale = "en"
	}

	if !dates.IsValidFormat(prefs.DateFormat) {
		return nil, fmt.Errorf("%w: unknown date format %q", ErrInvalidInput, prefs.DateFormat)
	}
	if prefs.DecimalSeparator != "." && prefs.DecimalSeparator != "," {
		return nil, fmt.Errorf("%w: decimal separator must be '.' or ','", ErrInvalidInput)
	}
	if prefs.CurrencyPosition != models.CurrencyBefore && prefs.CurrencyPosition != models.CurrencyAfter {
		return nil, fmt.Errorf("%w: currency position must be before or after", ErrInvalidInput)
	}

	prefs.UserID = userID
	prefs.UpdatedAt = time.Now()

	res, err := database.DB.Exec(database.Rebind(`
		UPDATE user_preferences
		SET date_format = ?, decimal_separator = ?, currency_symbol = ?, currency_position = ?, locale = ?, updated_at = ?
		WHERE user_id = ?
	`), prefs.DateFormat, prefs.DecimalSeparator, prefs.CurrencySymbol, prefs.CurrencyPosition,
		prefs.Locale, prefs.UpdatedAt, userID)
	if err != nil {
		return nil, fmt.Errorf("error updating preferences: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return &prefs, nil
	}

	_, err = database.DB.Exec(database.Rebind(`
		INSERT INTO user_preferences
		(user_id, date_format, decimal_separator, currency_symbol, currency_position, locale, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), userID, prefs.DateFormat, prefs.DecimalSeparator, prefs.CurrencySymbol, prefs.CurrencyPosition,
		prefs.Locale, prefs.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error saving preferences: %w", err)
	}
	return &prefs, nil
}
