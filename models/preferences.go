package models

import "time"

// Preferences control how dates and amounts are rendered for a user
type Preferences struct {
	UserID           string    `json:"user_id"`
	DateFormat       string    `json:"date_format"`       // iso, ymd, dmy, mdy
	DecimalSeparator string    `json:"decimal_separator"` // "." or ","
	CurrencySymbol   string    `json:"currency_symbol"`
	CurrencyPosition string    `json:"currency_position"` // before or after
	Locale           string    `json:"locale,omitempty"`  // month and weekday names only
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// Currency symbol positions
const (
	CurrencyBefore = "before"
	CurrencyAfter  = "after"
)

// DefaultPreferences are used for users that never saved any
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:           userID,
		DateFormat:       "mdy",
		DecimalSeparator: ".",
		CurrencySymbol:   "$",
		CurrencyPosition: CurrencyBefore,
	}
}
