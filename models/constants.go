package models

// Account types
const (
	AccountTypeUser = "user"
	AccountTypePool = "pool"
)

// Recurrence types
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// Warning horizons for pools and their users
const (
	HorizonNone           = ""
	HorizonEndOfMonth     = "end_of_month"
	HorizonEndOfNextMonth = "end_of_next_month"
	HorizonThreeMonths    = "3_months"
	HorizonSixMonths      = "6_months"
)

// Project member roles
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleOwner  = "owner"
)

// Settlement modes
const (
	SettlementModeMinimal = "minimal"
	SettlementModeDirect  = "direct"
)

// Payment sources
const (
	SourceLocal    = "local"
	SourceUpstream = "upstream"
)
