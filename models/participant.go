package models

// Participant is a person or a shared pool inside a project
type Participant struct {
	ID                    string  `json:"id"`
	ProjectID             string  `json:"project_id"`
	Name                  string  `json:"name"`
	DefaultWeight         float64 `json:"default_weight"`
	AccountType           string  `json:"account_type"` // user or pool
	UserID                *string `json:"user_id,omitempty"`
	WarningHorizonAccount string  `json:"warning_horizon_account,omitempty"`
	WarningHorizonUsers   string  `json:"warning_horizon_users,omitempty"`
}

// IsPool reports whether the participant holds shared funds
func (p Participant) IsPool() bool {
	return p.AccountType == AccountTypePool
}
