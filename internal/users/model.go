package users

// ManagedUser is the staff-facing view of an actor created by an
// account owner. IsAccountUser marks rows merged in from the account's
// role table for display-name resolution rather than managed staff.
type ManagedUser struct {
	ID            int64   `json:"id"`
	ManagedUserID string  `json:"managed_user_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	Active        bool    `json:"active"`
	AgencyName    *string `json:"agency_name,omitempty"`
	IsAccountUser bool    `json:"is_account_user,omitempty"`
}
