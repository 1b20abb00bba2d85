package agencies

import "time"

// Agency is a booking-channel label attachable to passengers.
type Agency struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	ManagerName  string    `json:"manager_name"`
	ManagerPhone string    `json:"manager_phone"`
	UpdatedAt    time.Time `json:"updated_at"`
	UpdatedBy    *string   `json:"updated_by,omitempty"`
}
