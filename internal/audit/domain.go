package audit

import "time"

// Action types recorded in the activity log.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Entry is one immutable activity-log record.
type Entry struct {
	AccountID   string         `json:"account_id"`
	ActorID     string         `json:"actor_id"`
	ActionType  string         `json:"action_type"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Diff builds the before/after detail payload attached to UPDATE entries.
func Diff(before, after any) map[string]any {
	return map[string]any{"before": before, "after": after}
}
