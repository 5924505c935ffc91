package hrflow

import "time"

// Entity carries the audit timestamps shared by every persisted record.
// Embed it in entity structs; stores update UpdatedAt on writes.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity stamped with the current UTC time.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch refreshes UpdatedAt.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
