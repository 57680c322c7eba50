package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps for persisted records
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Now returns the current time in UTC truncated to microseconds, the
// precision PostgreSQL keeps, so a record reloaded after Save compares equal.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewBaseEntity creates a record with a fresh ID stamped now
func NewBaseEntity() BaseEntity {
	now := Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = Now()
}
