package communities

import (
	"time"

	"github.com/google/uuid"
)

// Status values for a community.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Community is an organizational group of members.
type Community struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Code        string        `json:"code"`
	ManagerID   uuid.NullUUID `json:"manager_id"`
	Status      string        `json:"status"`
	MemberCount int           `json:"member_count"`
	CreatedAt   time.Time     `json:"created_at"`
}
