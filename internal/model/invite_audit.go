package model

import "time"

// Invite audit actions.
const (
	InviteCreated  = "created"
	InviteAccepted = "accepted"
	InviteExpired  = "expired"
	InviteDeleted  = "deleted"
	InviteResent   = "resent"
)

// InviteAudit is an append-only record of an action taken against an
// invite. Every invite state transition writes one of these in the same
// transaction as the transition itself.
type InviteAudit struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	InviteID  uint      `json:"invite_id" gorm:"index;not null"`
	Action    string    `json:"action" gorm:"type:varchar(20);not null"`
	ActorID   uint      `json:"actor_id" gorm:"index"`
	Metadata  string    `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
}
