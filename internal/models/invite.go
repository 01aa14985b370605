package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
)

// Invite is a targeted, single-use, expiring invitation to join a project.
// The raw token is never serialized on the entity; endpoints that may expose
// it (owner-only) do so through explicit response structs.
type Invite struct {
	ID        string       `json:"id" db:"id"`
	ProjectID string       `json:"project_id" db:"project_id"`
	Email     string       `json:"email" db:"email"`
	Token     string       `json:"-" db:"token"`
	InvitedBy string       `json:"invited_by" db:"invited_by"`
	Status    InviteStatus `json:"status" db:"status"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// IsExpired determines whether the invite has expired. Expiry is derived,
// never stored: it is checked lazily at resolution time.
func (i Invite) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// IsPending indicates whether the invite can still be accepted or revoked.
func (i Invite) IsPending() bool {
	return i.Status == InviteStatusPending
}
