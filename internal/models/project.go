package models

import "time"

// Project is a shared workspace for tasks. The owner_id column is the single
// source of truth for ownership; the owner is never duplicated into the
// membership set.
type Project struct {
	ID                   string     `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	OwnerID              string     `json:"owner_id" db:"owner_id"`
	Members              []Member   `json:"members"`
	InviteToken          *string    `json:"-" db:"invite_token"`
	InviteTokenCreatedAt *time.Time `json:"invite_token_created_at,omitempty" db:"invite_token_created_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// Member is a (user, role) entry in a project's membership set.
type Member struct {
	UserID  string    `json:"user_id" db:"user_id"`
	Name    string    `json:"name" db:"name"`
	Email   string    `json:"email" db:"email"`
	Role    Role      `json:"role" db:"role"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// HasLiveInviteToken reports whether the project currently carries a
// standing share-link token.
func (p Project) HasLiveInviteToken() bool {
	return p.InviteToken != nil && *p.InviteToken != ""
}
