package access

import (
	"time"

	"github.com/taskhive/taskhive-api/internal/models"
)

// GrantKind tags the two credential variants that share one opaque-token
// space: a targeted, single-use invite and a project's standing share link.
// They are kept as explicit variants rather than one ambiguous entity; when
// the same literal token matches both, the invite wins (resolution order is
// the caller's responsibility, see handlers.resolveAccessGrant).
type GrantKind string

const (
	GrantInvite    GrantKind = "invite"
	GrantShareLink GrantKind = "share_link"
)

// Grant is a resolved access credential and the project it opens.
type Grant struct {
	Kind    GrantKind
	Invite  *models.Invite
	Project models.Project
}

// GrantState classifies whether a grant is currently usable.
type GrantState int

const (
	GrantOK GrantState = iota
	// GrantInviteNotPending: the invite was already accepted or revoked.
	GrantInviteNotPending
	// GrantInviteExpired: the invite is still pending but past expires_at.
	GrantInviteExpired
	// GrantLinkNotActive: the presented token no longer matches the
	// project's standing share link (reset or never issued).
	GrantLinkNotActive
)

// State checks the grant against the presented token at the given instant.
// The not-pending check precedes the expiry check so that an accepted invite
// never reports "expired".
func (g Grant) State(token string, now time.Time) GrantState {
	switch g.Kind {
	case GrantInvite:
		if !g.Invite.IsPending() {
			return GrantInviteNotPending
		}
		if g.Invite.IsExpired(now) {
			return GrantInviteExpired
		}
		return GrantOK
	default:
		if !g.Project.HasLiveInviteToken() || *g.Project.InviteToken != token {
			return GrantLinkNotActive
		}
		return GrantOK
	}
}
