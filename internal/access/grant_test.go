package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/taskhive/taskhive-api/internal/models"
)

func pendingInvite(expiresAt time.Time) *models.Invite {
	return &models.Invite{
		ID:        "inv1",
		ProjectID: "p1",
		Token:     "invite-token",
		Status:    models.InviteStatusPending,
		ExpiresAt: &expiresAt,
	}
}

func TestInviteGrantStates(t *testing.T) {
	now := time.Now()

	t.Run("pending and unexpired is usable", func(t *testing.T) {
		g := Grant{Kind: GrantInvite, Invite: pendingInvite(now.Add(time.Hour))}
		assert.Equal(t, GrantOK, g.State("invite-token", now))
	})

	t.Run("expired", func(t *testing.T) {
		g := Grant{Kind: GrantInvite, Invite: pendingInvite(now.Add(-time.Hour))}
		assert.Equal(t, GrantInviteExpired, g.State("invite-token", now))
	})

	t.Run("accepted reports not-pending even when expired", func(t *testing.T) {
		invite := pendingInvite(now.Add(-time.Hour))
		invite.Status = models.InviteStatusAccepted
		g := Grant{Kind: GrantInvite, Invite: invite}
		assert.Equal(t, GrantInviteNotPending, g.State("invite-token", now))
	})

	t.Run("revoked", func(t *testing.T) {
		invite := pendingInvite(now.Add(time.Hour))
		invite.Status = models.InviteStatusRevoked
		g := Grant{Kind: GrantInvite, Invite: invite}
		assert.Equal(t, GrantInviteNotPending, g.State("invite-token", now))
	})

	t.Run("no expiry means no expiry check", func(t *testing.T) {
		invite := pendingInvite(now)
		invite.ExpiresAt = nil
		g := Grant{Kind: GrantInvite, Invite: invite}
		assert.Equal(t, GrantOK, g.State("invite-token", now))
	})
}

func TestShareLinkGrantStates(t *testing.T) {
	now := time.Now()
	token := "link-token"

	t.Run("live matching token", func(t *testing.T) {
		g := Grant{Kind: GrantShareLink, Project: models.Project{ID: "p1", InviteToken: &token}}
		assert.Equal(t, GrantOK, g.State(token, now))
	})

	t.Run("stale token after reset", func(t *testing.T) {
		replacement := "new-token"
		g := Grant{Kind: GrantShareLink, Project: models.Project{ID: "p1", InviteToken: &replacement}}
		assert.Equal(t, GrantLinkNotActive, g.State(token, now))
	})

	t.Run("no token issued", func(t *testing.T) {
		g := Grant{Kind: GrantShareLink, Project: models.Project{ID: "p1"}}
		assert.Equal(t, GrantLinkNotActive, g.State(token, now))
	})
}
