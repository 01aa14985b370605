package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/authz"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/realtime"
)

const testOrigin = "http://frontend.test"

type testEnv struct {
	projects *fakeProjectRepo
	invites  *fakeInviteRepo
	tasks    *fakeTaskRepo
	mailer   *fakeMailer
	hub      *realtime.Hub

	projectHandler *ProjectHandler
	inviteHandler  *InviteHandler
	guestHandler   *GuestHandler
	taskHandler    *TaskHandler
}

func newTestEnv() *testEnv {
	logger := zerolog.Nop()
	projects := newFakeProjectRepo()
	env := &testEnv{
		projects: projects,
		invites:  newFakeInviteRepo(),
		tasks:    newFakeTaskRepo(projects),
		mailer:   &fakeMailer{},
		hub:      realtime.NewHub(logger),
	}
	env.projectHandler = NewProjectHandler(env.projects, env.invites, env.hub, testOrigin, logger)
	env.inviteHandler = NewInviteHandler(env.invites, env.projects, env.mailer, testOrigin, logger)
	env.guestHandler = NewGuestHandler(env.invites, env.projects, env.tasks, env.hub, logger)
	env.taskHandler = NewTaskHandler(env.tasks, env.projects, env.hub, logger)
	return env
}

func (env *testEnv) seedProject(t *testing.T, name, ownerID, shareToken string) models.Project {
	t.Helper()
	project, err := env.projects.CreateProject(name, ownerID, shareToken)
	require.NoError(t, err)
	return project
}

func (env *testEnv) seedMember(t *testing.T, projectID, userID string, role models.Role) {
	t.Helper()
	require.NoError(t, env.projects.AddMember(projectID, userID, role))
}

func (env *testEnv) seedInvite(t *testing.T, projectID, email, token string, expiresAt time.Time) models.Invite {
	t.Helper()
	invite, err := env.invites.CreateInvite(models.Invite{
		ProjectID: projectID,
		Email:     email,
		Token:     token,
		InvitedBy: "whoever",
		ExpiresAt: &expiresAt,
	})
	require.NoError(t, err)
	return invite
}

// newRequest builds a request with an optional JSON body, optional identity
// and optional route variables, mirroring what the router would produce.
func newRequest(t *testing.T, method, target string, body interface{}, userID string, vars map[string]string) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req = req.WithContext(authz.WithIdentity(req.Context(), userID))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}
