package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/authz"
)

func newAuthHandlerForTest() *AuthHandler {
	return &AuthHandler{jwtSecret: "test-secret", logger: zerolog.Nop()}
}

func identityEcho(t *testing.T, captured *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := authz.UserIDFromRequest(r); ok {
			*captured = userID
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddlewareRoundTrip(t *testing.T) {
	h := newAuthHandlerForTest()
	token, err := h.issueToken("alice")
	require.NoError(t, err)

	var captured string
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.JWTMiddleware(identityEcho(t, &captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", captured)
}

func TestJWTMiddlewareRejections(t *testing.T) {
	h := newAuthHandlerForTest()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			})).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestJWTMiddlewareRejectsForeignSignature(t *testing.T) {
	issuer := &AuthHandler{jwtSecret: "other-secret", logger: zerolog.Nop()}
	token, err := issuer.issueToken("alice")
	require.NoError(t, err)

	h := newAuthHandlerForTest()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	h := newAuthHandlerForTest()

	t.Run("anonymous passes through without identity", func(t *testing.T) {
		var captured string
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/collab/accept/tok", nil)
		h.OptionalJWTMiddleware(identityEcho(t, &captured)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, captured)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		token, err := h.issueToken("bob")
		require.NoError(t, err)

		var captured string
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/collab/accept/tok", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.OptionalJWTMiddleware(identityEcho(t, &captured)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob", captured)
	})

	t.Run("presented but invalid token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/collab/accept/tok", nil)
		req.Header.Set("Authorization", "Bearer junk")
		h.OptionalJWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
