package middleware

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackany/internal/auth"
	"trackany/internal/cache"
	"trackany/internal/session"
)

func authedStack(t *testing.T) (*auth.JWT, *session.Session, http.Handler) {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.sqlite"), log.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtSvc := auth.NewJWT("test-secret")
	sess := session.New(store, jwtSvc, log.Default())

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := auth.RequireAuth(jwtSvc)(RequireSession(sess)(ok))
	return jwtSvc, sess, h
}

func TestRequireSessionMatchesTokenToProcessSession(t *testing.T) {
	jwtSvc, sess, h := authedStack(t)
	uid := uuid.New()
	token, err := jwtSvc.Sign(uid)
	require.NoError(t, err)

	// no session signed in yet
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, sess.SignIn(context.Background(), token))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// a valid token for a different account is rejected
	otherToken, err := jwtSvc.Sign(uuid.New())
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAuthRejectsMissingOrBadToken(t *testing.T) {
	_, _, h := authedStack(t)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
