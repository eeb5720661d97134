package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/curbcycle/internal/api/middleware"
	"github.com/curbcycle/curbcycle/internal/auth"
)

var authTestConfig = auth.VerifierConfig{
	SigningKey: "middleware-test-key",
	Issuer:     "https://api.curbcycle.test",
	Audience:   "curbcycle-api",
}

func authHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var subject string
	verifier := auth.NewTokenVerifier(authTestConfig)
	handler := middleware.Auth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = middleware.GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &subject
}

func TestAuth_ValidToken(t *testing.T) {
	handler, subject := authHandler(t)

	token, err := auth.IssueToken(authTestConfig, "ops@curbcycle.test", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@curbcycle.test", *subject)
}

func TestAuth_MissingHeader(t *testing.T) {
	handler, _ := authHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler, _ := authHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	handler, _ := authHandler(t)

	token, err := auth.IssueToken(authTestConfig, "ops@curbcycle.test", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_CaseInsensitiveBearerPrefix(t *testing.T) {
	handler, subject := authHandler(t)

	token, err := auth.IssueToken(authTestConfig, "ops@curbcycle.test", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@curbcycle.test", *subject)
}
