package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	s := NewService("secret")
	tok, err := s.IssueToken("user-1")
	require.NoError(t, err)

	sub, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestValidateRejects(t *testing.T) {
	s := NewService("secret")
	other := NewService("other")
	foreign, err := other.IssueToken("user-1")
	require.NoError(t, err)

	expired := NewService("secret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, err := expired.IssueToken("user-1")
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong key", foreign, ErrInvalidToken},
		{"expired", old, ErrInvalidToken},
		{"no subject", noSub, ErrNoSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWithTTL(t *testing.T) {
	s := NewService("secret", WithTTL(time.Minute))
	tok, err := s.IssueToken("user-1")
	require.NoError(t, err)

	later := NewService("secret")
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = later.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresSubject(t *testing.T) {
	_, err := NewService("secret").IssueToken("")
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestMiddleware(t *testing.T) {
	s := NewService("secret")
	tok, err := s.IssueToken("user-7")
	require.NoError(t, err)

	h := NewHandler(s)
	tests := []struct {
		name      string
		anonymous bool
		header    string
		query     string
		status    int
		body      string
	}{
		{name: "header", header: "Bearer " + tok, status: http.StatusOK, body: `{"userId":"user-7","anonymous":false}`},
		{name: "query", query: "?token=" + tok, status: http.StatusOK, body: `{"userId":"user-7","anonymous":false}`},
		{name: "missing", status: http.StatusUnauthorized, body: `{"error":"missing authorization"}`},
		{name: "bad scheme", header: "Basic abc", status: http.StatusUnauthorized, body: `{"error":"invalid authorization format"}`},
		{name: "bad token", header: "Bearer nope", anonymous: true, status: http.StatusUnauthorized, body: `{"error":"invalid token"}`},
		{name: "anonymous", anonymous: true, status: http.StatusOK, body: `{"userId":"anonymous","anonymous":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Middleware(tt.anonymous)(http.HandlerFunc(h.Me)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
