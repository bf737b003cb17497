package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ceo-assistant/internal/config"
	"github.com/fyrsmithlabs/ceo-assistant/internal/logging"
)

// fakeVerifier accepts "good-token" and "good-cookie"; "revoked-*" fail only
// revocation-checked verification.
type fakeVerifier struct {
	authTime time.Time
	calls    []string
}

func (f *fakeVerifier) token(uid string) *fbauth.Token {
	return &fbauth.Token{
		UID:      uid,
		AuthTime: f.authTime.Unix(),
		Claims:   map[string]interface{}{"email": uid + "@example.com"},
	}
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, tok string) (*fbauth.Token, error) {
	f.calls = append(f.calls, "id")
	if tok == "good-token" || tok == "revoked-token" {
		return f.token("alice"), nil
	}
	return nil, errors.New("invalid id token")
}

func (f *fakeVerifier) VerifyIDTokenAndCheckRevoked(ctx context.Context, tok string) (*fbauth.Token, error) {
	f.calls = append(f.calls, "id+revoked")
	if tok == "revoked-token" {
		return nil, errors.New("id token has been revoked")
	}
	return f.VerifyIDToken(ctx, tok)
}

func (f *fakeVerifier) VerifySessionCookie(_ context.Context, c string) (*fbauth.Token, error) {
	f.calls = append(f.calls, "cookie")
	if c == "good-cookie" {
		return f.token("bob"), nil
	}
	return nil, errors.New("invalid session cookie")
}

func (f *fakeVerifier) VerifySessionCookieAndCheckRevoked(ctx context.Context, c string) (*fbauth.Token, error) {
	f.calls = append(f.calls, "cookie+revoked")
	return f.VerifySessionCookie(ctx, c)
}

func (f *fakeVerifier) SessionCookie(_ context.Context, tok string, ttl time.Duration) (string, error) {
	return "cookie-for-" + tok + "-" + ttl.String(), nil
}

func newFirebase(t *testing.T, v *fakeVerifier, revoked bool) *FirebaseAuthenticator {
	t.Helper()
	a, err := NewFirebaseAuthenticator(v, FirebaseConfig{CheckRevoked: revoked, SessionTTL: time.Hour}, nil)
	require.NoError(t, err)
	return a
}

func TestFirebaseAuthenticator_Bearer(t *testing.T) {
	v := &fakeVerifier{authTime: time.Now()}
	a := newFirebase(t, v, false)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	req.AddCookie(&http.Cookie{Name: "session", Value: "good-cookie"})

	id, err := a.Authenticate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "alice", Email: "alice@example.com", Provider: ProviderFirebase}, id)
	assert.Equal(t, []string{"id"}, v.calls)
}

func TestFirebaseAuthenticator_Cookie(t *testing.T) {
	a := newFirebase(t, &fakeVerifier{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good-cookie"})

	id, err := a.Authenticate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "bob", id.UserID)
}

func TestFirebaseAuthenticator_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookie  string
		revoked bool
	}{
		{"no credentials", "", "", false},
		{"basic auth", "Basic YWxpY2U6cHc=", "", false},
		{"bad token", "Bearer forged", "", false},
		{"bad cookie", "", "stale", false},
		{"revoked token", "Bearer revoked-token", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newFirebase(t, &fakeVerifier{}, tt.revoked)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			_, err := a.Authenticate(context.Background(), req)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestFirebaseAuthenticator_CheckRevoked(t *testing.T) {
	v := &fakeVerifier{}
	a := newFirebase(t, v, true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good-cookie"})
	_, err := a.Authenticate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"cookie+revoked", "cookie"}, v.calls)
}

func TestFirebaseAuthenticator_NewSession(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	v := &fakeVerifier{authTime: now.Add(-time.Minute)}
	a := newFirebase(t, v, false)
	a.now = func() time.Time { return now }

	cookie, err := a.NewSession(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "cookie-for-good-token-1h0m0s", cookie)

	_, err = a.NewSession(context.Background(), "forged")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	v.authTime = now.Add(-10 * time.Minute)
	_, err = a.NewSession(context.Background(), "good-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.Equal(t, "session", a.CookieName())
	assert.Equal(t, time.Hour, a.SessionTTL())
}

func TestHeaderAuthenticator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := HeaderAuthenticator{}.Authenticate(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	req.Header.Set(HeaderUserID, " mock-user-id ")
	id, err := HeaderAuthenticator{}.Authenticate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "mock-user-id", Provider: ProviderHeader}, id)
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware(HeaderAuthenticator{}, nil))
	e.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"echo":    UserID(c),
			"context": FromContext(c.Request().Context()).UserID,
			"logging": logging.UserIDFromContext(c.Request().Context()),
		})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, "alice")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"echo":"alice","context":"alice","logging":"alice"}`, rec.Body.String())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, config.AuthConfig{Mode: config.AuthModeHeader}, false, nil)
	require.NoError(t, err)
	assert.IsType(t, HeaderAuthenticator{}, a)

	_, err = New(ctx, config.AuthConfig{Mode: config.AuthModeHeader}, true, nil)
	assert.Error(t, err)

	_, err = New(ctx, config.AuthConfig{Mode: "saml"}, false, nil)
	assert.Error(t, err)
}
