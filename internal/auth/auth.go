// Package auth resolves the calling user for every API request.
//
// Two authenticators exist. FirebaseAuthenticator verifies Firebase ID
// tokens (Authorization: Bearer) and session cookies. HeaderAuthenticator
// trusts the X-User-Id header and is only for local development; config
// validation refuses it in production.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// HeaderUserID is the header trusted by HeaderAuthenticator.
const HeaderUserID = "X-User-Id"

// Provider names reported in Identity.
const (
	ProviderFirebase = "firebase"
	ProviderHeader   = "header"
)

var (
	// ErrUnauthenticated means the request carried no usable credentials.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrSessionsUnsupported is returned by authenticators that cannot mint
	// session cookies.
	ErrSessionsUnsupported = errors.New("sessions are not supported by this authenticator")
)

// Identity is an authenticated caller.
type Identity struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider"`
}

// Authenticator resolves the identity behind a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// SessionIssuer exchanges an ID token for a session cookie value.
type SessionIssuer interface {
	NewSession(ctx context.Context, idToken string) (string, error)
	CookieName() string
	SessionTTL() time.Duration
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by the middleware, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// HeaderAuthenticator trusts the X-User-Id header.
type HeaderAuthenticator struct{}

// Authenticate implements Authenticator.
func (HeaderAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Identity, error) {
	uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: uid, Provider: ProviderHeader}, nil
}
