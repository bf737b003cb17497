package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// recentSignIn bounds how old a sign-in may be when minting a session
// cookie.
const recentSignIn = 5 * time.Minute

// TokenVerifier is the subset of the Firebase auth client used here.
// *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
	VerifySessionCookie(ctx context.Context, cookie string) (*fbauth.Token, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, cookie string) (*fbauth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// FirebaseConfig configures the Firebase authenticator.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON []byte
	CheckRevoked    bool
	CookieName      string
	SessionTTL      time.Duration
}

// NewFirebaseClient initialises the Firebase Admin SDK auth client. Without
// explicit credentials it falls back to Application Default Credentials.
func NewFirebaseClient(ctx context.Context, cfg FirebaseConfig) (*fbauth.Client, error) {
	var opts []option.ClientOption
	switch {
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase auth: %w", err)
	}
	return client, nil
}

// FirebaseAuthenticator verifies Firebase ID tokens and session cookies.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
	cfg      FirebaseConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewFirebaseAuthenticator creates an authenticator backed by v.
func NewFirebaseAuthenticator(v TokenVerifier, cfg FirebaseConfig, logger *zap.Logger) (*FirebaseAuthenticator, error) {
	if v == nil {
		return nil, errors.New("token verifier is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 5 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseAuthenticator{verifier: v, cfg: cfg, logger: logger, now: time.Now}, nil
}

// Authenticate implements Authenticator. A bearer token wins over the
// session cookie.
func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	var (
		tok *fbauth.Token
		err error
	)
	if idToken := bearerToken(r); idToken != "" {
		if a.cfg.CheckRevoked {
			tok, err = a.verifier.VerifyIDTokenAndCheckRevoked(ctx, idToken)
		} else {
			tok, err = a.verifier.VerifyIDToken(ctx, idToken)
		}
	} else if c, cerr := r.Cookie(a.cfg.CookieName); cerr == nil && c.Value != "" {
		if a.cfg.CheckRevoked {
			tok, err = a.verifier.VerifySessionCookieAndCheckRevoked(ctx, c.Value)
		} else {
			tok, err = a.verifier.VerifySessionCookie(ctx, c.Value)
		}
	} else {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		a.logger.Debug("firebase credential rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return identityFromToken(tok), nil
}

// NewSession implements SessionIssuer. The ID token must come from a sign-in
// within the last five minutes.
func (a *FirebaseAuthenticator) NewSession(ctx context.Context, idToken string) (string, error) {
	tok, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if a.now().Sub(time.Unix(tok.AuthTime, 0)) > recentSignIn {
		return "", fmt.Errorf("%w: recent sign-in required", ErrUnauthenticated)
	}
	cookie, err := a.verifier.SessionCookie(ctx, idToken, a.cfg.SessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create session cookie: %w", err)
	}
	a.logger.Info("created session", zap.String("user.id", tok.UID))
	return cookie, nil
}

// CookieName returns the session cookie name.
func (a *FirebaseAuthenticator) CookieName() string { return a.cfg.CookieName }

// SessionTTL returns the session cookie lifetime.
func (a *FirebaseAuthenticator) SessionTTL() time.Duration { return a.cfg.SessionTTL }

func identityFromToken(tok *fbauth.Token) *Identity {
	id := &Identity{UserID: tok.UID, Provider: ProviderFirebase}
	if email, ok := tok.Claims["email"].(string); ok {
		id.Email = email
	}
	return id
}
