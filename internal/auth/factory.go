package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ceo-assistant/internal/config"
)

// New builds the authenticator selected by cfg.Mode.
func New(ctx context.Context, cfg config.AuthConfig, production bool, logger *zap.Logger) (Authenticator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Mode {
	case config.AuthModeHeader:
		if production {
			return nil, fmt.Errorf("header auth cannot be used in production")
		}
		logger.Warn("header auth enabled: X-User-Id is trusted without verification")
		return HeaderAuthenticator{}, nil
	case config.AuthModeFirebase:
		fc := FirebaseConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentialsFile,
			CheckRevoked:    cfg.CheckRevoked,
			CookieName:      cfg.SessionCookieName,
			SessionTTL:      cfg.SessionTTL,
		}
		if cfg.FirebaseCredentialsJSON.IsSet() {
			fc.CredentialsJSON = []byte(cfg.FirebaseCredentialsJSON.Value())
		}
		client, err := NewFirebaseClient(ctx, fc)
		if err != nil {
			return nil, err
		}
		logger.Info("firebase auth enabled",
			zap.String("project_id", cfg.FirebaseProjectID),
			zap.Bool("check_revoked", cfg.CheckRevoked),
		)
		return NewFirebaseAuthenticator(client, fc, logger)
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
