// Package logging wraps Zap with context-aware methods for ceod.
//
// Every entry logged through Logger carries the correlation fields found on
// the context: trace_id and span_id from OpenTelemetry, user.id for the
// authenticated owner and request.id from the HTTP layer.
//
//	logger, err := logging.NewLogger(logging.FromConfig(cfg.Log, "ceod"), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithUserID(ctx, identity.UserID)
//	logger.Info(ctx, "task created", zap.String("task.id", t.ID))
//
// Stdout output passes through a redacting encoder. Fields named like
// credentials (authorization, id_token, session, mongo_uri, ...) and values
// that look like bearer tokens or connection strings with passwords are
// replaced before they are written. Errors are never sampled.
//
// Use TestLogger in tests to assert on emitted entries.
package logging
