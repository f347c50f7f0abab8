// Package logging provides structured logging for the Books API.
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON and text output
//   - A level backed by slog.LevelVar, changeable at runtime
//   - Context-aware logging with request and trace IDs
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithRequestID(ctx, "4f1c...")
//	logger.WithContext(ctx).Info("Book created", "id", 7)
//
// Components derive their own logger with a component field:
//
//	log := slog.Default().With("component", "catalogue")
package logging
