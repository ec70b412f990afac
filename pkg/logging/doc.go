// Package logging configures the structured logger shared by apictl packages.
//
// It wraps log/slog so every component logs the same way:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	logger.Debug("commit", "api", apiID, "key", key)
//
// Components take a *slog.Logger through an option and fall back to Nop.
// When a log file is configured, records go to stderr and to the file
// through a MultiHandler.
package logging
