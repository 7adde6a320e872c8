// Package logger provides structured logging helpers built on log/slog.
//
// New builds a logger from functional options. Development loggers write
// text at debug level, production loggers write JSON at info level:
//
//	log := logger.New(
//		logger.WithDevelopment("letsecrypt"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log := logger.New(
//		logger.WithProduction("letsecrypt"),
//		logger.WithOutput(os.Stderr),
//	)
//
// # Attributes
//
// Attribute helpers cover the keys used across the service. Helpers taking
// an error or an identifier return an empty slog.Attr for zero input, which
// slog drops, so call sites need no nil checks:
//
//	log.Info("challenge accepted",
//		logger.Domain(domain),
//		logger.Challenge("dns-01"),
//		logger.Attempt(2),
//		logger.Error(err),
//	)
//
// Components receive a *slog.Logger through their options and default to
// Nop when none is given.
package logger
