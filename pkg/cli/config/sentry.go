package config

import (
	"log/slog"

	"github.com/secmon-lab/warden/pkg/utils/errutil"
	"github.com/urfave/cli/v3"
)

// Sentry holds CLI flags for error reporting configuration
type Sentry struct {
	dsn string
	env string
}

// Flags returns CLI flags for Sentry configuration
func (s *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting (empty disables reporting)",
			Category:    "Logging",
			Sources:     cli.EnvVars("WARDEN_SENTRY_DSN"),
			Destination: &s.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Value:       "production",
			Category:    "Logging",
			Sources:     cli.EnvVars("WARDEN_SENTRY_ENV"),
			Destination: &s.env,
		},
	}
}

func (s Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("dsn.len", len(s.dsn)),
		slog.String("env", s.env),
	)
}

// Configure initializes Sentry error reporting. The returned closer flushes
// buffered events on shutdown.
func (s *Sentry) Configure(release string) (func(), error) {
	return errutil.Configure(s.dsn, s.env, release)
}
