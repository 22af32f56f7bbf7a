package remotefs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gonzalop/remotefs/transport"
)

// Option configures a Client or a Driver.
type Option func(*config) error

// DiagnosticHandler receives failures that do not stop an operation: steps
// done on a best-effort basis and failures of operations the error
// classifier does not know.
type DiagnosticHandler func(op Op, err error)

type config struct {
	logger   *slog.Logger
	registry *Registry
	dial     transport.DialFunc
	diagnose DiagnosticHandler
	manual   bool
	now      func() time.Time
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		logger:   slog.New(slog.DiscardHandler),
		registry: DefaultRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.diagnose == nil {
		logger := cfg.logger
		cfg.diagnose = func(op Op, err error) {
			logger.Debug("ignored failure", "op", op, "error", err)
		}
	}
	return cfg, nil
}

// WithLogger sets the logger for connection and transfer activity.
// Logging is discarded by default.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client, _ := remotefs.New("ftp://ftp.example.com", remotefs.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("remotefs: nil logger")
		}
		c.logger = logger
		return nil
	}
}

// WithRegistry sets the registry connection strings are resolved against.
// The registry should be sealed before it is shared.
func WithRegistry(r *Registry) Option {
	return func(c *config) error {
		if r == nil {
			return fmt.Errorf("remotefs: nil registry")
		}
		c.registry = r
		return nil
	}
}

// WithDialer replaces the function that opens transports. It is meant for
// tests and for callers that bring their own protocol library.
func WithDialer(dial transport.DialFunc) Option {
	return func(c *config) error {
		c.dial = dial
		return nil
	}
}

// WithDiagnosticHandler sets the handler for ignored failures. By default
// they are logged at debug level.
func WithDiagnosticHandler(h DiagnosticHandler) Option {
	return func(c *config) error {
		c.diagnose = h
		return nil
	}
}

// WithManualLifecycle turns off lazy connect and login. Operations on a
// driver that is not logged in then fail with a ConnectionError of kind
// ConnNotAuthenticated.
func WithManualLifecycle() Option {
	return func(c *config) error {
		c.manual = true
		return nil
	}
}

// withClock sets the time source used for year-less listing dates.
func withClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}
