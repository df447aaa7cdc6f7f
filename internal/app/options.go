package app

import (
	"time"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/logger"
)

type options struct {
	log            *logger.Logger
	fetchSize      int
	acquireTimeout time.Duration
	strict         bool
}

// Option configures a manager.
type Option func(*options)

// WithLogger sets the logger. The global logger is used by default.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithFetchSize sets the row buffer hint for reads. It sizes the buffer
// the materializer allocates up front (capped at 1024 rows); drivers fetch
// rows their own way and never receive it.
func WithFetchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.fetchSize = n
		}
	}
}

// WithAcquireTimeout bounds how long a pooled call waits for a session.
// Zero makes acquisition fail at once when every session is in use.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.acquireTimeout = d
		}
	}
}

// WithStrictSetup makes every operation fail with *ErrConfig while the
// setup is missing required keys, instead of attempting to connect.
func WithStrictSetup() Option {
	return func(o *options) {
		o.strict = true
	}
}

func buildOptions(opts []Option) options {
	o := options{
		fetchSize:      database.DefaultFetchSize,
		acquireTimeout: config.DefaultAcquireTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get()
	}
	return o
}

// checkSetup logs the setup and any missing keys, then initializes the
// client runtime. Neither step stops construction.
func checkSetup(log *logger.Logger, setup config.Setup) []string {
	log.Debug("connection setup", "setup", setup.Redacted())

	missing := config.Missing(setup)
	if len(missing) > 0 {
		log.Error("setup is missing required keys", "missing", missing)
	}
	if _, err := setup.Port(); err != nil {
		log.WarnWithErr("setup port is not usable", err)
	}

	if err := database.InitClient(setup.Value(config.KeyDriver)); err != nil {
		log.WarnWithErr("client runtime init", err)
	}
	return missing
}
