package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	configType = "yaml"
	envPrefix  = "DBCNX"
)

// Defaults applied when the settings file leaves a value unset.
const (
	DefaultPoolSize       = 5
	DefaultAcquireTimeout = 30 * time.Second
	DefaultWorkers        = 4
	DefaultFetchSize      = 100000
)

// Settings is the file-level configuration consumed by cmd/dbcnx.
type Settings struct {
	Backend  string          `mapstructure:"backend" yaml:"backend"`
	Setup    Setup           `mapstructure:"setup" yaml:"setup"`
	Pool     PoolSettings    `mapstructure:"pool" yaml:"pool"`
	Async    AsyncSettings   `mapstructure:"async" yaml:"async"`
	Fetch    FetchSettings   `mapstructure:"fetch" yaml:"fetch"`
	Logging  LogSettings     `mapstructure:"logging" yaml:"logging"`
	Keyring  KeyringSettings `mapstructure:"keyring" yaml:"keyring"`
	Postgres PGSettings      `mapstructure:"postgres" yaml:"postgres"`
}

// PoolSettings configures the session pool.
type PoolSettings struct {
	Size           int           `mapstructure:"size" yaml:"size"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout" yaml:"acquire_timeout"`
}

// AsyncSettings configures the async worker pool.
type AsyncSettings struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// FetchSettings holds the row buffer hint passed to app.WithFetchSize.
// It only sizes the materializer's initial buffer.
type FetchSettings struct {
	Size int `mapstructure:"size" yaml:"size"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// KeyringSettings names the OS keyring service holding database passwords.
type KeyringSettings struct {
	Service string `mapstructure:"service" yaml:"service"`
}

// PGSettings holds PostgreSQL specific options.
type PGSettings struct {
	// LargeObjects makes oid columns resolve through the large object API.
	LargeObjects bool `mapstructure:"large_objects" yaml:"large_objects"`
}

// Load reads settings from the YAML file at path. Environment variables
// prefixed with DBCNX_ override file values (DBCNX_POOL_SIZE, ...).
// An empty path yields defaults plus environment overrides.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("backend", "postgres")
	v.SetDefault("pool.size", DefaultPoolSize)
	v.SetDefault("pool.acquire_timeout", DefaultAcquireTimeout)
	v.SetDefault("async.workers", DefaultWorkers)
	v.SetDefault("fetch.size", DefaultFetchSize)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if s.Setup == nil {
		s.Setup = Setup{}
	}

	// A pool_size key inside the setup mapping wins over pool.size.
	s.Pool.Size = s.Setup.PoolSize(s.Pool.Size)
	if s.Pool.Size < 1 {
		s.Pool.Size = DefaultPoolSize
	}
	if s.Async.Workers < 1 {
		s.Async.Workers = DefaultWorkers
	}
	if s.Fetch.Size < 1 {
		s.Fetch.Size = DefaultFetchSize
	}

	return s, nil
}

// ResolvePassword fills an empty setup password from the OS keyring when a
// keyring service is configured. The setup is modified in place.
func (s *Settings) ResolvePassword() error {
	if s.Keyring.Service == "" {
		return nil
	}
	if pw, ok := s.Setup.Get(KeyPassword); ok && pw != "" {
		return nil
	}
	user := s.Setup.Value(KeyUser)
	if user == "" {
		return fmt.Errorf("keyring lookup: no user in setup")
	}
	pw, err := keyring.Get(s.Keyring.Service, user)
	if err != nil {
		return fmt.Errorf("keyring lookup: %w", err)
	}
	s.Setup[KeyPassword] = pw
	return nil
}

// StorePassword saves password for user under the configured keyring service.
func (s *Settings) StorePassword(user, password string) error {
	if s.Keyring.Service == "" {
		return fmt.Errorf("keyring store: no service configured")
	}
	if err := keyring.Set(s.Keyring.Service, user, password); err != nil {
		return fmt.Errorf("keyring store: %w", err)
	}
	return nil
}
