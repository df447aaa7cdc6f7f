package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Setup keys understood by the connection managers.
const (
	KeyHost     = "host"
	KeyPort     = "port"
	KeySDI      = "sdi"
	KeyUser     = "user"
	KeyPassword = "password"
	KeyDriver   = "driver"
	KeyPoolSize = "pool_size"
)

// RequiredKeys lists the setup keys every manager needs.
var RequiredKeys = []string{KeyHost, KeyPort, KeySDI, KeyUser, KeyPassword, KeyDriver}

// Setup is the connection setup mapping. Keys are matched case-insensitively.
type Setup map[string]string

// Get returns the value stored under key, ignoring key case.
func (s Setup) Get(key string) (string, bool) {
	if v, ok := s[key]; ok {
		return v, true
	}
	for k, v := range s {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Value returns the value stored under key or an empty string.
func (s Setup) Value(key string) string {
	v, _ := s.Get(key)
	return v
}

// Redacted returns a copy of the setup that is safe to log.
func (s Setup) Redacted() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		if strings.EqualFold(k, KeyPassword) && v != "" {
			v = "***"
		}
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the setup.
func (s Setup) Clone() Setup {
	out := make(Setup, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Missing reports the required keys absent from setup, in RequiredKeys order.
// It never fails; an empty result means the setup is complete.
func Missing(setup Setup) []string {
	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := setup.Get(key); !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Connection is the typed view of a Setup used by drivers.
type Connection struct {
	Host     string
	Port     int
	SDI      string
	User     string
	Password string
	// LibDir is the client library directory named by the "driver" key.
	LibDir string
}

// Port parses the port key. An absent key yields zero and no error.
func (s Setup) Port() (int, error) {
	v, ok := s.Get(KeyPort)
	if !ok {
		return 0, nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", v, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q: out of range", v)
	}
	return port, nil
}

// Connection builds the typed connection view. An invalid port is left at
// zero; Port reports why.
func (s Setup) Connection() Connection {
	port, _ := s.Port()
	return Connection{
		Host:     s.Value(KeyHost),
		Port:     port,
		SDI:      s.Value(KeySDI),
		User:     s.Value(KeyUser),
		Password: s.Value(KeyPassword),
		LibDir:   s.Value(KeyDriver),
	}
}

// PoolSize returns the pool_size key, or def when it is absent or invalid.
func (s Setup) PoolSize(def int) int {
	if v, ok := s.Get(KeyPoolSize); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// Address returns host:port.
func (c Connection) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the host:port/sdi locator of the database instance.
func (c Connection) DSN() string {
	return c.Address() + "/" + c.SDI
}

// Identity identifies the database session target, ignoring the password.
func (c Connection) Identity() string {
	return c.User + "@" + c.DSN()
}
