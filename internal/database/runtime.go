package database

import (
	"fmt"
	"os"
	"sync"
)

var clientRuntime struct {
	mu          sync.Mutex
	initialized bool
	libDir      string
}

// InitClient initializes the process-wide client runtime from the client
// library directory named by the setup's "driver" key. The drivers in this
// module are pure Go or statically linked, so initialization only checks
// that the directory exists and records it.
//
// Repeated calls with the same directory are no-ops. A call with a different
// directory returns ErrClientInitialized and keeps the first one.
func InitClient(libDir string) error {
	clientRuntime.mu.Lock()
	defer clientRuntime.mu.Unlock()

	if clientRuntime.initialized {
		if libDir != clientRuntime.libDir {
			return fmt.Errorf("%w with %q", ErrClientInitialized, clientRuntime.libDir)
		}
		return nil
	}

	if libDir != "" {
		fi, err := os.Stat(libDir)
		if err != nil {
			return fmt.Errorf("client library dir: %w", err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("client library dir: %s is not a directory", libDir)
		}
	}

	clientRuntime.initialized = true
	clientRuntime.libDir = libDir
	return nil
}

// ClientLibDir returns the directory the client runtime was initialized with.
func ClientLibDir() (string, bool) {
	clientRuntime.mu.Lock()
	defer clientRuntime.mu.Unlock()
	return clientRuntime.libDir, clientRuntime.initialized
}
