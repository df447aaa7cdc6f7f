package drivers

import (
	"fmt"
	"strings"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/database/mysql"
	"github.com/joacominatel/dbcnx/internal/database/postgres"
	"github.com/joacominatel/dbcnx/internal/database/sqlite"
)

// New returns the driver for the configured backend.
func New(s *config.Settings) (database.Driver, error) {
	switch strings.ToLower(s.Backend) {
	case "postgres", "postgresql", "":
		var opts []postgres.Option
		if s.Postgres.LargeObjects {
			opts = append(opts, postgres.WithLargeObjects())
		}
		return postgres.New(opts...), nil
	case "mysql", "mariadb":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", s.Backend)
	}
}
