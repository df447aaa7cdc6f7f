package sqlite

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/database/sqldb"
)

const driverName = "sqlite3"

// busyTimeoutMS makes concurrent pool sessions wait on locks instead of
// failing with SQLITE_BUSY.
const busyTimeoutMS = 5000

// Driver implements database.Driver for SQLite. The database file is taken
// from the setup's sdi key; host and port are ignored.
type Driver struct{}

// New creates a new SQLite driver.
func New() *Driver {
	return &Driver{}
}

// Name returns "sqlite".
func (d *Driver) Name() string {
	return "sqlite"
}

// Connect opens a single session on the database file.
func (d *Driver) Connect(ctx context.Context, conn config.Connection) (database.Conn, error) {
	c, err := sqldb.Connect(ctx, driverName, DSN(conn), Classify)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return c, nil
}

// OpenPool opens size sessions on the database file.
func (d *Driver) OpenPool(ctx context.Context, conn config.Connection, size int) (database.Pool, error) {
	p, err := sqldb.NewPool(ctx, driverName, DSN(conn), size, Classify)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return p, nil
}

// DSN builds the go-sqlite3 data source name for conn.
func DSN(conn config.Connection) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d", conn.SDI, busyTimeoutMS)
}

// Classify maps a declared SQLite column type to a TypeCode. Columns
// declared CLOB are character large objects.
func Classify(typeName string) database.TypeCode {
	if strings.EqualFold(typeName, "CLOB") {
		return database.TypeCLOB
	}
	return sqldb.ClassifyGeneric(typeName)
}
