package mysql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/joacominatel/dbcnx/internal/config"
	"github.com/joacominatel/dbcnx/internal/database"
	"github.com/joacominatel/dbcnx/internal/database/sqldb"
)

const (
	driverName  = "mysql"
	dialTimeout = 10 * time.Second
)

// Driver implements database.Driver for MySQL and MariaDB.
type Driver struct{}

// New creates a new MySQL driver.
func New() *Driver {
	return &Driver{}
}

// Name returns "mysql".
func (d *Driver) Name() string {
	return "mysql"
}

// Connect opens a single session.
func (d *Driver) Connect(ctx context.Context, conn config.Connection) (database.Conn, error) {
	c, err := sqldb.Connect(ctx, driverName, DSN(conn), Classify)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return c, nil
}

// OpenPool opens size sessions.
func (d *Driver) OpenPool(ctx context.Context, conn config.Connection, size int) (database.Pool, error) {
	p, err := sqldb.NewPool(ctx, driverName, DSN(conn), size, Classify)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return p, nil
}

// DSN builds the go-sql-driver data source name for conn, using utf8mb4.
func DSN(conn config.Connection) string {
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = conn.Address()
	cfg.DBName = conn.SDI
	cfg.ParseTime = true
	cfg.Timeout = dialTimeout
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Classify maps a MySQL column type to a TypeCode. The TEXT family is
// treated as character large objects.
func Classify(typeName string) database.TypeCode {
	switch strings.ToUpper(typeName) {
	case "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return database.TypeCLOB
	}
	return sqldb.ClassifyGeneric(typeName)
}
