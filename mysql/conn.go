package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"dbmirror/internal"
)

const DefaultConnectTimeout = 60 * time.Second

type Config struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	User             string `json:"user"`
	Password         string `json:"password"`
	Database         string `json:"database"`
	Charset          string `json:"charset,omitempty"`
	ConnectTimeoutMs int    `json:"connectTimeoutMs,omitempty"`
}

func (c Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutMs > 0 {
		return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
	}
	return DefaultConnectTimeout
}

// DSN renders the go-sql-driver connection string. parseTime is always on
// so temporal columns scan as time.Time rather than raw bytes.
func (c Config) DSN() string {
	cred := c.User
	if c.Password != "" {
		cred = fmt.Sprintf("%s:%s", c.User, c.Password)
	}

	dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&timeout=%s",
		cred, c.Host, c.Port, c.Database, c.ConnectTimeout())
	if c.Charset != "" {
		dsn += "&charset=" + c.Charset
	}
	return dsn
}

// Connect opens a handle and verifies it with a ping bounded by the
// configured timeout. Callers own the returned handle and must close it
// on every exit path.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, &ConnectionError{Host: cfg.Host, Database: cfg.Database, Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &ConnectionError{Host: cfg.Host, Database: cfg.Database, Err: err}
	}

	internal.Logger.Debug("Connected to MySQL", "host", cfg.Host, "database", cfg.Database)
	return db, nil
}
