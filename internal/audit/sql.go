package audit

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect selects the DDL used for the command_audit table.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS command_audit (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	discord_user_id VARCHAR(20) NOT NULL,
	command_name VARCHAR(64) NOT NULL,
	success BOOLEAN NOT NULL DEFAULT TRUE,
	error_message TEXT NULL,
	target_uuid VARCHAR(36) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_user_id (discord_user_id),
	INDEX idx_command (command_name),
	INDEX idx_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS command_audit (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	discord_user_id TEXT NOT NULL,
	command_name TEXT NOT NULL,
	success INTEGER NOT NULL DEFAULT 1,
	error_message TEXT NULL,
	target_uuid TEXT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_audit_user ON command_audit (discord_user_id);
CREATE INDEX IF NOT EXISTS idx_command_audit_created ON command_audit (created_at);`

// SQLSink writes entries to the command_audit table.
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
}

// MySQLConfig holds the connection settings of the audit database.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// OpenMySQL connects, pings and creates the audit table if needed.
func OpenMySQL(ctx context.Context, c MySQLConfig) (*SQLSink, error) {
	if c.User == "" || c.Password == "" {
		return nil, fmt.Errorf("DB_USER and DB_PASSWORD are required")
	}
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Timeout = 5 * time.Second

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(30 * time.Second)
	return NewSQLSink(ctx, db, MySQL)
}

// OpenSQLite opens (or creates) a SQLite database file. ":memory:" is
// accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	return NewSQLSink(ctx, db, SQLite)
}

// NewSQLSink pings db and applies the schema for dialect.
func NewSQLSink(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLSink, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}
	schema := mysqlSchema
	if dialect == SQLite {
		schema = sqliteSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create audit schema: %w", err)
		}
	}
	return &SQLSink{db: db, dialect: dialect}, nil
}

func (s *SQLSink) Write(ctx context.Context, e Entry) error {
	var created any = e.CreatedAt.UTC()
	if s.dialect == SQLite {
		created = e.CreatedAt.UTC().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_audit (discord_user_id, command_name, success, error_message, target_uuid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.DiscordUserID, e.CommandName, e.Success, nullable(e.Error), nullable(e.TargetUUID), created,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT discord_user_id, command_name, success, error_message, target_uuid, created_at
		 FROM command_audit ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			errMsg     sql.NullString
			targetUUID sql.NullString
		)
		if s.dialect == SQLite {
			var millis int64
			if err := rows.Scan(&e.DiscordUserID, &e.CommandName, &e.Success, &errMsg, &targetUUID, &millis); err != nil {
				return nil, err
			}
			e.CreatedAt = time.UnixMilli(millis).UTC()
		} else {
			if err := rows.Scan(&e.DiscordUserID, &e.CommandName, &e.Success, &errMsg, &targetUUID, &e.CreatedAt); err != nil {
				return nil, err
			}
		}
		e.Error = errMsg.String
		e.TargetUUID = targetUUID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
