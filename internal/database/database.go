package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/trinodb/trino-go-client/trino" // Trino driver
)

// Config holds configuration for the Trino connection backing the SQL broker
type Config struct {
	Type            string        `koanf:"type"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Catalog         string        `koanf:"catalog"`
	Schema          string        `koanf:"schema"`
	TableName       string        `koanf:"table"`
	SchemaFile      string        `koanf:"schema_file"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// QualifiedTable returns catalog.schema.table
func (c Config) QualifiedTable() string {
	return fmt.Sprintf("%s.%s.%s", c.Catalog, c.Schema, c.TableName)
}

// DSN builds the trino driver connection string
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "http",
		User:   url.User(c.User),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	q := url.Values{}
	q.Set("catalog", c.Catalog)
	q.Set("schema", c.Schema)
	u.RawQuery = q.Encode()
	return u.String()
}

// Database provides a Trino database connection
type Database struct {
	*sql.DB
	Config Config
}

// New opens a Trino connection, verifies it and makes sure the message table exists
func New(ctx context.Context, config Config) (*Database, error) {
	if config.Type != "trino" {
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := sql.Open("trino", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open Trino connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Trino: %w", err)
	}

	database := &Database{DB: db, Config: config}

	if config.SchemaFile != "" {
		err = database.ExecuteSchema(ctx, config.SchemaFile)
	} else {
		err = database.ExecuteStatements(ctx, database.DefaultSchema())
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return database, nil
}

// DefaultSchema creates the message table when no schema file is configured
func (db *Database) DefaultSchema() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id VARCHAR,
    queue_name VARCHAR,
    payload VARCHAR,
    enqueued_at TIMESTAMP(6)
)`, db.Config.QualifiedTable())
}

// ExecuteSchema loads and executes a schema file
func (db *Database) ExecuteSchema(ctx context.Context, filePath string) error {
	slog.Info("executing schema", "file", filePath)

	schemaSQL, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return db.ExecuteStatements(ctx, string(schemaSQL))
}

// ExecuteStatements runs ';' separated statements one by one, since Trino
// does not support multi-statement execution.
func (db *Database) ExecuteStatements(ctx context.Context, statements string) error {
	for _, query := range strings.Split(statements, ";") {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		slog.Debug("executing query", "query", query)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s, error: %w", query, err)
		}
	}
	return nil
}
