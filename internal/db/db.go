package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE SCHEMA IF NOT EXISTS catalog;
CREATE TABLE IF NOT EXISTS catalog.products (
	position       integer NOT NULL,
	id             text PRIMARY KEY,
	category       text NOT NULL,
	name           text NOT NULL,
	description    text NOT NULL,
	link           text NOT NULL,
	part_number    text,
	condition      text,
	images         text[],
	specifications jsonb,
	created_at     text NOT NULL
);
`

// Init opens the database from DATABASE_URL and bootstraps the schema.
func Init() (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return conn, nil
}
