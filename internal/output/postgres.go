package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// postgresBatchSize is how many records are buffered before a flush.
const postgresBatchSize = 64

// PostgresOutput archives records into the log_records table in batches.
// See database/migrations for the schema.
type PostgresOutput struct {
	db    *sql.DB
	batch []map[string]any
}

func NewPostgresOutput(databaseURL string) (*PostgresOutput, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresOutput{db: db}, nil
}

// Mirrors database/migrations/000001_create_log_records.up.sql.
const schema = `
	CREATE TABLE IF NOT EXISTS log_records (
		id          BIGSERIAL PRIMARY KEY,
		record_id   BIGINT,
		source      TEXT,
		message     TEXT,
		payload     JSONB NOT NULL,
		received_at TIMESTAMPTZ NOT NULL
	)
`

func (o *PostgresOutput) Name() string { return "postgres" }

func (o *PostgresOutput) Feed(record map[string]any) error {
	o.batch = append(o.batch, record)
	if len(o.batch) < postgresBatchSize {
		return nil
	}
	return o.flush()
}

// flush inserts the buffered batch in a single transaction.
func (o *PostgresOutput) flush() error {
	if len(o.batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO log_records (record_id, source, message, payload, received_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, record := range o.batch {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			intField(record, "id"),
			stringField(record, "source"),
			stringField(record, "message"),
			payload,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	o.batch = o.batch[:0]
	return nil
}

func (o *PostgresOutput) Close() error {
	flushErr := o.flush()
	if err := o.db.Close(); err != nil && flushErr == nil {
		flushErr = fmt.Errorf("failed to close postgres connection: %w", err)
	}
	return flushErr
}

func intField(record map[string]any, key string) sql.NullInt64 {
	if v, ok := record[key].(int64); ok {
		return sql.NullInt64{Int64: v, Valid: true}
	}
	return sql.NullInt64{}
}

func stringField(record map[string]any, key string) sql.NullString {
	if v, ok := record[key].(string); ok {
		return sql.NullString{String: v, Valid: true}
	}
	return sql.NullString{}
}
