// Package sqlite provides a local audit store for normalized trace
// records and their delivery outcomes. It exists for debugging replay;
// the adapter runs fine without it.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/agent-stream-adapter/internal/domain"
)

// Store is a SQLite-backed trace record log.
type Store struct {
	db *sql.DB
}

// StoredRecord is one audited trace record row.
type StoredRecord struct {
	ID            string
	ChatID        string
	Status        string
	Record        *domain.TraceRecord
	DeliveryError string
	CreatedAt     time.Time
}

// New opens (or creates) the audit database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS trace_records (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL,
		status TEXT NOT NULL,
		record TEXT NOT NULL,
		delivery_error TEXT,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_trace_records_chat
		ON trace_records(chat_id, created_at)`)
	return err
}

// AppendTraceRecord writes one normalized record with its delivery
// outcome. deliveryErr may be nil.
func (s *Store) AppendTraceRecord(ctx context.Context, chatID string, rec *domain.TraceRecord, deliveryErr error) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var deliveryMsg sql.NullString
	if deliveryErr != nil {
		deliveryMsg = sql.NullString{String: deliveryErr.Error(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trace_records (id, chat_id, status, record, delivery_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), chatID, string(rec.Content.Status), string(data), deliveryMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert trace record: %w", err)
	}
	return nil
}

// ListTraceRecords returns the audited records for one chat, oldest first.
func (s *Store) ListTraceRecords(ctx context.Context, chatID string) ([]*StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, status, record, delivery_error, created_at
		 FROM trace_records WHERE chat_id = ? ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query trace records: %w", err)
	}
	defer rows.Close()

	var records []*StoredRecord
	for rows.Next() {
		var (
			stored      StoredRecord
			recordJSON  string
			deliveryMsg sql.NullString
		)
		if err := rows.Scan(&stored.ID, &stored.ChatID, &stored.Status, &recordJSON, &deliveryMsg, &stored.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trace record: %w", err)
		}
		var rec domain.TraceRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal trace record %s: %w", stored.ID, err)
		}
		stored.Record = &rec
		stored.DeliveryError = deliveryMsg.String
		records = append(records, &stored)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
