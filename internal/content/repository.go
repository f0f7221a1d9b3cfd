package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for record persistence.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, collection, id string) (*Record, error)
	List(ctx context.Context, collection string) ([]*Record, error)
	Update(ctx context.Context, record *Record) error
	Delete(ctx context.Context, collection, id string) error
}

// SQLiteRepository implements Repository over a single records table.
// Field values are stored as a JSON document per row; the schema lives in
// the Collection descriptors, not the database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed record repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new record. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = "rec-" + uuid.NewString()[:12]
	}

	fieldsJSON, attachmentsJSON, err := encodeRecord(record)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	record.UpdatedAt = record.CreatedAt

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO records (id, collection, fields, attachments, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Collection, fieldsJSON, attachmentsJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating record: %w", err)
	}

	return nil
}

// GetByID retrieves a single record scoped to its collection.
func (r *SQLiteRepository) GetByID(ctx context.Context, collection, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, collection, fields, attachments, created_at, updated_at
		 FROM records WHERE collection = ? AND id = ?`, collection, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// List returns all records in a collection in insertion order, which is
// how the admin console displays entries. rowid avoids created_at ties
// (RFC3339 has second resolution).
func (r *SQLiteRepository) List(ctx context.Context, collection string) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, collection, fields, attachments, created_at, updated_at
		 FROM records WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return records, nil
}

// Update replaces a record's fields and attachments.
func (r *SQLiteRepository) Update(ctx context.Context, record *Record) error {
	fieldsJSON, attachmentsJSON, err := encodeRecord(record)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE records SET fields = ?, attachments = ?, updated_at = ?
		 WHERE collection = ? AND id = ?`,
		fieldsJSON, attachmentsJSON, now, record.Collection, record.ID,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes a record.
func (r *SQLiteRepository) Delete(ctx context.Context, collection, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func encodeRecord(record *Record) (fieldsJSON, attachmentsJSON string, err error) {
	fields := record.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	fb, err := json.Marshal(fields)
	if err != nil {
		return "", "", fmt.Errorf("encoding record fields: %w", err)
	}

	attachments := record.Attachments
	if attachments == nil {
		attachments = map[string]string{}
	}
	ab, err := json.Marshal(attachments)
	if err != nil {
		return "", "", fmt.Errorf("encoding record attachments: %w", err)
	}

	return string(fb), string(ab), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var fieldsJSON, attachmentsJSON, createdAt, updatedAt string

	if err := row.Scan(&rec.ID, &rec.Collection, &fieldsJSON, &attachmentsJSON,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, fmt.Errorf("decoding record fields: %w", err)
	}
	if err := json.Unmarshal([]byte(attachmentsJSON), &rec.Attachments); err != nil {
		return nil, fmt.Errorf("decoding record attachments: %w", err)
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &rec, nil
}
