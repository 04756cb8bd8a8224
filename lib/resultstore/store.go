// Package resultstore keeps named snapshots of scraped transcripts in
// a sql database so students can pin a result set and compare it
// against later scrapes.
package resultstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"uaftools-backend/lib/transcript"

	"github.com/google/uuid"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	_, err := db.Exec(Schema)
	if err != nil {
		return Store{}, err
	}
	return Store{db: db}, nil
}

type SavedResult struct {
	ID                 string                   `json:"id"`
	RegistrationNumber string                   `json:"registration_number"`
	Records            []transcript.CourseRecord `json:"student_data"`
	Timestamp          time.Time                `json:"timestamp"`
}

// Save stores a snapshot of the given records. Saving twice with the
// same registration number and timestamp overwrites the earlier data
// and keeps the original id.
func (s Store) Save(ctx context.Context, registration string, records []transcript.CourseRecord, at time.Time) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO saved_results (id, registration_number, student_data, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (registration_number, timestamp)
		DO UPDATE SET student_data = excluded.student_data
		RETURNING id
	`, uuid.NewString(), registration, string(data), at.UTC().Format(time.RFC3339)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns every snapshot for a registration number, newest first.
func (s Store) List(ctx context.Context, registration string) ([]SavedResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registration_number, student_data, timestamp
		FROM saved_results
		WHERE registration_number = ?
		ORDER BY timestamp DESC
	`, registration)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedResult
	for rows.Next() {
		var result SavedResult
		var data, stamp string
		err := rows.Scan(&result.ID, &result.RegistrationNumber, &data, &stamp)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &result.Records); err != nil {
			return nil, err
		}
		result.Timestamp, err = time.Parse(time.RFC3339, stamp)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

func (s Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_results WHERE id = ?`, id)
	return err
}
