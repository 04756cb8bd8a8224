// Package sessionstore persists scraped course records to per-session
// JSON files so a browser session can re-read its last scrape without
// hitting the portals again.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"uaftools-backend/lib/transcript"

	"github.com/mazen160/go-random"
)

const DefaultTTL = time.Hour

// StampedRecord carries the scrape time alongside the course record so
// stale entries can be expired on read.
type StampedRecord struct {
	transcript.CourseRecord
	ScrapedAt time.Time `json:"_scrapedAt"`
}

type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source, intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	s := &Store{
		dir: dir,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewSessionID mints an opaque identifier for a new browser session.
func NewSessionID() (string, error) {
	return random.String(32)
}

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("session id is empty")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("session id contains invalid character %q", r)
		}
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("session_%s.json", id))
}

// Append stamps the records with the current time and appends them to
// the session file.
func (s *Store) Append(id string, records []transcript.CourseRecord) error {
	if err := validID(id); err != nil {
		return err
	}

	existing, err := s.read(id)
	if err != nil {
		return err
	}

	now := s.now()
	for _, r := range records {
		existing = append(existing, StampedRecord{CourseRecord: r, ScrapedAt: now})
	}
	return s.write(id, existing)
}

// Load returns the session's live records, dropping and compacting away
// anything older than the TTL. A missing session yields nil, nil.
func (s *Store) Load(id string) ([]transcript.CourseRecord, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	stamped, err := s.read(id)
	if err != nil {
		return nil, err
	}
	if stamped == nil {
		return nil, nil
	}

	cutoff := s.now().Add(-s.ttl)
	live := stamped[:0]
	for _, r := range stamped {
		if r.ScrapedAt.IsZero() || r.ScrapedAt.After(cutoff) {
			live = append(live, r)
		}
	}

	if len(live) != len(stamped) {
		if err := s.write(id, live); err != nil {
			return nil, err
		}
	}

	records := make([]transcript.CourseRecord, len(live))
	for i, r := range live {
		records[i] = r.CourseRecord
	}
	return records, nil
}

func (s *Store) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) read(id string) ([]StampedRecord, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []StampedRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", id, err)
	}
	return out, nil
}

// write replaces the session file atomically so a crash mid-write never
// leaves a truncated file behind.
func (s *Store) write(id string, records []StampedRecord) error {
	if records == nil {
		records = []StampedRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "session_*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(id))
}
