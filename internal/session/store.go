package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/55onurisik/lmsmobile/internal/model"

	_ "modernc.org/sqlite"
)

// Store persists the bearer token and the cached student profile between
// app runs. Login and logout are the only writers; everything else reads.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the session database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping session database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const (
	keyToken   = "token"
	keyStudent = "student"
)

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?`,
		key, value, time.Now(), value, time.Now(),
	)
	return err
}

// get returns empty string and nil error when the key is missing.
func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SaveToken stores the bearer token issued at login.
func (s *Store) SaveToken(token string) error {
	return s.set(keyToken, token)
}

// Token returns the stored bearer token, or empty when logged out.
// Satisfies the gateway's TokenSource.
func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

// SaveStudent caches the student profile returned by login.
func (s *Store) SaveStudent(st model.Student) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode student: %w", err)
	}
	return s.set(keyStudent, string(data))
}

// Student returns the cached profile, or nil when none is stored.
func (s *Store) Student() (*model.Student, error) {
	raw, err := s.get(keyStudent)
	if err != nil || raw == "" {
		return nil, err
	}
	var st model.Student
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode student: %w", err)
	}
	return &st, nil
}

// Clear removes the token and cached profile. Used on logout and on a 401
// from any non-chat endpoint.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key IN (?, ?)`, keyToken, keyStudent)
	if err == nil {
		slog.Info("session cleared")
	}
	return err
}
