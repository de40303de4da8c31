// Package session keeps signed-in LinkedIn members between requests.
//
// A Session is created after a successful OAuth code exchange and lives until
// its access token expires or the member logs out. Session IDs are random and
// only their BLAKE3 digest is persisted, so a leaked database does not leak
// usable cookies.
package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session is one signed-in member.
type Session struct {
	ID          string
	AccessToken string
	ExpiresAt   time.Time
	CreatedAt   time.Time

	// OIDC claims captured at sign-in.
	Subject    string
	Name       string
	GivenName  string
	FamilyName string
	Email      string
	Picture    string
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions and pending OAuth states in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
  id_hash TEXT PRIMARY KEY,
  access_token TEXT NOT NULL,
  subject TEXT NOT NULL,
  name TEXT NOT NULL,
  given_name TEXT NOT NULL,
  family_name TEXT NOT NULL,
  email TEXT NOT NULL,
  picture TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
CREATE TABLE IF NOT EXISTS oauth_states (
  state_hash TEXT PRIMARY KEY,
  expires_at INTEGER NOT NULL
);
`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create assigns a fresh ID to sess and stores it.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	id, err := randomToken()
	if err != nil {
		return err
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (id_hash, access_token, subject, name, given_name, family_name, email, picture, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		digest(id), sess.AccessToken, sess.Subject, sess.Name, sess.GivenName, sess.FamilyName,
		sess.Email, sess.Picture, sess.CreatedAt.UnixMilli(), sess.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	sess.ID = id
	return nil
}

// Get loads a live session. Expired sessions are deleted and reported as
// ErrExpired.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
SELECT access_token, subject, name, given_name, family_name, email, picture, created_at, expires_at
FROM sessions WHERE id_hash = ?`, digest(id))

	sess := &Session{ID: id}
	var created, expires int64
	err := row.Scan(&sess.AccessToken, &sess.Subject, &sess.Name, &sess.GivenName, &sess.FamilyName,
		&sess.Email, &sess.Picture, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.CreatedAt = time.UnixMilli(created)
	sess.ExpiresAt = time.UnixMilli(expires)

	if sess.Expired(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id_hash = ?`, digest(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// NewState returns a random OAuth state value.
func NewState() (string, error) {
	return randomToken()
}

// SaveState records a pending OAuth state valid for ttl.
func (s *Store) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO oauth_states (state_hash, expires_at) VALUES (?, ?)`,
		digest(state), s.now().Add(ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// ConsumeState reports whether state was issued and is still valid. A state
// can be consumed once.
func (s *Store) ConsumeState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	var expires int64
	err := s.db.QueryRowContext(ctx, `DELETE FROM oauth_states WHERE state_hash = ? RETURNING expires_at`, digest(state)).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume state: %w", err)
	}
	return s.now().Before(time.UnixMilli(expires)), nil
}

// Cleanup removes expired sessions and states and returns how many rows went.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	now := s.now().UnixMilli()
	var total int64
	for _, q := range []string{
		`DELETE FROM sessions WHERE expires_at <= ?`,
		`DELETE FROM oauth_states WHERE expires_at <= ?`,
	} {
		res, err := s.db.ExecContext(ctx, q, now)
		if err != nil {
			return total, fmt.Errorf("cleanup: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func randomToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func digest(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
