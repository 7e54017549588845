// Package stubserver implements the notes backend wire contract for
// development and tests: JWT-authenticated multi-tenant note CRUD over a
// SQLite store, seeded with well-known accounts.
package stubserver

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tenants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	plan       TEXT NOT NULL DEFAULT 'free',
	note_limit INTEGER NOT NULL DEFAULT 3
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	tenant_id     TEXT NOT NULL REFERENCES tenants(id),
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'member'
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL REFERENCES tenants(id),
	user_id    TEXT NOT NULL REFERENCES users(id),
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_tenant ON notes(tenant_id);
`

// Store wraps a sql.DB with backend-specific operations.
type Store struct {
	conn *sql.DB
}

// OpenStore opens (or creates) the SQLite database and applies the schema.
func OpenStore(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("stubserver: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stubserver: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stubserver: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// account is a user row including the credential hash. Never serialized.
type account struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Role         models.Role
}

func (a *account) user() models.User {
	return models.User{ID: a.ID, Email: a.Email, Role: a.Role, TenantID: a.TenantID}
}

// AccountByEmail looks up a user by email.
func (s *Store) AccountByEmail(email string) (*account, error) {
	return s.scanAccount(s.conn.QueryRow(
		`SELECT id, tenant_id, email, password_hash, role FROM users WHERE email = ?`, email))
}

// AccountByID looks up a user by id.
func (s *Store) AccountByID(id string) (*account, error) {
	return s.scanAccount(s.conn.QueryRow(
		`SELECT id, tenant_id, email, password_hash, role FROM users WHERE id = ?`, id))
}

func (s *Store) scanAccount(row *sql.Row) (*account, error) {
	var a account
	err := row.Scan(&a.ID, &a.TenantID, &a.Email, &a.PasswordHash, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stubserver: scan user: %w", err)
	}
	return &a, nil
}

// TenantByID looks up tenant metadata.
func (s *Store) TenantByID(id string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.conn.QueryRow(
		`SELECT id, name, plan, note_limit FROM tenants WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Plan, &t.NoteLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stubserver: scan tenant: %w", err)
	}
	return &t, nil
}

// SetTenantPlan updates a tenant's plan.
func (s *Store) SetTenantPlan(id string, plan models.Plan) error {
	res, err := s.conn.Exec(`UPDATE tenants SET plan = ? WHERE id = ?`, plan, id)
	if err != nil {
		return fmt.Errorf("stubserver: update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListNotes returns all notes in the tenant's scope, oldest first.
func (s *Store) ListNotes(tenantID string) ([]models.Note, error) {
	rows, err := s.conn.Query(
		`SELECT id, title, content, created_at FROM notes WHERE tenant_id = ? ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("stubserver: list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("stubserver: scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// CountNotes returns the number of notes in the tenant's scope.
func (s *Store) CountNotes(tenantID string) (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM notes WHERE tenant_id = ?`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("stubserver: count notes: %w", err)
	}
	return n, nil
}

// InsertNote stores a new note.
func (s *Store) InsertNote(tenantID, userID string, n models.Note) error {
	_, err := s.conn.Exec(
		`INSERT INTO notes (id, tenant_id, user_id, title, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, tenantID, userID, n.Title, n.Content, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("stubserver: insert note: %w", err)
	}
	return nil
}

// UpdateNote replaces a note's title and content within the tenant's scope.
func (s *Store) UpdateNote(tenantID, id, title, content string) (*models.Note, error) {
	res, err := s.conn.Exec(
		`UPDATE notes SET title = ?, content = ? WHERE id = ? AND tenant_id = ?`,
		title, content, id, tenantID)
	if err != nil {
		return nil, fmt.Errorf("stubserver: update note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrNotFound
	}
	var note models.Note
	err = s.conn.QueryRow(
		`SELECT id, title, content, created_at FROM notes WHERE id = ?`, id).
		Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("stubserver: reload note: %w", err)
	}
	return &note, nil
}

// DeleteNote removes a note within the tenant's scope.
func (s *Store) DeleteNote(tenantID, id string) error {
	res, err := s.conn.Exec(`DELETE FROM notes WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return fmt.Errorf("stubserver: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ApplySeed upserts the seed tenants and users in one transaction. Existing
// notes are preserved so a re-seed does not wipe working data.
func (s *Store) ApplySeed(seed Seed) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("stubserver: begin seed tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, t := range seed.Tenants {
		_, err := tx.Exec(`
			INSERT INTO tenants (id, name, plan, note_limit)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name       = excluded.name,
				plan       = excluded.plan,
				note_limit = excluded.note_limit
		`, t.ID, t.Name, t.Plan, t.NoteLimit)
		if err != nil {
			return fmt.Errorf("stubserver: seed tenant %s: %w", t.ID, err)
		}
	}

	for _, u := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("stubserver: hash password for %s: %w", u.Email, err)
		}
		_, err = tx.Exec(`
			INSERT INTO users (id, tenant_id, email, password_hash, role)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				tenant_id     = excluded.tenant_id,
				email         = excluded.email,
				password_hash = excluded.password_hash,
				role          = excluded.role
		`, u.ID, u.TenantID, u.Email, string(hash), u.Role)
		if err != nil {
			return fmt.Errorf("stubserver: seed user %s: %w", u.Email, err)
		}
	}

	return tx.Commit()
}

// VerifyPassword checks a plaintext password against the stored hash.
func (a *account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
