// Package portfolios persists named portfolio documents in portfolio.db.
// Each row holds the full JSON document keyed by the portfolio name.
package portfolios

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidName is returned when a portfolio name is empty after
// sanitization.
var ErrInvalidName = errors.New("invalid portfolio name")

// Repository handles portfolio database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "portfolios").Logger(),
	}
}

// sanitizeName keeps letters, digits, spaces, dashes and underscores, so
// names stay printable and safe to echo anywhere.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Save upserts a portfolio document under its sanitized name and returns
// the name it was stored as.
func (r *Repository) Save(p Portfolio) (string, error) {
	name := sanitizeName(p.Name)
	if name == "" {
		return "", ErrInvalidName
	}
	p.Name = name

	doc, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	now := time.Now().Unix()
	_, err = r.db.Exec(`
		INSERT INTO portfolios (name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, name, string(doc), now, now)
	if err != nil {
		return "", fmt.Errorf("failed to save portfolio %s: %w", name, err)
	}

	r.log.Debug().Str("name", name).Int("assets", len(p.Assets)).Msg("Portfolio saved")
	return name, nil
}

// Get returns a stored portfolio, or nil when the name is unknown.
func (r *Repository) Get(name string) (*Portfolio, error) {
	var doc string
	err := r.db.QueryRow("SELECT data FROM portfolios WHERE name = ?", name).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %s: %w", name, err)
	}

	var p Portfolio
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal portfolio %s: %w", name, err)
	}
	return &p, nil
}

// List returns all saved portfolio names, sorted.
func (r *Repository) List() ([]string, error) {
	rows, err := r.db.Query("SELECT name FROM portfolios ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolios: %w", err)
	}

	return names, nil
}

// Delete removes a portfolio. Returns true when a row was deleted, false
// when the name was unknown.
func (r *Repository) Delete(name string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM portfolios WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to delete portfolio %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		r.log.Debug().Str("name", name).Msg("Portfolio deleted")
	}
	return affected > 0, nil
}

// Count returns the number of saved portfolios.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM portfolios").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count portfolios: %w", err)
	}
	return count, nil
}
