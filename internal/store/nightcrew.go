package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lox/runsafetonight/internal/models"
)

// NormalizeEmail lowercases and trims an address so duplicates collapse.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddNightCrewMember stores a signup. Signing up twice with the same email
// is not an error; created reports whether a new row was written.
func (s *Store) AddNightCrewMember(ctx context.Context, m models.NightCrewMember) (created bool, err error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Source == "" {
		m.Source = "web"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO nightcrew_members (id, email, city, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING
	`, m.ID, NormalizeEmail(m.Email), m.City, m.Source, m.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert nightcrew member: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		s.logger.Debug("duplicate nightcrew signup", "source", m.Source)
	}
	return n > 0, nil
}

func (s *Store) GetNightCrewMember(ctx context.Context, email string) (*models.NightCrewMember, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, city, source, created_at
		FROM nightcrew_members
		WHERE email = ?
	`, NormalizeEmail(email))

	var m models.NightCrewMember
	err := row.Scan(&m.ID, &m.Email, &m.City, &m.Source, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CountNightCrewMembers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nightcrew_members").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
