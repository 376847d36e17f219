package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/wolfman30/salestracker/internal/identity"
)

const profileColumns = `id, email, nom, prenom, role, telephone, created_at, updated_at`

// SQLStore reads profiles from Postgres through database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a store backed by db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// RoleOf returns the stored role of userID, or "" when the user has no profile.
func (s *SQLStore) RoleOf(ctx context.Context, userID string) (identity.Role, error) {
	var role sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("profiles: role of %s: %w", userID, err)
	}
	return identity.ParseRole(role.String), nil
}

// Get loads one profile.
func (s *SQLStore) Get(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profiles: get: %w", err)
	}
	return p, nil
}

// ListByIDs loads every profile whose id is in ids. Unknown ids are skipped.
func (s *SQLStore) ListByIDs(ctx context.Context, ids []string) (map[string]Profile, error) {
	out := make(map[string]Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("profiles: list by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("profiles: scan: %w", err)
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: list by ids: %w", err)
	}
	return out, nil
}

// ListTeam returns every profile ordered by last name with its visit count.
func (s *SQLStore) ListTeam(ctx context.Context) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.email, p.nom, p.prenom, p.role, p.telephone, p.created_at, p.updated_at,
		       COUNT(v.id) AS total_visites
		FROM profiles p
		LEFT JOIN visites v ON v.commercial_id = p.id
		GROUP BY p.id
		ORDER BY p.nom ASC`)
	if err != nil {
		return nil, fmt.Errorf("profiles: list team: %w", err)
	}
	defer rows.Close()

	team := []TeamMember{}
	for rows.Next() {
		var (
			m         TeamMember
			role      sql.NullString
			telephone sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Email, &m.Nom, &m.Prenom, &role, &telephone, &m.CreatedAt, &m.UpdatedAt, &m.TotalVisites); err != nil {
			return nil, fmt.Errorf("profiles: scan team: %w", err)
		}
		m.Role = identity.ParseRole(role.String)
		if telephone.Valid {
			m.Telephone = &telephone.String
		}
		team = append(team, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profiles: list team: %w", err)
	}
	return team, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var (
		p         Profile
		role      sql.NullString
		telephone sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Email, &p.Nom, &p.Prenom, &role, &telephone, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = identity.ParseRole(role.String)
	if telephone.Valid {
		p.Telephone = &telephone.String
	}
	return &p, nil
}
