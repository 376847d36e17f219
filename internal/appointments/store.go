package appointments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists appointments.
type Store interface {
	Create(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f Filter) ([]*Appointment, error)
	ListDue(ctx context.Context, w Window) ([]*Appointment, error)
	MarkReminded(ctx context.Context, ids []string) (int64, error)
}

const appointmentColumns = `id, commercial_id, entreprise, personne_contact, telephone, email, ville, zone, adresse,
	date_rdv, duree_estimee, objet, description, statut, priorite, rappel_envoye, rappel_date,
	compte_rendu, visite_id, created_at, updated_at`

// PostgresStore implements Store over pgx.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store on the given pool.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a, assigning its id and timestamps. The reminder flag
// always starts false.
func (s *PostgresStore) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.RappelEnvoye = false

	_, err := s.db.Exec(ctx, `
		INSERT INTO rendez_vous (id, commercial_id, entreprise, personne_contact, telephone, email, ville, zone, adresse,
			date_rdv, duree_estimee, objet, description, statut, priorite, rappel_envoye, rappel_date,
			compte_rendu, visite_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		a.ID, a.CommercialID, a.Entreprise, a.PersonneContact, a.Telephone, a.Email, a.Ville, a.Zone, a.Adresse,
		a.DateRDV, a.DureeEstimee, a.Objet, a.Description, string(a.Statut), string(a.Priorite), a.RappelEnvoye, a.RappelDate,
		a.CompteRendu, a.VisiteID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: create: %w", err)
	}
	return nil
}

// List returns the appointments matching f, earliest first.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*Appointment, error) {
	where, args := f.where()
	rows, err := s.db.Query(ctx, `SELECT `+appointmentColumns+` FROM rendez_vous`+where+` ORDER BY date_rdv ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	out, err := scanAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return out, nil
}

// ListDue returns unsent reminders whose rappel_date falls inside w.
func (s *PostgresStore) ListDue(ctx context.Context, w Window) ([]*Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM rendez_vous
		WHERE rappel_envoye = false
			AND rappel_date IS NOT NULL
			AND rappel_date <= $1
			AND rappel_date >= $2
		ORDER BY rappel_date ASC`, w.To, w.From)
	if err != nil {
		return nil, fmt.Errorf("appointments: list due: %w", err)
	}
	defer rows.Close()

	out, err := scanAppointments(rows)
	if err != nil {
		return nil, fmt.Errorf("appointments: list due: %w", err)
	}
	return out, nil
}

// MarkReminded flips rappel_envoye for ids in one statement and returns the
// number of rows changed. Rows already marked are left alone.
func (s *PostgresStore) MarkReminded(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE rendez_vous SET rappel_envoye = true, updated_at = $2
		WHERE id = ANY($1::uuid[]) AND rappel_envoye = false`, ids, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("appointments: mark reminded: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.CommercialID != "" {
		add("commercial_id = ?", f.CommercialID)
	}
	if f.VisiteID != "" {
		add("visite_id = ?", f.VisiteID)
	}
	if f.Statut != "" {
		add("statut = ?", f.Statut)
	}
	if f.From != "" {
		add("date_rdv >= ?::date", f.From)
	}
	if f.To != "" {
		add("date_rdv < ?::date + 1", f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	out := []*Appointment{}
	for rows.Next() {
		var (
			a        Appointment
			statut   string
			priorite string
		)
		if err := rows.Scan(
			&a.ID, &a.CommercialID, &a.Entreprise, &a.PersonneContact, &a.Telephone, &a.Email, &a.Ville, &a.Zone, &a.Adresse,
			&a.DateRDV, &a.DureeEstimee, &a.Objet, &a.Description, &statut, &priorite, &a.RappelEnvoye, &a.RappelDate,
			&a.CompteRendu, &a.VisiteID, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Statut = Statut(statut)
		a.Priorite = Priorite(priorite)
		out = append(out, &a)
	}
	return out, rows.Err()
}
