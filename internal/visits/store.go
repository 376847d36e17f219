package visits

import (
	"context"
	"errors"
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

// Filter is the store-level selection. Empty fields are not applied.
type Filter struct {
	CommercialID string
	CreatedBy    string
	StatutVisite string
	StatutAction string
	Search       string
	From         string
	To           string
}

// Store persists visits.
type Store interface {
	Create(ctx context.Context, v *Visit) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error)
	Get(ctx context.Context, id string) (*Visit, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Visit, error)
	UpdateStatus(ctx context.Context, id string, u StatusUpdate) error
	Delete(ctx context.Context, id string) error
	ListOwnStats(ctx context.Context, commercialID, from, to string) ([]*Visit, error)
	LatestByCompany(ctx context.Context, commercialID, entreprise string) (*Visit, error)
	ListForExport(ctx context.Context, f Filter) ([]*Visit, error)
}

const visitColumns = `id, commercial_id, entreprise, personne_rencontree, fonction_poste, ville, zone, adresse,
	tel_fixe, mobile, email, date_visite::text, objet_visite, provenance_contact, interet_client,
	actions_a_entreprendre, montant, date_prochaine_action::text, remarques, probabilite,
	statut_visite, statut_action, created_by, created_at, updated_at`

// PostgresStore implements Store over pgx.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store on the given pool.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts v, assigning its id and timestamps.
func (s *PostgresStore) Create(ctx context.Context, v *Visit) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.db.Exec(ctx, `
		INSERT INTO visites (id, commercial_id, entreprise, personne_rencontree, fonction_poste, ville, zone, adresse,
			tel_fixe, mobile, email, date_visite, objet_visite, provenance_contact, interet_client,
			actions_a_entreprendre, montant, date_prochaine_action, remarques, probabilite,
			statut_visite, statut_action, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::date, $13, $14, $15, $16, $17, $18::date, $19, $20, $21, $22, $23, $24, $25)`,
		v.ID, v.CommercialID, v.Entreprise, v.PersonneRencontree, v.FonctionPoste, v.Ville, v.Zone, v.Adresse,
		v.TelFixe, v.Mobile, v.Email, v.DateVisite, v.ObjetVisite, v.ProvenanceContact, v.InteretClient,
		v.ActionsAEntreprendre, v.Montant, v.DateProchaineAction, v.Remarques, v.Probabilite,
		string(v.StatutVisite), string(v.StatutAction), v.CreatedBy, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("visits: create: %w", err)
	}
	return nil
}

// List returns one page of visits ordered by visit date (newest first) and
// the exact number of rows matching f.
func (s *PostgresStore) List(ctx context.Context, f Filter, limit, offset int) ([]*Visit, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM visites`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("visits: count: %w", err)
	}

	argNum := len(args) + 1
	query := `SELECT ` + visitColumns + ` FROM visites` + where +
		` ORDER BY date_visite DESC, created_at ASC LIMIT $` + strconv.Itoa(argNum) + ` OFFSET $` + strconv.Itoa(argNum+1)
	rows, err := s.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("visits: list: %w", err)
	}
	defer rows.Close()

	out, err := scanVisits(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("visits: list: %w", err)
	}
	return out, total, nil
}

// Get loads a single visit.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Visit, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+visitColumns+` FROM visites WHERE id = $1`, id)
	v, err := scanVisit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("visits: get: %w", err)
	}
	return v, nil
}

// GetMany loads the visits with the given ids keyed by id.
func (s *PostgresStore) GetMany(ctx context.Context, ids []string) (map[string]*Visit, error) {
	out := make(map[string]*Visit, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx, `SELECT `+visitColumns+` FROM visites WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("visits: get many: %w", err)
	}
	defer rows.Close()

	list, err := scanVisits(rows)
	if err != nil {
		return nil, fmt.Errorf("visits: get many: %w", err)
	}
	for _, v := range list {
		out[v.ID] = v
	}
	return out, nil
}

// UpdateStatus applies the non-nil fields of u.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, u StatusUpdate) error {
	if !validID(id) {
		return ErrNotFound
	}
	var visite, action *string
	if u.StatutVisite != nil {
		sv := string(*u.StatutVisite)
		visite = &sv
	}
	if u.StatutAction != nil {
		sa := string(*u.StatutAction)
		action = &sa
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE visites
		SET statut_visite = COALESCE($1, statut_visite),
		    statut_action = COALESCE($2, statut_action),
		    updated_at = $3
		WHERE id = $4`, visite, action, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("visits: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// validID reports whether id can match the uuid primary key. Anything else
// would be rejected by Postgres with a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Delete removes a visit.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM visites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("visits: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOwnStats returns the commercial's visits within the optional date range.
func (s *PostgresStore) ListOwnStats(ctx context.Context, commercialID, from, to string) ([]*Visit, error) {
	where, args := Filter{CommercialID: commercialID, From: from, To: to}.where()
	rows, err := s.db.Query(ctx, `SELECT `+visitColumns+` FROM visites`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("visits: stats: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

// LatestByCompany returns the commercial's most recent visit to a company
// whose name matches case-insensitively, or nil.
func (s *PostgresStore) LatestByCompany(ctx context.Context, commercialID, entreprise string) (*Visit, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+visitColumns+` FROM visites
		WHERE commercial_id = $1 AND entreprise ILIKE $2
		ORDER BY date_visite DESC LIMIT 1`, commercialID, escapeLike(entreprise))
	v, err := scanVisit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("visits: latest by company: %w", err)
	}
	return v, nil
}

// ListForExport returns every visit matching f, newest first.
func (s *PostgresStore) ListForExport(ctx context.Context, f Filter) ([]*Visit, error) {
	where, args := f.where()
	rows, err := s.db.Query(ctx, `SELECT `+visitColumns+` FROM visites`+where+` ORDER BY date_visite DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("visits: export: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
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
	if f.CreatedBy != "" {
		add("created_by = ?", f.CreatedBy)
	}
	if f.StatutVisite != "" {
		add("statut_visite = ?", f.StatutVisite)
	}
	if f.StatutAction != "" {
		add("statut_action = ?", f.StatutAction)
	}
	if f.From != "" {
		add("date_visite >= ?::date", f.From)
	}
	if f.To != "" {
		add("date_visite <= ?::date", f.To)
	}
	if f.Search != "" {
		add("(entreprise ILIKE ? OR personne_rencontree ILIKE ?)", "%"+escapeLike(f.Search)+"%")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanVisits(rows pgx.Rows) ([]*Visit, error) {
	out := []*Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var (
		v      Visit
		visite string
		action string
	)
	err := row.Scan(
		&v.ID, &v.CommercialID, &v.Entreprise, &v.PersonneRencontree, &v.FonctionPoste, &v.Ville, &v.Zone, &v.Adresse,
		&v.TelFixe, &v.Mobile, &v.Email, &v.DateVisite, &v.ObjetVisite, &v.ProvenanceContact, &v.InteretClient,
		&v.ActionsAEntreprendre, &v.Montant, &v.DateProchaineAction, &v.Remarques, &v.Probabilite,
		&visite, &action, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.StatutVisite = StatutVisite(visite)
	v.StatutAction = StatutAction(action)
	return &v, nil
}
