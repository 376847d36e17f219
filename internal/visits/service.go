package visits

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/internal/profiles"
	"github.com/wolfman30/salestracker/internal/validation"
	"github.com/wolfman30/salestracker/internal/visibility"
	"github.com/wolfman30/salestracker/pkg/logging"
)

var visitsTracer = otel.Tracer("salestracker.internal.visits")

// ProfileLookup resolves many profiles in one round trip.
type ProfileLookup interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]profiles.Profile, error)
}

// Service is the visit repository facade used by the HTTP layer.
type Service struct {
	store     Store
	profiles  ProfileLookup
	validator *validation.Validator
	logger    *logging.Logger
	now       func() time.Time
}

// NewService wires the facade.
func NewService(store Store, lookup ProfileLookup, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     store,
		profiles:  lookup,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the form and stores a visit owned by the caller.
func (s *Service) Create(ctx context.Context, caller identity.User, form FormData) (string, error) {
	if err := s.validator.Struct(form); err != nil {
		s.logger.Debug("visit form rejected", "fields", validation.FailedFields(err))
		return "", fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	v := form.ToVisit(caller.ID)
	if err := s.store.Create(ctx, v); err != nil {
		return "", err
	}
	return v.ID, nil
}

// List returns a filtered, paginated, name-annotated and redacted page.
func (s *Service) List(ctx context.Context, caller identity.User, p ListParams) (*Page, error) {
	ctx, span := visitsTracer.Start(ctx, "visits.list")
	defer span.End()
	span.SetAttributes(
		attribute.String("salestracker.caller_role", string(caller.Role)),
		attribute.Int("salestracker.page", p.Page),
		attribute.Int("salestracker.page_size", p.PageSize),
	)

	p = p.clamped()
	f := Filter{
		StatutVisite: p.StatutVisite,
		StatutAction: p.StatutAction,
		Search:       p.Search,
		From:         p.From,
		To:           p.To,
	}
	if p.CommercialID != "" && caller.Role.Elevated() {
		f.CommercialID = p.CommercialID
	}

	rows, total, err := s.store.List(ctx, f, p.PageSize, p.Offset())
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.annotateNames(ctx, caller, rows)
	visibility.ApplyAll(caller, rows)

	span.SetAttributes(attribute.Int("salestracker.total", total))
	return &Page{
		Data:       rows,
		Pagination: Pagination{Page: p.Page, PageSize: p.PageSize, Total: total},
	}, nil
}

// annotateNames sets CommercialName on every row. The caller's own name comes
// from their session; others come from one batch profile lookup. A failed or
// partial lookup leaves those names nil.
func (s *Service) annotateNames(ctx context.Context, caller identity.User, rows []*Visit) {
	ownName := caller.DisplayName()

	var others []string
	seen := map[string]bool{}
	for _, v := range rows {
		if v.CommercialID == caller.ID || v.CommercialID == "" || seen[v.CommercialID] {
			continue
		}
		seen[v.CommercialID] = true
		others = append(others, v.CommercialID)
	}

	names := map[string]string{}
	if len(others) > 0 && s.profiles != nil {
		found, err := s.profiles.ListByIDs(ctx, others)
		if err != nil {
			s.logger.Warn("visit name lookup failed", "ids", len(others), "error", err)
		}
		for id, p := range found {
			if name := p.DisplayName(); name != "" {
				names[id] = name
			}
		}
	}

	for _, v := range rows {
		if v.CommercialID == caller.ID {
			if ownName != "" {
				name := ownName
				v.CommercialName = &name
			}
			continue
		}
		if name, ok := names[v.CommercialID]; ok {
			v.CommercialName = &name
		}
	}
}

// Stats computes the caller's own KPIs within an optional date range.
func (s *Service) Stats(ctx context.Context, caller identity.User, from, to string) (Stats, error) {
	rows, err := s.store.ListOwnStats(ctx, caller.ID, from, to)
	if err != nil {
		return Stats{}, err
	}
	return computeStats(rows), nil
}

func computeStats(rows []*Visit) Stats {
	var (
		st      Stats
		sumProb int
		nProb   int
	)
	for _, v := range rows {
		st.TotalVisites++
		switch v.StatutVisite {
		case StatutAFaire:
			st.VisitesAFaire++
		case StatutEnCours:
			st.VisitesEnCours++
		case StatutTermine:
			st.VisitesTerminees++
		}
		switch v.StatutAction {
		case ActionAccepte:
			st.VisitesAcceptees++
		case ActionRefuse:
			st.VisitesRefusees++
		}
		if v.Montant != nil {
			st.MontantTotal += *v.Montant
		}
		if v.Probabilite != nil {
			sumProb += *v.Probabilite
			nProb++
		}
	}
	if nProb > 0 {
		st.ProbabiliteMoyenne = math.Round(float64(sumProb)/float64(nProb)*10) / 10
	}
	return st
}

// CheckDuplicate reports the caller's latest visit to the named company.
func (s *Service) CheckDuplicate(ctx context.Context, caller identity.User, entreprise string) (DuplicateCheck, error) {
	entreprise = strings.TrimSpace(entreprise)
	if entreprise == "" {
		return DuplicateCheck{}, fmt.Errorf("%w: entreprise required", ErrInvalidForm)
	}
	last, err := s.store.LatestByCompany(ctx, caller.ID, entreprise)
	if err != nil {
		return DuplicateCheck{}, err
	}
	if last == nil {
		return DuplicateCheck{}, nil
	}

	out := DuplicateCheck{Existe: true, DerniereVisiteID: &last.ID}
	if name := strings.TrimSpace(strings.TrimSpace(caller.LastName) + " " + strings.TrimSpace(caller.FirstName)); name != "" {
		out.CommercialNom = &name
	}

	lastDate := last.DateVisite
	when, err := time.Parse(time.DateOnly, lastDate)
	if err != nil && !last.CreatedAt.IsZero() {
		when, err = last.CreatedAt, nil
		lastDate = last.CreatedAt.Format(time.RFC3339)
	}
	if lastDate != "" {
		out.DerniereDate = &lastDate
	}
	if err == nil {
		days := int(math.Floor(s.now().Sub(when).Hours() / 24))
		out.JoursDepuisVisite = &days
	}
	return out, nil
}

// UpdateStatus changes a visit's statuses. Only the owner or an admin may.
func (s *Service) UpdateStatus(ctx context.Context, caller identity.User, id string, u StatusUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, caller, id); err != nil {
		return err
	}
	return s.store.UpdateStatus(ctx, id, u)
}

// Delete removes a visit. Only the owner or an admin may.
func (s *Service) Delete(ctx context.Context, caller identity.User, id string) error {
	if err := s.authorizeWrite(ctx, caller, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) authorizeWrite(ctx context.Context, caller identity.User, id string) error {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.CommercialID != caller.ID && !caller.Role.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// ExportScope selects the visits a caller may export. consultantID is the
// optional `consultant_id` query value ("all" for everything a consultant
// may see).
func ExportScope(caller identity.User, consultantID string) (Filter, error) {
	consultantID = strings.TrimSpace(consultantID)
	switch {
	case caller.Role == identity.RoleCommercial:
		return Filter{CommercialID: caller.ID}, nil
	case caller.Role == identity.RoleConsultant:
		switch consultantID {
		case "all":
			return Filter{}, nil
		case "":
			return Filter{CreatedBy: caller.ID}, nil
		default:
			return Filter{CreatedBy: consultantID}, nil
		}
	case caller.Role.IsAdmin():
		if consultantID != "" && consultantID != "all" {
			return Filter{CommercialID: consultantID}, nil
		}
		return Filter{}, nil
	}
	return Filter{}, identity.ErrForbidden
}

// ListForExport returns the caller's export set with names resolved. The
// sensitive fields follow the same visibility rule as List.
func (s *Service) ListForExport(ctx context.Context, caller identity.User, consultantID string) ([]*Visit, error) {
	f, err := ExportScope(caller, consultantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListForExport(ctx, f)
	if err != nil {
		return nil, err
	}
	s.annotateNames(ctx, caller, rows)
	visibility.ApplyAll(caller, rows)
	return rows, nil
}

func recordError(span trace.Span, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
