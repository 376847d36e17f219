package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/salestracker/internal/identity"
	"github.com/wolfman30/salestracker/internal/notify"
	"github.com/wolfman30/salestracker/internal/observability/metrics"
	"github.com/wolfman30/salestracker/internal/profiles"
	"github.com/wolfman30/salestracker/internal/validation"
	"github.com/wolfman30/salestracker/internal/visits"
	"github.com/wolfman30/salestracker/pkg/logging"
)

var appointmentsTracer = otel.Tracer("salestracker.internal.appointments")

// VisitLookup reads the visits appointments link to.
type VisitLookup interface {
	Get(ctx context.Context, id string) (*visits.Visit, error)
	GetMany(ctx context.Context, ids []string) (map[string]*visits.Visit, error)
}

// ProfileLookup resolves owners' display names in one round trip.
type ProfileLookup interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]profiles.Profile, error)
}

// Notifier delivers appointment emails.
type Notifier interface {
	Notify(ctx context.Context, e notify.AppointmentEmail) error
}

// Service creates and lists appointments.
type Service struct {
	store     Store
	visits    VisitLookup
	notifier  Notifier
	metrics   *metrics.ReminderMetrics
	validator *validation.Validator
	loc       *time.Location
	logger    *logging.Logger
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLocation sets the zone appointment date+time are entered in.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMetrics records creation notification outcomes.
func WithMetrics(m *metrics.ReminderMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService wires the appointment service.
func NewService(store Store, visitLookup VisitLookup, notifier Notifier, logger *logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:     store,
		visits:    visitLookup,
		notifier:  notifier,
		validator: validation.New(),
		loc:       time.UTC,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores an appointment and sends the creation email. The owner is
// the commercial of the linked visit when there is one, else the caller.
// A failed email never fails the creation.
func (s *Service) Create(ctx context.Context, caller identity.User, form FormData) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()

	if err := s.validator.Struct(form); err != nil {
		s.logger.Debug("appointment form rejected", "fields", validation.FailedFields(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	scheduled, err := form.Scheduled(s.loc)
	if err != nil {
		return nil, err
	}

	owner := caller.ID
	var visit *visits.Visit
	if form.VisiteID != "" && s.visits != nil {
		visit, err = s.visits.Get(ctx, form.VisiteID)
		if err != nil {
			s.logger.Warn("linked visit lookup failed", "visite_id", form.VisiteID, "error", err)
			visit = nil
		}
		if visit != nil && visit.CommercialID != "" {
			owner = visit.CommercialID
		}
	}

	a := form.ToAppointment(owner, scheduled)
	if err := s.store.Create(ctx, a); err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("salestracker.appointment_id", a.ID),
		attribute.Bool("salestracker.linked_visit", visit != nil),
	)

	email := notify.AppointmentEmail{
		Appointment: form.details(),
		Visit:       linkedVisit(visit),
		CreatorName: caller.DisplayName(),
		Mode:        notify.ModeCreation,
		GeneratedAt: s.now(),
	}
	if s.notifier != nil {
		err := s.notifier.Notify(ctx, email)
		s.metrics.ObserveNotification(string(notify.ModeCreation), err)
		if err != nil {
			s.logger.Error("appointment creation email failed", "appointment_id", a.ID, "error", err)
			span.RecordError(err)
		}
	}
	return a, nil
}

// List returns appointments matching f. Commercials only see their own.
func (s *Service) List(ctx context.Context, caller identity.User, f Filter) ([]*Appointment, error) {
	f.CommercialID = ""
	if !caller.Role.Elevated() {
		f.CommercialID = caller.ID
	}
	return s.store.List(ctx, f)
}

func recordError(span trace.Span, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
