package appointments

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salestracker/internal/notify"
	"github.com/wolfman30/salestracker/internal/observability/metrics"
	"github.com/wolfman30/salestracker/internal/profiles"
	"github.com/wolfman30/salestracker/internal/visits"
	"github.com/wolfman30/salestracker/pkg/logging"
)

// DefaultWindow is how far back a sweep looks for due reminders.
const DefaultWindow = 60 * time.Minute

// Sweeper sends the reminders that became due in the trailing window.
//
// Reminders are marked only after their email went out, in one batch at the
// end of the sweep. A crash between the send and the mark resends on the
// next sweep; a reminder older than the window is never picked up again.
type Sweeper struct {
	store    Store
	visits   VisitLookup
	profiles ProfileLookup
	notifier Notifier
	metrics  *metrics.ReminderMetrics
	window   time.Duration
	loc      *time.Location
	logger   *logging.Logger
}

// SweeperConfig holds the sweep tunables.
type SweeperConfig struct {
	Window   time.Duration
	Location *time.Location
}

// NewSweeper wires a reminder sweeper.
func NewSweeper(store Store, visitLookup VisitLookup, profileLookup ProfileLookup, notifier Notifier, m *metrics.ReminderMetrics, cfg SweeperConfig, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Sweeper{
		store:    store,
		visits:   visitLookup,
		profiles: profileLookup,
		notifier: notifier,
		metrics:  m,
		window:   cfg.Window,
		loc:      cfg.Location,
		logger:   logger,
	}
}

// Sweep selects due reminders as of now, emails each one independently and
// marks the successful ones. Only a failed selection returns an error.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.sweep")
	defer span.End()
	started := time.Now()

	w := DueWindow(now, s.window)
	due, err := s.store.ListDue(ctx, w)
	if err != nil {
		recordError(span, err)
		s.metrics.ObserveSweep("error", 0, 0, time.Since(started).Seconds())
		return SweepResult{}, fmt.Errorf("appointments: sweep: %w", err)
	}

	res := SweepResult{Processed: len(due)}
	span.SetAttributes(attribute.Int("salestracker.due", len(due)))
	if len(due) == 0 {
		s.metrics.ObserveSweep("empty", 0, 0, time.Since(started).Seconds())
		return res, nil
	}

	s.logger.Info("reminder sweep: processing due appointments", "count", len(due))
	visitsByID := s.loadVisits(ctx, due)
	profilesByID := s.loadProfiles(ctx, due)

	sent := make([]string, 0, len(due))
	for _, a := range due {
		if err := s.remind(ctx, a, visitsByID, profilesByID, now); err != nil {
			s.logger.Error("reminder sweep: failed to send reminder", "appointment_id", a.ID, "error", err)
			res.Failed++
			continue
		}
		sent = append(sent, a.ID)
	}
	res.Sent = len(sent)

	if len(sent) > 0 {
		if _, err := s.store.MarkReminded(ctx, sent); err != nil {
			s.logger.Error("reminder sweep: failed to mark reminders sent", "count", len(sent), "error", err)
			span.RecordError(err)
		}
	}

	span.SetAttributes(
		attribute.Int("salestracker.sent", res.Sent),
		attribute.Int("salestracker.failed", res.Failed),
	)
	s.metrics.ObserveSweep("ok", res.Sent, res.Failed, time.Since(started).Seconds())
	s.logger.Info("reminder sweep: done", "processed", res.Processed, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func (s *Sweeper) remind(ctx context.Context, a *Appointment, visitsByID map[string]*visits.Visit, profilesByID map[string]profiles.Profile, now time.Time) error {
	email := notify.AppointmentEmail{
		Appointment: a.Details(s.loc),
		Mode:        notify.ModeReminder,
		GeneratedAt: now,
	}
	if a.VisiteID != nil {
		email.Visit = linkedVisit(visitsByID[*a.VisiteID])
	}
	if p, ok := profilesByID[a.CommercialID]; ok {
		email.CreatorName = p.DisplayName()
	}
	if s.notifier == nil {
		return nil
	}
	err := s.notifier.Notify(ctx, email)
	s.metrics.ObserveNotification(string(notify.ModeReminder), err)
	return err
}

func (s *Sweeper) loadVisits(ctx context.Context, due []*Appointment) map[string]*visits.Visit {
	var ids []string
	seen := make(map[string]struct{})
	for _, a := range due {
		if a.VisiteID == nil || *a.VisiteID == "" {
			continue
		}
		if _, ok := seen[*a.VisiteID]; ok {
			continue
		}
		seen[*a.VisiteID] = struct{}{}
		ids = append(ids, *a.VisiteID)
	}
	if len(ids) == 0 || s.visits == nil {
		return nil
	}
	out, err := s.visits.GetMany(ctx, ids)
	if err != nil {
		s.logger.Error("reminder sweep: visit lookup failed", "count", len(ids), "error", err)
		return nil
	}
	return out
}

func (s *Sweeper) loadProfiles(ctx context.Context, due []*Appointment) map[string]profiles.Profile {
	var ids []string
	seen := make(map[string]struct{})
	for _, a := range due {
		if a.CommercialID == "" {
			continue
		}
		if _, ok := seen[a.CommercialID]; ok {
			continue
		}
		seen[a.CommercialID] = struct{}{}
		ids = append(ids, a.CommercialID)
	}
	if len(ids) == 0 || s.profiles == nil {
		return nil
	}
	out, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("reminder sweep: profile lookup failed", "count", len(ids), "error", err)
		return nil
	}
	return out
}
