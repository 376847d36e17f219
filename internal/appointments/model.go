package appointments

import (
	"time"

	"github.com/wolfman30/salestracker/internal/notify"
	"github.com/wolfman30/salestracker/internal/visits"
)

// ReminderLead is how long before the appointment the reminder fires.
const ReminderLead = 24 * time.Hour

// DefaultDuration is used when no end time is given.
const DefaultDuration = 60

// Statut is the lifecycle of an appointment.
type Statut string

const (
	StatutPlanifie Statut = "planifie"
	StatutConfirme Statut = "confirme"
	StatutTermine  Statut = "termine"
	StatutAnnule   Statut = "annule"
	StatutReporte  Statut = "reporte"
)

// Priorite ranks an appointment.
type Priorite string

const (
	PrioriteBasse   Priorite = "basse"
	PrioriteNormale Priorite = "normale"
	PrioriteHaute   Priorite = "haute"
	PrioriteUrgente Priorite = "urgente"
)

// Appointment is a row of the rendez_vous table.
type Appointment struct {
	ID              string     `json:"id"`
	CommercialID    string     `json:"commercial_id"`
	Entreprise      string     `json:"entreprise"`
	PersonneContact *string    `json:"personne_contact"`
	Telephone       *string    `json:"telephone"`
	Email           *string    `json:"email"`
	Ville           *string    `json:"ville"`
	Zone            *string    `json:"zone"`
	Adresse         *string    `json:"adresse"`
	DateRDV         time.Time  `json:"date_rdv"`
	DureeEstimee    int        `json:"duree_estimee"`
	Objet           *string    `json:"objet"`
	Description     *string    `json:"description"`
	Statut          Statut     `json:"statut"`
	Priorite        Priorite   `json:"priorite"`
	RappelEnvoye    bool       `json:"rappel_envoye"`
	RappelDate      *time.Time `json:"rappel_date"`
	CompteRendu     *string    `json:"compte_rendu"`
	VisiteID        *string    `json:"visite_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ReminderAt returns the instant the reminder for an appointment at
// scheduled becomes due.
func ReminderAt(scheduled time.Time) time.Time {
	return scheduled.Add(-ReminderLead)
}

// Duration returns the minutes between two HH:MM clock values. Without a
// usable end time it returns DefaultDuration.
func Duration(start, end string) int {
	if end == "" {
		return DefaultDuration
	}
	s, err := time.Parse("15:04", start)
	if err != nil {
		return DefaultDuration
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return DefaultDuration
	}
	minutes := int(e.Sub(s).Minutes())
	if minutes <= 0 {
		return DefaultDuration
	}
	return minutes
}

// Details flattens the row for the notification renderer, expressing the
// schedule in loc.
func (a *Appointment) Details(loc *time.Location) notify.AppointmentDetails {
	if loc == nil {
		loc = time.UTC
	}
	start := a.DateRDV.In(loc)
	d := notify.AppointmentDetails{
		Entreprise:      a.Entreprise,
		PersonneContact: deref(a.PersonneContact),
		Telephone:       deref(a.Telephone),
		Email:           deref(a.Email),
		Date:            start.Format(time.DateOnly),
		HeureDebut:      start.Format("15:04"),
		Lieu:            deref(a.Adresse),
		Objet:           deref(a.Objet),
		Description:     deref(a.Description),
		Statut:          string(a.Statut),
		Priorite:        string(a.Priorite),
	}
	if a.DureeEstimee > 0 {
		d.HeureFin = start.Add(time.Duration(a.DureeEstimee) * time.Minute).Format("15:04")
	}
	return d
}

// Window is the inclusive range of reminder instants a sweep selects.
type Window struct {
	From time.Time
	To   time.Time
}

// DueWindow returns [now-trailing, now].
func DueWindow(now time.Time, trailing time.Duration) Window {
	return Window{From: now.Add(-trailing), To: now}
}

// contains reports whether t falls inside the window, bounds included. It
// mirrors the ListDue predicate.
func (w Window) contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Filter narrows GET /appointments. Empty fields are not applied.
type Filter struct {
	CommercialID string
	VisiteID     string
	Statut       string
	From         string
	To           string
}

// SweepResult is the tally of one reminder sweep.
type SweepResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// linkedVisit maps a visit onto the email's visit panel.
func linkedVisit(v *visits.Visit) *notify.LinkedVisit {
	if v == nil {
		return nil
	}
	phone := deref(v.TelFixe)
	if phone == "" {
		phone = deref(v.Mobile)
	}
	return &notify.LinkedVisit{
		Entreprise:         v.Entreprise,
		DateVisite:         v.DateVisite,
		PersonneRencontree: v.PersonneRencontree,
		Ville:              deref(v.Ville),
		Zone:               deref(v.Zone),
		Adresse:            deref(v.Adresse),
		Telephone:          phone,
		Email:              deref(v.Email),
		ObjetVisite:        v.ObjetVisite,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
