package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/salestracker/internal/notify"
)

// FormData is the payload of POST /appointments.
type FormData struct {
	Entreprise      string   `json:"entreprise" validate:"required"`
	PersonneContact string   `json:"personne_contact"`
	TelContact      string   `json:"tel_contact"`
	EmailContact    string   `json:"email_contact" validate:"omitempty,email"`
	DateRDV         string   `json:"date_rdv" validate:"required,date"`
	HeureDebut      string   `json:"heure_debut" validate:"required,clock"`
	HeureFin        string   `json:"heure_fin" validate:"omitempty,clock"`
	Lieu            string   `json:"lieu"`
	Objet           string   `json:"objet"`
	Description     string   `json:"description"`
	StatutRDV       Statut   `json:"statut_rdv" validate:"omitempty,oneof=planifie confirme termine annule reporte"`
	Priorite        Priorite `json:"priorite" validate:"omitempty,oneof=basse normale haute urgente"`
	// RappelAvant is accepted for compatibility with older clients. The
	// reminder is always ReminderLead before the appointment.
	RappelAvant *int   `json:"rappel_avant"`
	VisiteID    string `json:"visite_id" validate:"omitempty,uuid"`
}

// Scheduled combines date_rdv and heure_debut in loc.
func (f FormData) Scheduled(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", f.DateRDV+" "+f.HeureDebut, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	return t, nil
}

// ToAppointment builds the row to insert for ownerID.
func (f FormData) ToAppointment(ownerID string, scheduled time.Time) *Appointment {
	statut := f.StatutRDV
	if statut == "" {
		statut = StatutPlanifie
	}
	priorite := f.Priorite
	if priorite == "" {
		priorite = PrioriteNormale
	}
	reminder := ReminderAt(scheduled).UTC()
	return &Appointment{
		CommercialID:    ownerID,
		Entreprise:      strings.TrimSpace(f.Entreprise),
		PersonneContact: nullable(f.PersonneContact),
		Telephone:       nullable(f.TelContact),
		Email:           nullable(f.EmailContact),
		Adresse:         nullable(f.Lieu),
		DateRDV:         scheduled.UTC(),
		DureeEstimee:    Duration(f.HeureDebut, f.HeureFin),
		Objet:           nullable(f.Objet),
		Description:     nullable(f.Description),
		Statut:          statut,
		Priorite:        priorite,
		RappelDate:      &reminder,
		VisiteID:        nullable(f.VisiteID),
	}
}

// details is the creation email view of the form, which keeps the
// submitted end time.
func (f FormData) details() notify.AppointmentDetails {
	return notify.AppointmentDetails{
		Entreprise:      f.Entreprise,
		PersonneContact: f.PersonneContact,
		Telephone:       f.TelContact,
		Email:           f.EmailContact,
		Date:            f.DateRDV,
		HeureDebut:      f.HeureDebut,
		HeureFin:        f.HeureFin,
		Lieu:            f.Lieu,
		Objet:           f.Objet,
		Description:     f.Description,
		Statut:          string(f.StatutRDV),
		Priorite:        string(f.Priorite),
	}
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
