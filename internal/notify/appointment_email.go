package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"
)

// Mode selects the wording of an appointment email.
type Mode string

const (
	ModeCreation Mode = "creation"
	ModeReminder Mode = "reminder"
)

// Subject prefix for the mode.
func (m Mode) title() string {
	if m == ModeReminder {
		return "Rappel de rendez-vous"
	}
	return "Nouveau rendez-vous planifié"
}

// AppointmentDetails is the appointment side of the email. Every field is
// optional.
type AppointmentDetails struct {
	Entreprise      string
	PersonneContact string
	Telephone       string
	Email           string
	Date            string
	HeureDebut      string
	HeureFin        string
	Lieu            string
	Objet           string
	Description     string
	Statut          string
	Priorite        string
}

// LinkedVisit is the visit an appointment follows up on.
type LinkedVisit struct {
	Entreprise         string
	DateVisite         string
	PersonneRencontree string
	Ville              string
	Zone               string
	Adresse            string
	Telephone          string
	Email              string
	ObjetVisite        string
}

// AppointmentEmail is everything RenderAppointment needs.
type AppointmentEmail struct {
	Appointment AppointmentDetails
	Visit       *LinkedVisit
	CreatorName string
	Mode        Mode
	GeneratedAt time.Time
}

var parisTZ = loadLocation("Europe/Paris")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Subject returns "<prefix> - <company> - <date> <time>".
func (e AppointmentEmail) Subject() string {
	return fmt.Sprintf("%s - %s - %s %s", e.Mode.title(), e.entreprise(), e.Appointment.Date, e.Appointment.HeureDebut)
}

func (e AppointmentEmail) entreprise() string {
	if e.Appointment.Entreprise != "" {
		return e.Appointment.Entreprise
	}
	if e.Visit != nil {
		return e.Visit.Entreprise
	}
	return ""
}

// RenderAppointment builds the subject and HTML body. It performs no I/O.
func RenderAppointment(e AppointmentEmail) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := appointmentTmpl.Execute(&buf, e.view()); err != nil {
		return "", "", fmt.Errorf("notify: render appointment email: %w", err)
	}
	return e.Subject(), buf.String(), nil
}

type detailRow struct {
	Label string
	Value string
	Badge bool
}

type appointmentView struct {
	Title       string
	Intro       string
	Entreprise  string
	CreatorName string
	GeneratedAt string
	Details     []detailRow
	Visit       []detailRow
	HasVisit    bool
	Description []string
}

func (e AppointmentEmail) view() appointmentView {
	a := e.Appointment
	generated := e.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	heure := dash(a.HeureDebut)
	if a.HeureFin != "" {
		heure += " - " + a.HeureFin
	}

	v := appointmentView{
		Title:       e.Mode.title(),
		Intro:       "Un nouveau rendez-vous vient d'être enregistré dans le CRM pour le compte suivant :",
		Entreprise:  orDefault(e.entreprise(), "Entreprise non renseignée"),
		CreatorName: orDefault(strings.TrimSpace(e.CreatorName), "Commercial non renseigné"),
		GeneratedAt: generated.In(parisTZ).Format("02/01/2006 15:04:05"),
		Details: []detailRow{
			{Label: "Entreprise", Value: dash(e.entreprise())},
			{Label: "Contact", Value: dash(a.PersonneContact)},
			{Label: "Téléphone", Value: dash(a.Telephone)},
			{Label: "Email", Value: dash(a.Email)},
			{Label: "Date", Value: dash(a.Date)},
			{Label: "Heure", Value: heure},
			{Label: "Lieu", Value: dash(a.Lieu)},
			{Label: "Objet", Value: dash(a.Objet)},
			{Label: "Priorité", Value: orDefault(a.Priorite, "normale"), Badge: true},
			{Label: "Statut", Value: orDefault(a.Statut, "planifié")},
		},
	}
	if e.Mode == ModeReminder {
		v.Intro = "Ceci est un rappel pour le rendez-vous suivant enregistré dans le CRM :"
	}

	if e.Visit != nil {
		vis := e.Visit
		var place []string
		for _, s := range []string{vis.Ville, vis.Zone} {
			if s != "" {
				place = append(place, s)
			}
		}
		contact := dash(vis.Telephone)
		if vis.Email != "" {
			contact += " · " + vis.Email
		}
		v.HasVisit = true
		v.Visit = []detailRow{
			{Label: "Date visite", Value: dash(vis.DateVisite)},
			{Label: "Interlocuteur", Value: dash(vis.PersonneRencontree)},
			{Label: "Ville / Zone", Value: dash(strings.Join(place, " - "))},
			{Label: "Adresse", Value: dash(vis.Adresse)},
			{Label: "Contact", Value: contact},
			{Label: "Objet de la visite", Value: dash(vis.ObjetVisite)},
		}
	}

	if desc := strings.TrimRight(a.Description, "\n"); desc != "" {
		v.Description = strings.Split(strings.ReplaceAll(desc, "\r\n", "\n"), "\n")
	}
	return v
}

func dash(s string) string {
	return orDefault(strings.TrimSpace(s), "-")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var appointmentTmpl = template.Must(template.New("appointment").Parse(appointmentTemplate))

const appointmentTemplate = `<div style="font-family:system-ui,-apple-system,'Segoe UI',sans-serif;background-color:#f4f5fb;padding:24px;">
  <table width="100%" cellspacing="0" cellpadding="0" style="max-width:720px;margin:0 auto;background-color:#ffffff;border-radius:12px;overflow:hidden;">
    <tr>
      <td style="background:#1d4ed8;padding:20px 24px;color:#e5e7eb;">
        <div style="font-size:14px;letter-spacing:0.08em;text-transform:uppercase;opacity:0.8;">SalesTracker CRM</div>
        <div style="margin-top:4px;font-size:20px;font-weight:600;color:#f9fafb;">{{.Title}}</div>
        <div style="margin-top:4px;font-size:13px;opacity:0.85;">Créé par {{.CreatorName}} · {{.GeneratedAt}}</div>
      </td>
    </tr>
    <tr>
      <td style="padding:24px 24px 12px 24px;">
        <div style="font-size:15px;color:#111827;margin-bottom:12px;">Bonjour,</div>
        <div style="font-size:14px;color:#4b5563;line-height:1.6;">{{.Intro}} <span style="font-weight:600;color:#111827;">{{.Entreprise}}</span>.</div>
      </td>
    </tr>
    <tr>
      <td style="padding:4px 24px 16px 24px;">
        <table width="100%" cellspacing="0" cellpadding="0" style="border-collapse:collapse;">
          <tr>
            <td style="vertical-align:top;padding:12px 12px 12px 0;">
              <div style="font-size:13px;font-weight:600;color:#111827;margin-bottom:8px;">Détails du rendez-vous</div>
              <table cellspacing="0" cellpadding="0" style="font-size:13px;color:#374151;line-height:1.6;">
                {{- range .Details}}
                <tr>
                  <td style="padding:2px 8px 2px 0;color:#6b7280;">{{.Label}}</td>
                  <td style="padding:2px 0;">{{if .Badge}}<span style="display:inline-block;padding:2px 8px;border-radius:999px;background-color:#eff6ff;color:#1d4ed8;font-weight:500;">{{.Value}}</span>{{else}}{{.Value}}{{end}}</td>
                </tr>
                {{- end}}
              </table>
            </td>
            {{- if .HasVisit}}
            <td style="vertical-align:top;padding:12px 0 12px 12px;border-left:1px solid #e5e7eb;">
              <div style="font-size:13px;font-weight:600;color:#111827;margin-bottom:8px;">Détails de la visite liée</div>
              <table cellspacing="0" cellpadding="0" style="font-size:13px;color:#374151;line-height:1.6;">
                {{- range .Visit}}
                <tr>
                  <td style="padding:2px 8px 2px 0;color:#6b7280;">{{.Label}}</td>
                  <td style="padding:2px 0;">{{.Value}}</td>
                </tr>
                {{- end}}
              </table>
            </td>
            {{- end}}
          </tr>
        </table>
      </td>
    </tr>
    {{- if .Description}}
    <tr>
      <td style="padding:0 24px 16px 24px;">
        <div style="font-size:13px;font-weight:600;color:#111827;margin-bottom:6px;">Notes complémentaires</div>
        <div style="font-size:13px;color:#4b5563;line-height:1.6;background-color:#f9fafb;border-radius:8px;padding:10px 12px;border:1px solid #e5e7eb;">
          {{- range $i, $line := .Description}}{{if $i}}<br />{{end}}{{$line}}{{end -}}
        </div>
      </td>
    </tr>
    {{- end}}
    <tr>
      <td style="padding:8px 24px 20px 24px;">
        <div style="font-size:11px;color:#9ca3af;line-height:1.5;">Cet email a été généré automatiquement par SalesTracker. Merci de ne pas y répondre directement.</div>
      </td>
    </tr>
  </table>
</div>
`
