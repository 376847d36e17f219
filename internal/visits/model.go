package visits

import "time"

// StatutVisite is the progress of a visit.
type StatutVisite string

const (
	StatutAFaire  StatutVisite = "a_faire"
	StatutEnCours StatutVisite = "en_cours"
	StatutTermine StatutVisite = "termine"
)

// Valid reports whether s is a known visit status.
func (s StatutVisite) Valid() bool {
	switch s {
	case StatutAFaire, StatutEnCours, StatutTermine:
		return true
	}
	return false
}

// Label is the French label used in exports.
func (s StatutVisite) Label() string {
	switch s {
	case StatutAFaire:
		return "À faire"
	case StatutEnCours:
		return "En cours"
	default:
		return "Terminée"
	}
}

// StatutAction is the commercial outcome of a visit.
type StatutAction string

const (
	ActionEnAttente StatutAction = "en_attente"
	ActionAccepte   StatutAction = "accepte"
	ActionRefuse    StatutAction = "refuse"
)

// Valid reports whether s is a known action status.
func (s StatutAction) Valid() bool {
	switch s {
	case ActionEnAttente, ActionAccepte, ActionRefuse:
		return true
	}
	return false
}

// Label is the French label used in exports.
func (s StatutAction) Label() string {
	switch s {
	case ActionEnAttente:
		return "En attente"
	case ActionAccepte:
		return "Acceptée"
	default:
		return "Refusée"
	}
}

// Visit is a row of the visites table. Dates are kept as YYYY-MM-DD strings.
type Visit struct {
	ID                   string       `json:"id"`
	CommercialID         string       `json:"commercial_id"`
	CommercialName       *string      `json:"commercial_name"`
	Entreprise           string       `json:"entreprise"`
	PersonneRencontree   string       `json:"personne_rencontree"`
	FonctionPoste        *string      `json:"fonction_poste"`
	Ville                *string      `json:"ville"`
	Zone                 *string      `json:"zone"`
	Adresse              *string      `json:"adresse"`
	TelFixe              *string      `json:"tel_fixe"`
	Mobile               *string      `json:"mobile"`
	Email                *string      `json:"email"`
	DateVisite           string       `json:"date_visite"`
	ObjetVisite          string       `json:"objet_visite"`
	ProvenanceContact    *string      `json:"provenance_contact"`
	InteretClient        *string      `json:"interet_client"`
	ActionsAEntreprendre *string      `json:"actions_a_entreprendre"`
	Montant              *float64     `json:"montant"`
	DateProchaineAction  *string      `json:"date_prochaine_action"`
	Remarques            *string      `json:"remarques"`
	Probabilite          *int         `json:"probabilite"`
	StatutVisite         StatutVisite `json:"statut_visite"`
	StatutAction         StatutAction `json:"statut_action"`
	CreatedBy            *string      `json:"created_by"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// OwnerID returns the owning commercial.
func (v *Visit) OwnerID() string {
	if v == nil {
		return ""
	}
	return v.CommercialID
}

// RedactSensitive nulls the deal amount and win probability.
func (v *Visit) RedactSensitive() {
	if v == nil {
		return
	}
	v.Montant = nil
	v.Probabilite = nil
}

// Phone returns the mobile number, or the landline when there is none.
func (v *Visit) Phone() string {
	switch {
	case v.Mobile != nil && *v.Mobile != "":
		return *v.Mobile
	case v.TelFixe != nil:
		return *v.TelFixe
	}
	return ""
}

// Page is a slice of visits with the filtered total.
type Page struct {
	Data       []*Visit   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination echoes the page window and the exact filtered count.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Stats summarises a commercial's own visits.
type Stats struct {
	TotalVisites       int     `json:"total_visites"`
	VisitesAFaire      int     `json:"visites_a_faire"`
	VisitesEnCours     int     `json:"visites_en_cours"`
	VisitesTerminees   int     `json:"visites_terminees"`
	VisitesAcceptees   int     `json:"visites_acceptees"`
	VisitesRefusees    int     `json:"visites_refusees"`
	MontantTotal       float64 `json:"montant_total"`
	ProbabiliteMoyenne float64 `json:"probabilite_moyenne"`
}

// DuplicateCheck tells a commercial whether they already visited a company.
type DuplicateCheck struct {
	Existe            bool    `json:"existe"`
	DerniereVisiteID  *string `json:"derniere_visite_id"`
	DerniereDate      *string `json:"derniere_date"`
	CommercialNom     *string `json:"commercial_nom"`
	JoursDepuisVisite *int    `json:"jours_depuis_visite"`
}
