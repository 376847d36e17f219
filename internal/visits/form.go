package visits

import "strings"

// FormData is the payload of POST /visits.
type FormData struct {
	Entreprise           string       `json:"entreprise" validate:"required"`
	PersonneRencontree   string       `json:"personne_rencontree" validate:"required"`
	FonctionPoste        string       `json:"fonction_poste"`
	Ville                string       `json:"ville"`
	Zone                 string       `json:"zone"`
	Adresse              string       `json:"adresse"`
	TelFixe              string       `json:"tel_fixe"`
	Mobile               string       `json:"mobile"`
	Email                string       `json:"email" validate:"omitempty,email"`
	DateVisite           string       `json:"date_visite" validate:"required,date"`
	ObjetVisite          string       `json:"objet_visite" validate:"required"`
	ProvenanceContact    string       `json:"provenance_contact"`
	InteretClient        string       `json:"interet_client"`
	ActionsAEntreprendre string       `json:"actions_a_entreprendre"`
	Montant              *float64     `json:"montant" validate:"omitempty,min=0"`
	DateProchaineAction  string       `json:"date_prochaine_action" validate:"omitempty,date"`
	Remarques            string       `json:"remarques"`
	Probabilite          *int         `json:"probabilite" validate:"omitempty,min=0,max=100"`
	StatutVisite         StatutVisite `json:"statut_visite" validate:"required,oneof=a_faire en_cours termine"`
	StatutAction         StatutAction `json:"statut_action" validate:"omitempty,oneof=en_attente accepte refuse"`
}

// ToVisit maps the form onto a new row owned by ownerID. Blank optional
// strings become NULL and a missing action status defaults to en_attente.
func (f FormData) ToVisit(ownerID string) *Visit {
	action := f.StatutAction
	if action == "" {
		action = ActionEnAttente
	}
	owner := ownerID
	return &Visit{
		CommercialID:         ownerID,
		Entreprise:           strings.TrimSpace(f.Entreprise),
		PersonneRencontree:   strings.TrimSpace(f.PersonneRencontree),
		FonctionPoste:        nullable(f.FonctionPoste),
		Ville:                nullable(f.Ville),
		Zone:                 nullable(f.Zone),
		Adresse:              nullable(f.Adresse),
		TelFixe:              nullable(f.TelFixe),
		Mobile:               nullable(f.Mobile),
		Email:                nullable(f.Email),
		DateVisite:           f.DateVisite,
		ObjetVisite:          strings.TrimSpace(f.ObjetVisite),
		ProvenanceContact:    nullable(f.ProvenanceContact),
		InteretClient:        nullable(f.InteretClient),
		ActionsAEntreprendre: nullable(f.ActionsAEntreprendre),
		Montant:              f.Montant,
		DateProchaineAction:  nullable(f.DateProchaineAction),
		Remarques:            nullable(f.Remarques),
		Probabilite:          f.Probabilite,
		StatutVisite:         f.StatutVisite,
		StatutAction:         action,
		CreatedBy:            &owner,
	}
}

// StatusUpdate is the payload of PATCH /visits/{id}. Nil fields are left as is.
type StatusUpdate struct {
	StatutVisite *StatutVisite `json:"statut_visite"`
	StatutAction *StatutAction `json:"statut_action"`
}

func (u StatusUpdate) validate() error {
	if u.StatutVisite == nil && u.StatutAction == nil {
		return ErrInvalidStatus
	}
	if u.StatutVisite != nil && !u.StatutVisite.Valid() {
		return ErrInvalidStatus
	}
	if u.StatutAction != nil && !u.StatutAction.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
