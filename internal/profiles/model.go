package profiles

import (
	"errors"
	"time"

	"github.com/wolfman30/salestracker/internal/identity"
)

// ErrNotFound is returned when no profile row matches.
var ErrNotFound = errors.New("profiles: not found")

// Profile is a team member row.
type Profile struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Nom       string        `json:"nom"`
	Prenom    string        `json:"prenom"`
	Role      identity.Role `json:"role"`
	Telephone *string       `json:"telephone"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DisplayName returns "prenom nom", falling back to email.
func (p Profile) DisplayName() string {
	return identity.FormatName(p.Prenom, p.Nom, p.Email)
}

// TeamMember is a profile with the number of visits it owns.
type TeamMember struct {
	Profile
	TotalVisites int `json:"total_visites"`
}
