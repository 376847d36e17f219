package identity

import "strings"

// Role is the profile role stored alongside each team member.
type Role string

const (
	RoleCommercial Role = "commercial"
	RoleSuperieur  Role = "superieur"
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
)

// ParseRole normalises a stored role value. Unknown values yield "".
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCommercial, RoleSuperieur, RoleAdmin, RoleConsultant:
		return r
	default:
		return ""
	}
}

// Elevated reports whether the role can read every team member's records.
// superieur is the legacy name of admin.
func (r Role) Elevated() bool {
	switch r {
	case RoleAdmin, RoleSuperieur, RoleConsultant:
		return true
	default:
		return false
	}
}

// IsAdmin is true for admin and its legacy alias superieur.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperieur
}

// User is the authenticated caller resolved from a session token.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"prenom,omitempty"`
	LastName  string `json:"nom,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// DisplayName returns "first last", or the email when both are blank.
func (u User) DisplayName() string {
	return FormatName(u.FirstName, u.LastName, u.Email)
}

// FormatName joins first and last name, falling back to email.
func FormatName(first, last, email string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name != "" {
		return name
	}
	return strings.TrimSpace(email)
}
