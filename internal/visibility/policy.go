// Package visibility decides which visit fields a caller may receive.
//
// Sensitive commercial figures (deal amount, win probability) are nulled on
// the server before serialization for every caller who is neither the
// record owner nor an admin/consultant.
package visibility

import "github.com/wolfman30/salestracker/internal/identity"

// Record is anything carrying owner-scoped sensitive fields.
type Record interface {
	OwnerID() string
	RedactSensitive()
}

// CanViewSensitive reports whether caller may see the sensitive fields of a
// record owned by ownerID.
func CanViewSensitive(caller identity.User, ownerID string) bool {
	if caller.Role.Elevated() {
		return true
	}
	return caller.ID != "" && caller.ID == ownerID
}

// Apply redacts rec in place when caller may not see its sensitive fields.
func Apply(caller identity.User, rec Record) {
	if rec == nil {
		return
	}
	if !CanViewSensitive(caller, rec.OwnerID()) {
		rec.RedactSensitive()
	}
}

// ApplyAll runs Apply over every record.
func ApplyAll[T Record](caller identity.User, recs []T) {
	for _, rec := range recs {
		Apply(caller, rec)
	}
}
