// Package auth supplies the authenticated identity (role plus optional
// linked patient id), session token issuing and verification, and the
// authorization gate that narrows which records a caller may touch. The
// record store itself is mechanism, not policy: handlers must consult the
// gate before invoking a mutation.
package auth

import "context"

// Roles understood by the gate.
const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// Identity is the authenticated caller. PatientID is set only for
// patient-role users and names the patient record the account is linked to.
type Identity struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	PatientID string `json:"patientId,omitempty"`
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity set by the token middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
