package auth

// Gate decides whether an identity may perform an operation against a
// target record. It holds no state and never filters silently: callers ask
// before mutating or reading, and the record store performs whatever it is
// asked to do.
//
// Administrators are allowed everything. Patient-role users are read-only on
// their own linked patient record and incidents, with one exception: they may
// create a new incident scoped to their own patient id (self-service
// booking).
type Gate struct{}

// CanReadPatient reports whether id may read the patient record.
func (Gate) CanReadPatient(id Identity, patientID string) bool {
	switch id.Role {
	case RoleAdmin:
		return true
	case RolePatient:
		return id.PatientID != "" && id.PatientID == patientID
	}
	return false
}

// CanMutatePatients reports whether id may create, update or delete patient
// records. Only administrators may.
func (Gate) CanMutatePatients(id Identity) bool {
	return id.Role == RoleAdmin
}

// CanReadIncidentsOf reports whether id may read incidents linked to the
// given patient.
func (g Gate) CanReadIncidentsOf(id Identity, patientID string) bool {
	return g.CanReadPatient(id, patientID)
}

// CanCreateIncident reports whether id may create an incident for the given
// patient. Patients may book for themselves only.
func (Gate) CanCreateIncident(id Identity, patientID string) bool {
	switch id.Role {
	case RoleAdmin:
		return true
	case RolePatient:
		return id.PatientID != "" && id.PatientID == patientID
	}
	return false
}

// CanEditIncidents reports whether id may update or delete incidents. Only
// administrators may; patient self-service stops at creation.
func (Gate) CanEditIncidents(id Identity) bool {
	return id.Role == RoleAdmin
}
