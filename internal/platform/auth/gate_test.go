package auth

import "testing"

func TestGate_AdminAllowedEverything(t *testing.T) {
	g := Gate{}
	admin := Identity{UserID: "1", Role: RoleAdmin}

	if !g.CanReadPatient(admin, "p1") {
		t.Error("admin must read any patient")
	}
	if !g.CanMutatePatients(admin) {
		t.Error("admin must mutate patients")
	}
	if !g.CanReadIncidentsOf(admin, "p1") {
		t.Error("admin must read any patient's incidents")
	}
	if !g.CanCreateIncident(admin, "p1") {
		t.Error("admin must create incidents")
	}
	if !g.CanEditIncidents(admin) {
		t.Error("admin must edit incidents")
	}
}

func TestGate_PatientScopedToOwnRecord(t *testing.T) {
	g := Gate{}
	patient := Identity{UserID: "2", Role: RolePatient, PatientID: "p1"}

	if !g.CanReadPatient(patient, "p1") {
		t.Error("patient must read own record")
	}
	if g.CanReadPatient(patient, "p2") {
		t.Error("patient must not read another patient")
	}
	if g.CanMutatePatients(patient) {
		t.Error("patient must not mutate patient records")
	}
	if !g.CanReadIncidentsOf(patient, "p1") {
		t.Error("patient must read own incidents")
	}
	if g.CanReadIncidentsOf(patient, "p2") {
		t.Error("patient must not read another patient's incidents")
	}
	if !g.CanCreateIncident(patient, "p1") {
		t.Error("patient must book for themselves")
	}
	if g.CanCreateIncident(patient, "p2") {
		t.Error("patient must not book for another patient")
	}
	if g.CanEditIncidents(patient) {
		t.Error("patient must not edit incidents")
	}
}

func TestGate_UnlinkedPatientDeniedEverything(t *testing.T) {
	g := Gate{}
	orphan := Identity{UserID: "3", Role: RolePatient}

	if g.CanReadPatient(orphan, "") {
		t.Error("patient with no linked record must not match the empty id")
	}
	if g.CanCreateIncident(orphan, "") {
		t.Error("unlinked patient must not create incidents")
	}
}

func TestGate_UnknownRoleDenied(t *testing.T) {
	g := Gate{}
	stranger := Identity{UserID: "4", Role: "auditor"}

	if g.CanReadPatient(stranger, "p1") || g.CanMutatePatients(stranger) ||
		g.CanCreateIncident(stranger, "p1") || g.CanEditIncidents(stranger) {
		t.Error("unknown role must be denied")
	}
}
