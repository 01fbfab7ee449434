package records

import (
	"testing"
	"time"
)

func day(d int, hour int) time.Time {
	return time.Date(2025, time.January, d, hour, 0, 0, 0, time.UTC)
}

func TestResolvePatientName(t *testing.T) {
	patients := []Patient{{ID: "p1", Name: "John Doe"}}
	if got := ResolvePatientName("p1", patients); got != "John Doe" {
		t.Errorf("got %q", got)
	}
	if got := ResolvePatientName("gone", patients); got != UnknownPatient {
		t.Errorf("got %q, want %q", got, UnknownPatient)
	}
}

func TestFilterIncidents_TextAndStatus(t *testing.T) {
	patients := []Patient{{ID: "p1", Name: "John Doe"}}
	incidents := []Incident{
		{ID: "i1", PatientID: "p1", Title: "General Checkup", Description: "Annual", Status: StatusScheduled},
		{ID: "i2", PatientID: "p1", Title: "Filling", Description: "Cavity repair", Status: StatusCompleted},
	}

	// Text match on title, status wide open.
	got := FilterIncidents(incidents, patients, Filter{Text: "checkup", Status: StatusAll})
	if len(got) != 1 || got[0].ID != "i1" {
		t.Errorf("text filter: %+v", got)
	}

	// Status exact match excludes a Scheduled incident.
	got = FilterIncidents(incidents, patients, Filter{Text: "checkup", Status: string(StatusCompleted)})
	if len(got) != 0 {
		t.Errorf("status filter should exclude, got %+v", got)
	}

	// Text matches the resolved patient name.
	got = FilterIncidents(incidents, patients, Filter{Text: "john", Status: StatusAll})
	if len(got) != 2 {
		t.Errorf("patient-name match: got %d, want 2", len(got))
	}

	// Case-insensitive on description.
	got = FilterIncidents(incidents, patients, Filter{Text: "CAVITY"})
	if len(got) != 1 || got[0].ID != "i2" {
		t.Errorf("description match: %+v", got)
	}

	// Empty filter keeps everything.
	got = FilterIncidents(incidents, patients, Filter{})
	if len(got) != 2 {
		t.Errorf("empty filter: got %d, want 2", len(got))
	}
}

func TestSortByAppointmentDate_StableOnTies(t *testing.T) {
	at := day(15, 10)
	incidents := []Incident{
		{ID: "b", AppointmentAt: at},
		{ID: "a", AppointmentAt: day(10, 9)},
		{ID: "c", AppointmentAt: at},
	}

	asc := SortByAppointmentDate(incidents, false)
	if asc[0].ID != "a" || asc[1].ID != "b" || asc[2].ID != "c" {
		t.Errorf("ascending: %v %v %v", asc[0].ID, asc[1].ID, asc[2].ID)
	}

	desc := SortByAppointmentDate(incidents, true)
	// Ties keep insertion order in either direction.
	if desc[0].ID != "b" || desc[1].ID != "c" || desc[2].ID != "a" {
		t.Errorf("descending: %v %v %v", desc[0].ID, desc[1].ID, desc[2].ID)
	}

	// Input order untouched.
	if incidents[0].ID != "b" {
		t.Error("sort mutated its input")
	}
}

func TestUpcomingAndPast_Partition(t *testing.T) {
	first := day(15, 10)
	second := day(22, 10)
	incidents := []Incident{
		{ID: "i1", AppointmentAt: first},
		{ID: "i2", AppointmentAt: second},
	}
	now := day(16, 0)

	up := Upcoming(incidents, now)
	if len(up) != 1 || up[0].ID != "i2" {
		t.Errorf("upcoming: %+v", up)
	}
	past := Past(incidents, now)
	if len(past) != 1 || past[0].ID != "i1" {
		t.Errorf("past: %+v", past)
	}
}

func TestUpcoming_BoundaryCountsAsUpcoming(t *testing.T) {
	at := day(15, 10)
	incidents := []Incident{{ID: "i1", AppointmentAt: at}}
	if up := Upcoming(incidents, at); len(up) != 1 {
		t.Error("incident exactly at now must be upcoming")
	}
	if past := Past(incidents, at); len(past) != 0 {
		t.Error("incident exactly at now must not be past")
	}
}

func TestAppointmentsOnDate(t *testing.T) {
	incidents := []Incident{
		{ID: "i1", AppointmentAt: day(15, 10)},
		{ID: "i2", AppointmentAt: day(15, 16)},
		{ID: "i3", AppointmentAt: day(16, 10)},
	}

	target := day(15, 0)
	got := AppointmentsOnDate(incidents, &target)
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}

	if got := AppointmentsOnDate(incidents, nil); len(got) != 0 {
		t.Error("nil date must yield empty")
	}
}

func TestAggregateDashboard(t *testing.T) {
	patients := []Patient{
		{ID: "p1", Name: "Busy"},
		{ID: "p2", Name: "Quiet"},
		{ID: "p3", Name: "Tied"},
	}
	c100, c50 := 100.0, 50.0
	now := day(16, 0)
	incidents := []Incident{
		{ID: "i1", PatientID: "p1", Status: StatusCompleted, Cost: &c100, AppointmentAt: day(10, 9)},
		{ID: "i2", PatientID: "p1", Status: StatusCompleted, AppointmentAt: day(11, 9)}, // no cost recorded
		{ID: "i3", PatientID: "p1", Status: StatusCompleted, Cost: &c50, AppointmentAt: day(12, 9)},
		{ID: "i4", PatientID: "p2", Status: StatusScheduled, AppointmentAt: day(20, 9)},
		{ID: "i5", PatientID: "p2", Status: StatusCancelled, AppointmentAt: day(21, 9)},
	}

	d := AggregateDashboard(patients, incidents, now)
	if d.TotalPatients != 3 || d.TotalIncidents != 5 {
		t.Errorf("totals: %+v", d)
	}
	if d.Completed != 3 || d.Pending != 1 {
		t.Errorf("status counts: completed=%d pending=%d", d.Completed, d.Pending)
	}
	// Missing cost contributes zero, never poisons the sum.
	if d.Revenue != 150 {
		t.Errorf("Revenue = %v, want 150", d.Revenue)
	}
	if len(d.NextAppointments) != 2 ||
		d.NextAppointments[0].ID != "i4" || d.NextAppointments[1].ID != "i5" {
		t.Errorf("next appointments: %+v", d.NextAppointments)
	}
	if len(d.TopPatients) != 3 {
		t.Fatalf("top patients: %+v", d.TopPatients)
	}
	if d.TopPatients[0].Patient.ID != "p1" || d.TopPatients[0].AppointmentCount != 3 {
		t.Errorf("busiest: %+v", d.TopPatients[0])
	}
	// Ordered by count descending, insertion order on ties.
	if d.TopPatients[1].Patient.ID != "p2" || d.TopPatients[2].Patient.ID != "p3" {
		t.Errorf("ordering: %v then %v", d.TopPatients[1].Patient.ID, d.TopPatients[2].Patient.ID)
	}
}

func TestAggregateDashboard_TiesKeepInsertionOrder(t *testing.T) {
	patients := []Patient{
		{ID: "p1", Name: "First"},
		{ID: "p2", Name: "Second"},
	}
	incidents := []Incident{
		{ID: "i1", PatientID: "p1", Status: StatusScheduled, AppointmentAt: day(20, 9)},
		{ID: "i2", PatientID: "p2", Status: StatusScheduled, AppointmentAt: day(20, 9)},
	}
	d := AggregateDashboard(patients, incidents, day(1, 0))
	if d.TopPatients[0].Patient.ID != "p1" || d.TopPatients[1].Patient.ID != "p2" {
		t.Errorf("tie order: %v then %v", d.TopPatients[0].Patient.ID, d.TopPatients[1].Patient.ID)
	}
}

func TestAggregateDashboard_CapsLists(t *testing.T) {
	var patients []Patient
	var incidents []Incident
	for i := 0; i < 12; i++ {
		id := string(rune('a' + i))
		patients = append(patients, Patient{ID: id})
		incidents = append(incidents, Incident{
			ID:            id,
			PatientID:     PatientRef(id),
			Status:        StatusScheduled,
			AppointmentAt: day(20, i),
		})
	}
	d := AggregateDashboard(patients, incidents, day(1, 0))
	if len(d.NextAppointments) != 10 {
		t.Errorf("next appointments capped at 10, got %d", len(d.NextAppointments))
	}
	if len(d.TopPatients) != 5 {
		t.Errorf("top patients capped at 5, got %d", len(d.TopPatients))
	}
}

func TestScopedPatientView(t *testing.T) {
	patients := []Patient{{ID: "p1", Name: "John Doe"}, {ID: "p2", Name: "Other"}}
	incidents := []Incident{
		{ID: "i1", PatientID: "p1", AppointmentAt: day(10, 9)},
		{ID: "i2", PatientID: "p1", AppointmentAt: day(20, 9)},
		{ID: "i3", PatientID: "p2", AppointmentAt: day(20, 9)},
	}
	now := day(16, 0)

	view := ScopedPatientView(patients, incidents, "p1", now)
	if view.Patient == nil || view.Patient.Name != "John Doe" {
		t.Fatalf("patient: %+v", view.Patient)
	}
	if len(view.Upcoming) != 1 || view.Upcoming[0].ID != "i2" {
		t.Errorf("upcoming: %+v", view.Upcoming)
	}
	if len(view.Past) != 1 || view.Past[0].ID != "i1" {
		t.Errorf("past: %+v", view.Past)
	}

	// Unknown patient id: nil record, empty subsets.
	view = ScopedPatientView(patients, incidents, "ghost", now)
	if view.Patient != nil || len(view.Upcoming) != 0 || len(view.Past) != 0 {
		t.Errorf("unknown id view: %+v", view)
	}
}
