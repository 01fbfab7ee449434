package records

import (
	"sort"
	"strings"
	"time"
)

// Query functions are pure: they operate on snapshots handed to them, never
// mutate their inputs and never touch storage.

// UnknownPatient is the sentinel name for an incident whose patient no longer
// exists. Dangling references display; they do not fail or vanish.
const UnknownPatient = "Unknown Patient"

// StatusAll disables status filtering in FilterIncidents.
const StatusAll = "All"

// ResolvePatientName joins a patient reference to the patient's name.
func ResolvePatientName(ref PatientRef, patients []Patient) string {
	for _, p := range patients {
		if p.ID == string(ref) {
			return p.Name
		}
	}
	return UnknownPatient
}

// Filter selects incidents by free text and status. Text matches
// case-insensitively against title, description and the resolved patient
// name (substring, OR across the three); Status is either StatusAll or an
// exact match. Both predicates AND together.
type Filter struct {
	Text   string
	Status string
}

func FilterIncidents(incidents []Incident, patients []Patient, f Filter) []Incident {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	status := f.Status
	if status == "" {
		status = StatusAll
	}

	var out []Incident
	for _, inc := range incidents {
		if status != StatusAll && string(inc.Status) != status {
			continue
		}
		if text != "" {
			name := ResolvePatientName(inc.PatientID, patients)
			if !strings.Contains(strings.ToLower(inc.Title), text) &&
				!strings.Contains(strings.ToLower(inc.Description), text) &&
				!strings.Contains(strings.ToLower(name), text) {
				continue
			}
		}
		out = append(out, inc)
	}
	return out
}

// SortByAppointmentDate returns a copy sorted by appointment time. The sort
// is stable: incidents sharing a timestamp keep their insertion order.
func SortByAppointmentDate(incidents []Incident, descending bool) []Incident {
	out := make([]Incident, len(incidents))
	copy(out, incidents)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].AppointmentAt.After(out[j].AppointmentAt)
		}
		return out[i].AppointmentAt.Before(out[j].AppointmentAt)
	})
	return out
}

// Upcoming returns incidents at or after now. The boundary (exactly now)
// counts as upcoming.
func Upcoming(incidents []Incident, now time.Time) []Incident {
	var out []Incident
	for _, inc := range incidents {
		if !inc.AppointmentAt.Before(now) {
			out = append(out, inc)
		}
	}
	return out
}

// Past returns incidents strictly before now.
func Past(incidents []Incident, now time.Time) []Incident {
	var out []Incident
	for _, inc := range incidents {
		if inc.AppointmentAt.Before(now) {
			out = append(out, inc)
		}
	}
	return out
}

// AppointmentsOnDate returns incidents whose appointment falls on the given
// calendar day. A nil day yields an empty result.
func AppointmentsOnDate(incidents []Incident, day *time.Time) []Incident {
	if day == nil {
		return nil
	}
	y, m, d := day.Date()
	var out []Incident
	for _, inc := range incidents {
		iy, im, id := inc.AppointmentAt.Date()
		if iy == y && im == m && id == d {
			out = append(out, inc)
		}
	}
	return out
}

// Dashboard aggregates the administrator landing view.
type Dashboard struct {
	TotalPatients    int               `json:"totalPatients"`
	TotalIncidents   int               `json:"totalIncidents"`
	Completed        int               `json:"completedTreatments"`
	Pending          int               `json:"pendingTreatments"`
	Revenue          float64           `json:"totalRevenue"`
	NextAppointments []Incident        `json:"nextAppointments"`
	TopPatients      []PatientActivity `json:"topPatients"`
}

// PatientActivity pairs a patient with their appointment tally.
type PatientActivity struct {
	Patient          Patient `json:"patient"`
	AppointmentCount int     `json:"appointmentCount"`
}

// AggregateDashboard computes the dashboard numbers from a snapshot. Revenue
// sums recorded costs over Completed incidents; an absent cost contributes
// zero to the sum but is never conflated with a recorded zero elsewhere.
// NextAppointments holds at most the next ten upcoming incidents ascending;
// TopPatients the five busiest patients, ties broken by insertion order.
func AggregateDashboard(patients []Patient, incidents []Incident, now time.Time) Dashboard {
	d := Dashboard{
		TotalPatients:  len(patients),
		TotalIncidents: len(incidents),
	}
	for _, inc := range incidents {
		switch inc.Status {
		case StatusCompleted:
			d.Completed++
			if inc.Cost != nil {
				d.Revenue += *inc.Cost
			}
		case StatusScheduled:
			d.Pending++
		}
	}

	next := SortByAppointmentDate(Upcoming(incidents, now), false)
	if len(next) > 10 {
		next = next[:10]
	}
	d.NextAppointments = next

	counts := make(map[PatientRef]int, len(patients))
	for _, inc := range incidents {
		counts[inc.PatientID]++
	}
	top := make([]PatientActivity, len(patients))
	for i, p := range patients {
		top[i] = PatientActivity{Patient: p, AppointmentCount: counts[PatientRef(p.ID)]}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].AppointmentCount > top[j].AppointmentCount
	})
	if len(top) > 5 {
		top = top[:5]
	}
	d.TopPatients = top

	return d
}

// PatientView is the role-scoped read model for a single patient: their
// record plus their incidents split around now.
type PatientView struct {
	Patient  *Patient   `json:"patient"`
	Upcoming []Incident `json:"upcoming"`
	Past     []Incident `json:"past"`
}

// ScopedPatientView narrows a snapshot to one patient. The patient pointer is
// nil when the id does not resolve; the incident subsets still reflect any
// incidents carrying the reference.
func ScopedPatientView(patients []Patient, incidents []Incident, id string, now time.Time) PatientView {
	var view PatientView
	for i := range patients {
		if patients[i].ID == id {
			p := patients[i]
			view.Patient = &p
			break
		}
	}
	var own []Incident
	for _, inc := range incidents {
		if inc.PatientID == PatientRef(id) {
			own = append(own, inc)
		}
	}
	view.Upcoming = SortByAppointmentDate(Upcoming(own, now), false)
	view.Past = SortByAppointmentDate(Past(own, now), true)
	return view
}
