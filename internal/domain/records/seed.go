package records

import "time"

// Built-in first-run dataset, used to demo the application against an empty
// backend. Initialize writes it only for keys that have never been saved.

func seedPatients() []Patient {
	return []Patient{
		{
			ID:          "p1",
			Name:        "John Doe",
			DateOfBirth: "1990-05-10",
			Contact:     "1234567890",
			Email:       "john@entnt.in",
			HealthInfo:  "No allergies",
			CreatedAt:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func seedIncidents() []Incident {
	cost := 100.0
	next := time.Date(2025, time.January, 22, 10, 0, 0, 0, time.UTC)
	return []Incident{
		{
			ID:                "i1",
			PatientID:         "p1",
			Title:             "General Checkup",
			Description:       "Annual medical checkup",
			Comments:          "All tests completed",
			TreatmentNotes:    "General examination and blood work",
			AppointmentAt:     time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC),
			NextAppointmentAt: &next,
			Cost:              &cost,
			Status:            StatusScheduled,
			Attachments:       []Attachment{},
		},
	}
}
