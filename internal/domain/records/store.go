package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/storage"
)

// WriteResult reports the outcome of a store mutation. Applied says whether
// the in-memory collections changed; Persisted says whether the change
// reached the storage backend. The store is optimistic: on a persistence
// failure the in-memory mutation is retained (Applied=true, Persisted=false,
// Err set) so the current session keeps a consistent view, and the caller may
// retry durability with Flush.
type WriteResult struct {
	Applied   bool
	Persisted bool
	Err       error
}

func applied() WriteResult { return WriteResult{Applied: true, Persisted: true} }

func noop() WriteResult { return WriteResult{} }

func rejected(err error) WriteResult { return WriteResult{Err: err} }

func persistOutcome(err error) WriteResult {
	if err != nil {
		return WriteResult{Applied: true, Err: err}
	}
	return applied()
}

// Store owns the patient and incident collections. All access goes through
// its methods; each mutation is atomic with respect to readers, including the
// patient cascade delete which prunes both collections under one lock.
//
// Construct with NewStore and inject into consumers; multiple isolated
// instances may coexist (one per test, for example).
type Store struct {
	kv storage.KV

	mu        sync.RWMutex
	patients  []Patient
	incidents []Incident

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id assignment, used by tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize seeds the patients and incidents documents with the built-in
// demo dataset, but only for keys that have never been saved. Idempotent: a
// second call never overwrites existing data, including explicitly saved
// empty collections.
func (s *Store) Initialize(ctx context.Context) error {
	if _, found, err := s.kv.Load(ctx, storage.KeyPatients); err != nil {
		return fmt.Errorf("records: probe %s: %w", storage.KeyPatients, err)
	} else if !found {
		if err := s.saveDoc(ctx, storage.KeyPatients, seedPatients()); err != nil {
			return err
		}
	}
	if _, found, err := s.kv.Load(ctx, storage.KeyIncidents); err != nil {
		return fmt.Errorf("records: probe %s: %w", storage.KeyIncidents, err)
	} else if !found {
		if err := s.saveDoc(ctx, storage.KeyIncidents, seedIncidents()); err != nil {
			return err
		}
	}
	return nil
}

// Hydrate loads both collections from storage, replacing the in-memory state.
// Safe to call repeatedly; the last call wins. Missing documents hydrate as
// empty collections.
func (s *Store) Hydrate(ctx context.Context) ([]Patient, []Incident, error) {
	var patients []Patient
	if err := s.loadDoc(ctx, storage.KeyPatients, &patients); err != nil {
		return nil, nil, err
	}
	var incidents []Incident
	if err := s.loadDoc(ctx, storage.KeyIncidents, &incidents); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.patients = patients
	s.incidents = incidents
	s.mu.Unlock()

	return clonePatients(patients), cloneIncidents(incidents), nil
}

// Snapshot returns copies of both collections for use with the query
// functions. Mutating the returned slices never affects the store.
func (s *Store) Snapshot() ([]Patient, []Incident) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePatients(s.patients), cloneIncidents(s.incidents)
}

// Patient returns the patient with the given id, if present.
func (s *Store) Patient(id string) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

// Incident returns the incident with the given id, if present.
func (s *Store) Incident(id string) (Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inc := range s.incidents {
		if inc.ID == id {
			return cloneIncident(inc), true
		}
	}
	return Incident{}, false
}

// AddPatient assigns a fresh id and creation timestamp, appends the record
// and persists the collection. The new record is returned even when
// persistence fails (see WriteResult).
func (s *Store) AddPatient(ctx context.Context, in PatientInput) (Patient, WriteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Patient{
		ID:          s.newID(),
		Name:        in.Name,
		DateOfBirth: in.DateOfBirth,
		Contact:     in.Contact,
		Email:       in.Email,
		HealthInfo:  in.HealthInfo,
		CreatedAt:   s.now(),
	}
	s.patients = append(s.patients, p)
	return p, persistOutcome(s.persistPatients(ctx))
}

// UpdatePatient shallow-merges the patch over the existing record. Unknown
// ids are a silent no-op so the caller's view stays resilient to stale
// references. ID and CreatedAt are never touched.
func (s *Store) UpdatePatient(ctx context.Context, id string, patch PatientPatch) WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.patients {
		if s.patients[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return noop()
	}

	p := &s.patients[idx]
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.DateOfBirth != nil {
		p.DateOfBirth = *patch.DateOfBirth
	}
	if patch.Contact != nil {
		p.Contact = *patch.Contact
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.HealthInfo != nil {
		p.HealthInfo = *patch.HealthInfo
	}
	return persistOutcome(s.persistPatients(ctx))
}

// DeletePatient removes the patient and every incident referencing it. Both
// collections are pruned under one lock, so no reader observes the cascade
// half-applied. Unknown ids are a no-op.
func (s *Store) DeletePatient(ctx context.Context, id string) WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.patients[:0:0]
	removed := false
	for _, p := range s.patients {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return noop()
	}
	s.patients = kept

	keptInc := s.incidents[:0:0]
	for _, inc := range s.incidents {
		if inc.PatientID == PatientRef(id) {
			continue
		}
		keptInc = append(keptInc, inc)
	}
	s.incidents = keptInc

	pErr := s.persistPatients(ctx)
	iErr := s.persistIncidents(ctx)
	if pErr != nil {
		return persistOutcome(pErr)
	}
	return persistOutcome(iErr)
}

// AddIncident assigns a fresh id, defaults status to Scheduled and
// attachments to empty, appends and persists. A status outside the enum is
// rejected without mutating anything; the store's own write paths never
// persist an invalid status.
func (s *Store) AddIncident(ctx context.Context, in IncidentInput) (Incident, WriteResult) {
	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if !in.Status.Valid() {
		return Incident{}, rejected(fmt.Errorf("records: invalid status %q", in.Status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inc := Incident{
		ID:                s.newID(),
		PatientID:         in.PatientID,
		Title:             in.Title,
		Description:       in.Description,
		Comments:          in.Comments,
		TreatmentNotes:    in.TreatmentNotes,
		AppointmentAt:     in.AppointmentAt,
		NextAppointmentAt: in.NextAppointmentAt,
		Cost:              in.Cost,
		Status:            in.Status,
		Attachments:       make([]Attachment, len(in.Attachments)),
	}
	copy(inc.Attachments, in.Attachments)
	s.incidents = append(s.incidents, inc)
	return cloneIncident(inc), persistOutcome(s.persistIncidents(ctx))
}

// UpdateIncident shallow-merges the patch; unknown ids are a silent no-op.
func (s *Store) UpdateIncident(ctx context.Context, id string, patch IncidentPatch) WriteResult {
	if patch.Status != nil && !patch.Status.Valid() {
		return rejected(fmt.Errorf("records: invalid status %q", *patch.Status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.incidents {
		if s.incidents[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return noop()
	}

	inc := &s.incidents[idx]
	if patch.PatientID != nil {
		inc.PatientID = *patch.PatientID
	}
	if patch.Title != nil {
		inc.Title = *patch.Title
	}
	if patch.Description != nil {
		inc.Description = *patch.Description
	}
	if patch.Comments != nil {
		inc.Comments = *patch.Comments
	}
	if patch.TreatmentNotes != nil {
		inc.TreatmentNotes = *patch.TreatmentNotes
	}
	if patch.AppointmentAt != nil {
		inc.AppointmentAt = *patch.AppointmentAt
	}
	if patch.NextAppointmentAt != nil {
		next := *patch.NextAppointmentAt
		inc.NextAppointmentAt = &next
	}
	if patch.Cost != nil {
		cost := *patch.Cost
		inc.Cost = &cost
	}
	if patch.Status != nil {
		inc.Status = *patch.Status
	}
	if patch.Attachments != nil {
		atts := make([]Attachment, len(*patch.Attachments))
		copy(atts, *patch.Attachments)
		inc.Attachments = atts
	}
	return persistOutcome(s.persistIncidents(ctx))
}

// DeleteIncident removes the incident by id; unknown ids are a no-op.
func (s *Store) DeleteIncident(ctx context.Context, id string) WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.incidents[:0:0]
	removed := false
	for _, inc := range s.incidents {
		if inc.ID == id {
			removed = true
			continue
		}
		kept = append(kept, inc)
	}
	if !removed {
		return noop()
	}
	s.incidents = kept
	return persistOutcome(s.persistIncidents(ctx))
}

// Flush re-persists both collections as they currently stand. Used to retry
// durability after a mutation reported Persisted=false.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.persistPatients(ctx); err != nil {
		return err
	}
	return s.persistIncidents(ctx)
}

func (s *Store) persistPatients(ctx context.Context) error {
	docs := s.patients
	if docs == nil {
		docs = []Patient{}
	}
	return s.saveDoc(ctx, storage.KeyPatients, docs)
}

func (s *Store) persistIncidents(ctx context.Context) error {
	docs := s.incidents
	if docs == nil {
		docs = []Incident{}
	}
	return s.saveDoc(ctx, storage.KeyIncidents, docs)
}

func (s *Store) saveDoc(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("records: marshal %s: %w", key, err)
	}
	if err := s.kv.Save(ctx, key, data); err != nil {
		return fmt.Errorf("records: persist %s: %w", key, err)
	}
	return nil
}

func (s *Store) loadDoc(ctx context.Context, key string, v interface{}) error {
	data, found, err := s.kv.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("records: load %s: %w", key, err)
	}
	if !found || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("records: decode %s: %w", key, err)
	}
	return nil
}
