package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinicdesk/internal/storage"
)

// User is a login account persisted under the "users" storage key.
// Patient-role accounts carry the id of the patient record they are linked
// to. Passwords are stored as bcrypt hashes.
type User struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
	PatientID    string `json:"patientId,omitempty"`
}

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service loads user accounts and issues session tokens.
type Service struct {
	kv  storage.KV
	cfg TokenConfig
	now func() time.Time
}

func NewService(kv storage.KV, cfg TokenConfig) *Service {
	return &Service{kv: kv, cfg: cfg, now: time.Now}
}

// Initialize seeds the demo accounts when the users document has never been
// saved. Idempotent; existing accounts are never overwritten.
func (s *Service) Initialize(ctx context.Context) error {
	if _, found, err := s.kv.Load(ctx, storage.KeyUsers); err != nil {
		return fmt.Errorf("auth: probe %s: %w", storage.KeyUsers, err)
	} else if found {
		return nil
	}
	users, err := seedUsers()
	if err != nil {
		return err
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("auth: marshal users: %w", err)
	}
	if err := s.kv.Save(ctx, storage.KeyUsers, data); err != nil {
		return fmt.Errorf("auth: persist users: %w", err)
	}
	return nil
}

// Login verifies the credentials and returns the identity plus a signed
// session token.
func (s *Service) Login(ctx context.Context, email, password string) (Identity, string, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return Identity{}, "", err
	}
	for _, u := range users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return Identity{}, "", ErrInvalidCredentials
		}
		id := Identity{UserID: u.ID, Name: u.Name, Role: u.Role, PatientID: u.PatientID}
		token, err := IssueToken(s.cfg, id, s.now())
		if err != nil {
			return Identity{}, "", fmt.Errorf("auth: sign token: %w", err)
		}
		return id, token, nil
	}
	return Identity{}, "", ErrInvalidCredentials
}

func (s *Service) loadUsers(ctx context.Context) ([]User, error) {
	data, found, err := s.kv.Load(ctx, storage.KeyUsers)
	if err != nil {
		return nil, fmt.Errorf("auth: load users: %w", err)
	}
	if !found || len(data) == 0 {
		return nil, nil
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("auth: decode users: %w", err)
	}
	return users, nil
}

// Demo accounts for first-run use: one administrator and one patient linked
// to the seeded patient record.
func seedUsers() ([]User, error) {
	type account struct {
		id, role, email, name, password, patientID string
	}
	accounts := []account{
		{id: "1", role: RoleAdmin, email: "admin@entnt.in", name: "Dr. Smith", password: "admin123"},
		{id: "2", role: RolePatient, email: "john@entnt.in", name: "John Doe", password: "patient123", patientID: "p1"},
	}
	users := make([]User, 0, len(accounts))
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash seed password: %w", err)
		}
		users = append(users, User{
			ID:           a.id,
			Role:         a.role,
			Email:        a.email,
			Name:         a.name,
			PasswordHash: string(hash),
			PatientID:    a.patientID,
		})
	}
	return users, nil
}
