// Package auth manages the registered-user list and the session pointer
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"trending-block/internal/store"
	"trending-block/pkg/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	// ErrNotFound is returned when a login email has no registered account
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when a registration email is already taken
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrMissingField is returned when a registration field is empty
	ErrMissingField = errors.New("name and email are required")
)

// Service manages registered accounts and the single current-user pointer.
// There is no credential check by design: knowledge of a registered email is
// sufficient to authenticate.
type Service struct {
	store  *store.Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new identity service backed by the given store
func NewService(st *store.Store) *Service {
	return &Service{
		store:  st,
		logger: slog.Default(),
	}
}

// BootstrapUsers seeds the three fixed accounts when no user list exists yet.
// Idempotent: an already-populated store is left untouched.
func (s *Service) BootstrapUsers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	seed := []models.User{
		{ID: "1", Email: "jd1680711@gmail.com", Name: "Main Admin", Role: models.RoleMainAdmin},
		{ID: "2", Email: "admin@admin.com", Name: "Admin User", Role: models.RoleAdmin},
		{ID: "3", Email: "user@user.com", Name: "Regular User", Role: models.RoleUser},
	}

	if err := s.store.Set(store.KeyUsers, seed); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	s.logger.Info("Seeded initial accounts", "count", len(seed))
	return nil
}

// Login authenticates by case-insensitive exact email match and sets the
// session pointer on success
func (s *Service) Login(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return nil, err
	}

	user, found := lo.Find(users, func(u models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if !found {
		return nil, ErrNotFound
	}

	if err := s.store.Set(store.KeyCurrentUser, user); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// Register creates a USER-role account, appends it to the registered list and
// makes it the current session user
func (s *Service) Register(name, email string) (*models.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return nil, err
	}

	taken := lo.SomeBy(users, func(u models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if taken {
		return nil, ErrDuplicateEmail
	}

	user := models.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  models.RoleUser,
	}

	users = append(users, user)
	if err := s.store.Set(store.KeyUsers, users); err != nil {
		return nil, fmt.Errorf("failed to persist users: %w", err)
	}
	if err := s.store.Set(store.KeyCurrentUser, user); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	return &user, nil
}

// Logout clears the session pointer; the registered list is untouched
func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(store.KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return nil
}

// CurrentUser returns the session user, or nil when anonymous
func (s *Service) CurrentUser() (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *models.User
	if err := s.store.Get(store.KeyCurrentUser, &user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUserRole overwrites the target user's role. When the target is the
// current session user the session snapshot is refreshed to match.
func (s *Service) UpdateUserRole(userID string, role models.UserRole) error {
	if !models.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return err
	}

	idx := lo.IndexOf(lo.Map(users, func(u models.User, _ int) string { return u.ID }), userID)
	if idx < 0 {
		return ErrNotFound
	}

	users[idx].Role = role
	if err := s.store.Set(store.KeyUsers, users); err != nil {
		return fmt.Errorf("failed to persist users: %w", err)
	}

	var current *models.User
	if err := s.store.Get(store.KeyCurrentUser, &current); err != nil {
		return err
	}
	if current != nil && current.ID == userID {
		if err := s.store.Set(store.KeyCurrentUser, users[idx]); err != nil {
			return fmt.Errorf("failed to refresh session: %w", err)
		}
	}

	s.logger.Info("User role updated", "user_id", userID, "role", role)
	return nil
}

// ListUsers returns the full registered list in insertion order
func (s *Service) ListUsers() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.users()
}

// users reads the registered list; callers must hold the mutex
func (s *Service) users() ([]models.User, error) {
	var users []models.User
	if err := s.store.Get(store.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	return users, nil
}
