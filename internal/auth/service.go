package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/areys-travel/areys/internal/shared"
)

// PermissionChecker answers whether a role holds a category/action
// permission. Implemented by the snapshot store.
type PermissionChecker interface {
	Has(role, category, action string) bool
}

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Deactivated actors
// are rejected after the credential check so the caller can distinguish
// a blocked account from a bad password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Actor, error) {
	actor, hash, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !actor.Active {
		return actor, shared.ErrInactiveUser
	}
	return actor, nil
}

// Register creates a self-registered account owner. Owners bootstrap
// straight into the Admin role with themselves as creator.
func (s *Service) Register(ctx context.Context, email, password string) (*Actor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	actor := Actor{
		ID:     id,
		Email:  email,
		Name:   nameFromEmail(email),
		Role:   RoleAdmin,
		Active: true,
	}
	if err := s.repo.Create(ctx, actor, string(hash)); err != nil {
		if isDuplicate(err) {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	return &actor, nil
}

// CreateStaff registers a managed actor under the creator's account.
// The companion managed_users row is a denormalized staff listing; its
// insert failure is logged by the caller but does not fail the creation.
func (s *Service) CreateStaff(ctx context.Context, creator *Actor, can PermissionChecker, email, password, role, name string, agencyName *string) (*Actor, error) {
	if creator == nil {
		return nil, shared.ErrPermissionDenied
	}
	if !creator.IsAdmin() && !can.Has(creator.Role, "settings", "user_create") {
		return nil, shared.ErrPermissionDenied
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	createdBy := creator.ID
	actor := Actor{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       name,
		Role:       role,
		Active:     true,
		CreatedBy:  &createdBy,
		AgencyName: agencyName,
	}
	if err := s.repo.Create(ctx, actor, string(hash)); err != nil {
		if isDuplicate(err) {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	managedErr := s.repo.InsertManagedUser(ctx, creator.ID, actor)
	if managedErr != nil {
		return &actor, managedErr
	}
	return &actor, nil
}

// Lookup loads an actor by id.
func (s *Service) Lookup(ctx context.Context, id string) (*Actor, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, actor *Actor, current, next string) error {
	if actor == nil {
		return shared.ErrInvalidCredentials
	}
	if _, err := s.Authenticate(ctx, actor.Email, current); err != nil {
		return err
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, actor.ID, string(hash))
}

// UpdateProfile stores the actor's display name and optional agency label.
func (s *Service) UpdateProfile(ctx context.Context, actor *Actor, name string, agencyName *string) error {
	if actor == nil {
		return shared.ErrInvalidCredentials
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("auth: name must not be empty")
	}
	return s.repo.UpdateProfile(ctx, actor.ID, name, agencyName)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.ErrWeakPassword
	}
	return nil
}

func nameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func isDuplicate(err error) bool {
	return errors.Is(err, shared.ErrDuplicate)
}
