package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/bookcourier/api/internal/domain"
	"github.com/bookcourier/api/internal/repositories"
)

const roleAssignmentIDPrefix = "rol_"

var (
	// ErrUserInvalidInput signals the caller provided invalid data.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates no role or account exists for the email.
	ErrUserNotFound = errors.New("user: not found")
)

var knownRoles = []string{
	string(domain.RoleAdmin),
	string(domain.RoleLibrarian),
	string(domain.RoleUser),
}

// UserServiceDeps bundles collaborators required to construct the user service.
type UserServiceDeps struct {
	Users       repositories.UserRepository
	Roles       repositories.RoleRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	users  repositories.UserRepository
	roles  repositories.RoleRepository
	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Roles == nil {
		return nil, errors.New("user service: role repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &userService{
		users: deps.Users,
		roles: deps.Roles,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// AssignRole records a role grant and mirrors it into the users collection
// when no account exists yet for the email.
func (s *userService) AssignRole(ctx context.Context, cmd AssignRoleCommand) (RoleAssignment, error) {
	email, role, err := normalizeRoleInput(cmd.Email, cmd.Role)
	if err != nil {
		return RoleAssignment{}, err
	}

	now := s.clock()
	assignment := RoleAssignment{
		ID:        roleAssignmentIDPrefix + s.newID(),
		Email:     email,
		Role:      domain.Role(role),
		CreatedAt: now,
	}

	if err := s.roles.Insert(ctx, assignment); err != nil {
		return RoleAssignment{}, s.mapRepositoryError(err)
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if !isNotFound(err) {
			return RoleAssignment{}, s.mapRepositoryError(err)
		}
		account := UserAccount{
			Email:     email,
			Role:      domain.Role(role),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Upsert(ctx, account); err != nil {
			return RoleAssignment{}, s.mapRepositoryError(err)
		}
	}

	return assignment, nil
}

func (s *userService) GetRole(ctx context.Context, email string) (RoleAssignment, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return RoleAssignment{}, fmt.Errorf("%w: email is required", ErrUserInvalidInput)
	}

	assignment, err := s.roles.FindByEmail(ctx, normalized)
	if err != nil {
		return RoleAssignment{}, s.mapRepositoryError(err)
	}
	return assignment, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]RoleAssignment, error) {
	assignments, err := s.roles.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return assignments, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]UserAccount, error) {
	accounts, err := s.users.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return accounts, nil
}

// UpdateRole upserts the account-level role. A missing account is created
// rather than rejected.
func (s *userService) UpdateRole(ctx context.Context, cmd UpdateRoleCommand) (UserAccount, error) {
	email, role, err := normalizeRoleInput(cmd.Email, cmd.Role)
	if err != nil {
		return UserAccount{}, err
	}

	now := s.clock()
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !isNotFound(err) {
			return UserAccount{}, s.mapRepositoryError(err)
		}
		account = UserAccount{Email: email, CreatedAt: now}
	}

	account.Role = domain.Role(role)
	account.UpdatedAt = now

	if err := s.users.Upsert(ctx, account); err != nil {
		return UserAccount{}, s.mapRepositoryError(err)
	}
	return account, nil
}

func (s *userService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrUserNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("user: repository unavailable: %w", err)
		}
	}

	return err
}

func normalizeRoleInput(email, role string) (string, string, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" {
		return "", "", fmt.Errorf("%w: email is required", ErrUserInvalidInput)
	}
	normalizedRole := strings.ToLower(strings.TrimSpace(role))
	if !slices.Contains(knownRoles, normalizedRole) {
		return "", "", fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, role)
	}
	return normalizedEmail, normalizedRole, nil
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
