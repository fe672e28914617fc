package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/bookcourier/api/internal/domain"
	"github.com/bookcourier/api/internal/services"
)

type stubUserService struct {
	assignFn     func(context.Context, services.AssignRoleCommand) (services.RoleAssignment, error)
	getRoleFn    func(context.Context, string) (services.RoleAssignment, error)
	listRolesFn  func(context.Context) ([]services.RoleAssignment, error)
	listUsersFn  func(context.Context) ([]services.UserAccount, error)
	updateRoleFn func(context.Context, services.UpdateRoleCommand) (services.UserAccount, error)
}

func (s *stubUserService) AssignRole(ctx context.Context, cmd services.AssignRoleCommand) (services.RoleAssignment, error) {
	if s.assignFn != nil {
		return s.assignFn(ctx, cmd)
	}
	return services.RoleAssignment{}, errors.New("not implemented")
}

func (s *stubUserService) GetRole(ctx context.Context, email string) (services.RoleAssignment, error) {
	if s.getRoleFn != nil {
		return s.getRoleFn(ctx, email)
	}
	return services.RoleAssignment{}, errors.New("not implemented")
}

func (s *stubUserService) ListRoles(ctx context.Context) ([]services.RoleAssignment, error) {
	if s.listRolesFn != nil {
		return s.listRolesFn(ctx)
	}
	return nil, nil
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]services.UserAccount, error) {
	if s.listUsersFn != nil {
		return s.listUsersFn(ctx)
	}
	return nil, nil
}

func (s *stubUserService) UpdateRole(ctx context.Context, cmd services.UpdateRoleCommand) (services.UserAccount, error) {
	if s.updateRoleFn != nil {
		return s.updateRoleFn(ctx, cmd)
	}
	return services.UserAccount{}, errors.New("not implemented")
}

func newUserRouter(service services.UserService) chi.Router {
	handler := NewUserHandlers(service)
	router := chi.NewRouter()
	handler.Routes(router)
	return router
}

func TestUserHandlersAssignRole(t *testing.T) {
	now := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)

	var captured services.AssignRoleCommand
	service := &stubUserService{
		assignFn: func(_ context.Context, cmd services.AssignRoleCommand) (services.RoleAssignment, error) {
			captured = cmd
			return services.RoleAssignment{
				ID:        "rol_123",
				Email:     "lib@example.com",
				Role:      domain.RoleLibrarian,
				CreatedAt: now,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/user-role", strings.NewReader(`{"email":"Lib@Example.com","role":"librarian"}`))
	rr := httptest.NewRecorder()
	newUserRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Email != "Lib@Example.com" || captured.Role != "librarian" {
		t.Fatalf("unexpected command %#v", captured)
	}

	var payload rolePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != "rol_123" || payload.Role != "librarian" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestUserHandlersGetRoleNotFound(t *testing.T) {
	service := &stubUserService{
		getRoleFn: func(_ context.Context, email string) (services.RoleAssignment, error) {
			return services.RoleAssignment{}, fmt.Errorf("%w: %s", services.ErrUserNotFound, email)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/user-role/missing@example.com", nil)
	rr := httptest.NewRecorder()
	newUserRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestUserHandlersListRoles(t *testing.T) {
	service := &stubUserService{
		listRolesFn: func(context.Context) ([]services.RoleAssignment, error) {
			return []services.RoleAssignment{
				{ID: "rol_1", Email: "a@example.com", Role: domain.RoleAdmin},
				{ID: "rol_2", Email: "b@example.com", Role: domain.RoleUser},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/user-roles", nil)
	rr := httptest.NewRecorder()
	newUserRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload roleListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(payload.Roles))
	}
}

func TestUserHandlersUpdateRole(t *testing.T) {
	var captured services.UpdateRoleCommand
	service := &stubUserService{
		updateRoleFn: func(_ context.Context, cmd services.UpdateRoleCommand) (services.UserAccount, error) {
			captured = cmd
			return services.UserAccount{Email: "lib@example.com", Role: domain.RoleAdmin}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/users/role/lib@example.com", strings.NewReader(`{"role":"admin"}`))
	rr := httptest.NewRecorder()
	newUserRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Email != "lib@example.com" || captured.Role != "admin" {
		t.Fatalf("unexpected command %#v", captured)
	}
}

func TestUserHandlersAssignRoleInvalid(t *testing.T) {
	service := &stubUserService{
		assignFn: func(_ context.Context, cmd services.AssignRoleCommand) (services.RoleAssignment, error) {
			return services.RoleAssignment{}, fmt.Errorf("%w: unknown role %q", services.ErrUserInvalidInput, cmd.Role)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/user-role", strings.NewReader(`{"email":"a@b.c","role":"superuser"}`))
	rr := httptest.NewRecorder()
	newUserRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
