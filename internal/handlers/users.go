package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookcourier/api/internal/platform/httpx"
	"github.com/bookcourier/api/internal/repositories"
	"github.com/bookcourier/api/internal/services"
)

const maxUserBodySize = 16 * 1024

// UserHandlers exposes the role assignment and account endpoints.
type UserHandlers struct {
	users services.UserService
}

// NewUserHandlers constructs a new UserHandlers instance.
func NewUserHandlers(users services.UserService) *UserHandlers {
	return &UserHandlers{users: users}
}

// Routes registers the role and account endpoints. They span several top
// level paths, so the registrar is applied to the API group directly.
func (h *UserHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/user-role", h.assignRole)
	r.Get("/user-roles", h.listRoles)
	r.Get("/user-role/{email}", h.getRole)
	r.Get("/users", h.listUsers)
	r.Put("/users/role/{email}", h.updateRole)
}

func (h *UserHandlers) assignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUserBodySize)
	if err != nil {
		writeOrderBodyError(ctx, w, err)
		return
	}

	var req roleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	assignment, err := h.users.AssignRole(ctx, services.AssignRoleCommand{
		Email: strings.TrimSpace(req.Email),
		Role:  strings.TrimSpace(req.Role),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildRolePayload(assignment))
}

func (h *UserHandlers) listRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	assignments, err := h.users.ListRoles(ctx)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	payload := roleListResponse{Roles: make([]rolePayload, 0, len(assignments))}
	for _, assignment := range assignments {
		payload.Roles = append(payload.Roles, buildRolePayload(assignment))
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *UserHandlers) getRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	assignment, err := h.users.GetRole(ctx, chi.URLParam(r, "email"))
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildRolePayload(assignment))
}

func (h *UserHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	accounts, err := h.users.ListUsers(ctx)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	payload := userListResponse{Users: make([]userPayload, 0, len(accounts))}
	for _, account := range accounts {
		payload.Users = append(payload.Users, buildUserPayload(account))
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *UserHandlers) updateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUserBodySize)
	if err != nil {
		writeOrderBodyError(ctx, w, err)
		return
	}

	var req updateRoleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	account, err := h.users.UpdateRole(ctx, services.UpdateRoleCommand{
		Email: chi.URLParam(r, "email"),
		Role:  strings.TrimSpace(req.Role),
	})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildUserPayload(account))
}

type roleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type roleListResponse struct {
	Roles []rolePayload `json:"roles"`
}

type rolePayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type userListResponse struct {
	Users []userPayload `json:"users"`
}

type userPayload struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func buildRolePayload(assignment services.RoleAssignment) rolePayload {
	return rolePayload{
		ID:        assignment.ID,
		Email:     assignment.Email,
		Role:      string(assignment.Role),
		CreatedAt: formatTime(assignment.CreatedAt),
	}
}

func buildUserPayload(account services.UserAccount) userPayload {
	return userPayload{
		Email:     account.Email,
		Role:      string(account.Role),
		CreatedAt: formatTime(account.CreatedAt),
		UpdatedAt: formatTime(account.UpdatedAt),
	}
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "user not found", http.StatusNotFound))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process user request", http.StatusInternalServerError))
	}
}
