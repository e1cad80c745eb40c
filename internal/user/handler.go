// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

// ShareCandidates lists the users an event owner may still share with.
type ShareCandidates interface {
	AvailableToShare(
		ctx context.Context,
		callerID, eventID string,
	) ([]UserSummary, error)
}

type Handler struct {
	service    *Service
	candidates ShareCandidates
	validator  *validator.Validate
}

func NewHandler(service *Service, candidates ShareCandidates) *Handler {
	return &Handler{
		service:    service,
		candidates: candidates,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		if h.candidates != nil {
			r.Get("/available-to-share", h.AvailableToShare)
		}
	})
}

func (h *Handler) AvailableToShare(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		core.BadRequest(w, "event_id is required")
		return
	}

	users, err := h.candidates.AvailableToShare(
		r.Context(),
		middleware.GetUserID(r.Context()),
		eventID,
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	if users == nil {
		users = []UserSummary{}
	}
	core.OK(w, users)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateMe(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

// RegisterAdminRoutes registers account management for admins. Role
// changes are further limited to super admins.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/", h.ProvisionUser)
		r.Get("/", h.ListUsers)
		r.Get("/created", h.ListCreatedUsers)
		r.With(superAdminOnly).Put("/{userID}/role", h.UpdateUserRole)
	})
}

func (h *Handler) ProvisionUser(w http.ResponseWriter, r *http.Request) {
	var req ProvisionUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ctx := r.Context()
	user, err := h.service.Provision(
		ctx,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.Created(w, ToUserResponse(user))
}

// ListUsers returns every other account ordered by name.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 50),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
	}

	users, total, err := h.service.ListUsers(
		r.Context(),
		middleware.GetUserID(r.Context()),
		params,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) ListCreatedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListCreatedBy(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponseList(users))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), userID, req.Role)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(user))
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
