// AngelaMos | 2026
// handler.go

package event

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the event routes. Each nested func registers
// event-scoped sub-resources under /events/{eventID}.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	nested ...func(chi.Router),
) {
	r.Route("/events", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/deleted", h.ListDeleted)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Put("/restore", h.Restore)
			r.Post("/share", h.Share)

			for _, mount := range nested {
				mount(r)
			}
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.Created(w, ToEventResponse(event, access.RoleOwner))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	events, err := h.service.ListAccessible(r.Context(), userID)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToEventResponse(&events[i], events[i].RoleOf(userID)))
	}

	core.OK(w, out)
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListDeleted(r.Context(), middleware.GetUserRole(r.Context()))
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToEventResponse(&events[i], ""))
	}

	core.OK(w, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	event, role, err := h.service.Get(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, ToEventResponse(event, role))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, ToEventResponse(event, access.RoleOwner))
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.service.Share(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, ToEventResponse(event, access.RoleOwner))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.service.SoftDelete(
		ctx,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.Restore(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, ToEventResponse(event, access.RoleOwner))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}
