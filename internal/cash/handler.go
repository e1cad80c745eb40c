// AngelaMos | 2026
// handler.go

package cash

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

// EventRoutes registers the routes nested under /events/{eventID}.
func (h *Handler) EventRoutes(r chi.Router) {
	r.Post("/collected-cash", h.Create)
	r.Get("/collected-cash", h.List)
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/collected-cash/{cashID}", func(r chi.Router) {
		r.Use(authenticator)

		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.Create(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.Created(w, h.respond(r, []Collection{*c})[0])
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.ListByEvent(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, h.respond(r, collections))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCollectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "cashID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "collected cash entry")
		return
	}

	core.OK(w, h.respond(r, []Collection{*c})[0])
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "cashID"),
	)
	if err != nil {
		core.HandleError(w, err, "collected cash entry")
		return
	}

	core.NoContent(w)
}

// respond resolves recorder names. A lookup failure only drops the names.
func (h *Handler) respond(r *http.Request, collections []Collection) []CollectionResponse {
	names, err := h.service.RecorderNames(r.Context(), collections)
	if err != nil {
		names = map[string]string{}
	}

	out := make([]CollectionResponse, 0, len(collections))
	for i := range collections {
		out = append(out, ToCollectionResponse(&collections[i], names[collections[i].RecordedBy]))
	}
	return out
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
