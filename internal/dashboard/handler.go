// AngelaMos | 2026
// handler.go

package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/dashboard/{eventID}", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Summary)
		r.Get("/report.pdf", h.Report)
	})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, summary)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	body, err := RenderPDF(summary)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		`attachment; filename="%s-%d-statement.pdf"`,
		slug(summary.EventName),
		summary.Year,
	))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = w.Write(body)
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "event"
	}
	return out
}
