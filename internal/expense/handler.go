// AngelaMos | 2026
// handler.go

package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
	"github.com/carterperez-dev/solution-ledger/internal/storage"
)

const (
	attachmentField  = "attachments"
	multipartMemory  = 8 << 20
	defaultMaxUpload = 5 << 20
)

var allowedAttachmentTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
}

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
	maxAttachments int
}

// NewHandler builds the handler. maxUploadBytes caps each attachment.
func NewHandler(service *Service, maxUploadBytes int64, maxAttachments int) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUpload
	}
	if maxAttachments <= 0 {
		maxAttachments = DefaultMaxAttachments
	}

	return &Handler{
		service:        service,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: maxUploadBytes,
		maxAttachments: maxAttachments,
	}
}

// EventRoutes registers the routes nested under /events/{eventID}.
func (h *Handler) EventRoutes(r chi.Router) {
	r.Post("/expenses", h.Create)
	r.Get("/expenses", h.ListByEvent)
	r.Get("/expenses/deleted", h.ListDeleted)
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/expenses/{expenseID}", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Put("/restore", h.Restore)
		r.Post("/payments", h.AddPayment)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	amount, err := formDecimal(r, "amount")
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}
	paid, err := formDecimal(r, "paid_amount")
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	uploads, err := h.uploads(r)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	req := CreateExpenseRequest{
		EventID:       chi.URLParam(r, "eventID"),
		Name:          r.FormValue("name"),
		Category:      r.FormValue("category"),
		Amount:        amount,
		PaymentMethod: r.FormValue("payment_method"),
		PaidAmount:    paid,
		Attachments:   uploads,
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	entry, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	core.Created(w, ToExpenseResponse(*entry))
}

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	paid, err := formDecimal(r, "paid_amount")
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	uploads, err := h.uploads(r)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	req := AddPaymentRequest{
		PaidAmount:    paid,
		PaymentMethod: r.FormValue("payment_method"),
		Attachments:   uploads,
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	entry, err := h.service.AddPayment(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "expenseID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	core.OK(w, ToExpenseResponse(*entry))
}

func (h *Handler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListByEvent(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, ToExpenseResponses(entries))
}

func (h *Handler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListDeleted(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "eventID"),
	)
	if err != nil {
		core.HandleError(w, err, "event")
		return
	}

	core.OK(w, ToExpenseResponses(entries))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "expenseID"),
	)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	core.OK(w, ToExpenseResponse(*entry))
}

// Update accepts either a JSON body or a multipart form. In the form,
// payments is a JSON-encoded array.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, err := h.updateRequest(w, r)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	entry, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "expenseID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	core.OK(w, ToExpenseResponse(*entry))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "expenseID"),
	)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Restore(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "expenseID"),
	)
	if err != nil {
		core.HandleError(w, err, "expense")
		return
	}

	core.OK(w, ToExpenseResponse(*entry))
}

func (h *Handler) updateRequest(
	w http.ResponseWriter,
	r *http.Request,
) (UpdateExpenseRequest, error) {
	var req UpdateExpenseRequest

	if !isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, core.InvalidInputError("invalid request body")
		}
		return req, nil
	}

	if err := h.parseForm(w, r); err != nil {
		return req, err
	}

	if v, ok := formValue(r, "name"); ok {
		req.Name = &v
	}
	if v, ok := formValue(r, "category"); ok {
		req.Category = &v
	}
	if _, ok := formValue(r, "amount"); ok {
		amount, err := formDecimal(r, "amount")
		if err != nil {
			return req, err
		}
		req.Amount = &amount
	}
	if v, ok := formValue(r, "payments"); ok {
		var payments []PaymentInput
		if err := json.Unmarshal([]byte(v), &payments); err != nil {
			return req, core.InvalidInputError("payments must be a JSON array")
		}
		req.Payments = &payments
	}
	if v, ok := formValue(r, "attachment_payment_index"); ok {
		idx, err := strconv.Atoi(v)
		if err != nil {
			return req, core.InvalidInputError("attachment_payment_index must be an integer")
		}
		req.AttachmentPaymentIndex = idx
	}

	uploads, err := h.uploads(r)
	if err != nil {
		return req, err
	}
	req.Attachments = uploads

	return req, nil
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := h.maxUploadBytes*int64(h.maxAttachments) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return core.InvalidInputError("request body too large")
			}
			return core.InvalidInputError("invalid multipart form")
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return core.InvalidInputError("invalid form body")
	}
	return nil
}

// uploads reads every attachment part in order.
func (h *Handler) uploads(r *http.Request) ([]storage.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File[attachmentField]
	if len(files) > h.maxAttachments {
		return nil, core.InvalidInputError(
			fmt.Sprintf("at most %d attachments are allowed", h.maxAttachments),
		)
	}

	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.maxUploadBytes {
			return nil, core.InvalidInputError(
				fmt.Sprintf("%s exceeds the %d byte limit", fh.Filename, h.maxUploadBytes),
			)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open attachment: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		if int64(len(data)) > h.maxUploadBytes {
			return nil, core.InvalidInputError(
				fmt.Sprintf("%s exceeds the %d byte limit", fh.Filename, h.maxUploadBytes),
			)
		}

		contentType := http.DetectContentType(data)
		if ct, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = ct
		}
		if _, ok := allowedAttachmentTypes[contentType]; !ok {
			return nil, core.InvalidInputError(
				fmt.Sprintf("%s has unsupported type %s", fh.Filename, contentType),
			)
		}

		uploads = append(uploads, storage.Upload{
			Filename:    fh.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	return uploads, nil
}

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(ct, "multipart/")
}

func formValue(r *http.Request, key string) (string, bool) {
	if _, ok := r.Form[key]; !ok {
		return "", false
	}
	return strings.TrimSpace(r.Form.Get(key)), true
}

func formDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return decimal.Zero, core.InvalidInputError(key + " is required")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, core.InvalidInputError(key + " must be a number")
	}
	return d, nil
}
