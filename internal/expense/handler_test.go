// AngelaMos | 2026
// handler_test.go

package expense

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 24)...)

type part struct {
	filename string
	data     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(attachmentField, f.filename)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (f *fixture) router(h *Handler) chi.Router {
	caller := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: f.owner,
				Role:   middleware.RoleUser,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	r := chi.NewRouter()
	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Use(caller)
		h.EventRoutes(r)
	})
	h.RegisterRoutes(r, caller)
	return r
}

func upiFields() map[string]string {
	return map[string]string{
		"name":           "Tent",
		"category":       "Infra",
		"amount":         "1200.50",
		"payment_method": "upi",
		"paid_amount":    "200",
	}
}

func TestCreateMultipart(t *testing.T) {
	f := newFixture()
	router := f.router(NewHandler(f.svc, 1<<20, DefaultMaxAttachments))

	body, contentType := multipartBody(t, upiFields(), part{"receipt.png", pngBytes})
	req := httptest.NewRequest(http.MethodPost, "/events/"+f.events.id+"/expenses", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		Data ExpenseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	got := env.Data
	assert.True(t, got.Amount.Equal(dec("1200.50")))
	assert.True(t, got.PendingAmount.Equal(dec("1000.50")))
	assert.Equal(t, StatusPartiallyPaid, got.PaymentStatus)
	require.Len(t, got.Payments, 1)
	assert.Len(t, got.Payments[0].AttachmentURLs, 1)
	assert.Len(t, got.Payments[0].AttachmentKeys, 1)
	assert.Equal(t, "Owner", got.PaidBy.Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses/"+got.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateMultipartRejections(t *testing.T) {
	tooMany := make([]part, DefaultMaxAttachments+1)
	for i := range tooMany {
		tooMany[i] = part{"r.png", pngBytes}
	}

	missingAmount := upiFields()
	delete(missingAmount, "amount")

	subCent := upiFields()
	subCent["amount"] = "100.005"

	tests := []struct {
		name     string
		maxBytes int64
		fields   map[string]string
		files    []part
	}{
		{"unsupported type", 1 << 20, upiFields(), []part{{"notes.txt", []byte("plain text notes")}}},
		{"too many attachments", 1 << 20, upiFields(), tooMany},
		{"attachment too large", 16, upiFields(), []part{{"big.png", pngBytes}}},
		{"missing amount", 1 << 20, missingAmount, []part{{"r.png", pngBytes}}},
		{"sub-cent amount", 1 << 20, subCent, []part{{"r.png", pngBytes}}},
		{"upi without attachment", 1 << 20, upiFields(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			router := f.router(NewHandler(f.svc, tt.maxBytes, DefaultMaxAttachments))

			body, contentType := multipartBody(t, tt.fields, tt.files...)
			req := httptest.NewRequest(http.MethodPost, "/events/"+f.events.id+"/expenses", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Empty(t, f.store.stored, "nothing is uploaded for a rejected request")
		})
	}
}
