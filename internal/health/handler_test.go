// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func readiness(t *testing.T, h *Handler) (int, ReadinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name       string
		db, redis  error
		wantCode   int
		wantStatus string
	}{
		{"all healthy", nil, nil, http.StatusOK, "ok"},
		{"redis down", nil, down, http.StatusOK, "degraded"},
		{"database down", down, nil, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(
				Dependency{Name: "database", Checker: pinger{tt.db}, Critical: true},
				Dependency{Name: "redis", Checker: pinger{tt.redis}},
			)
			h.SetReady(true)

			code, body := readiness(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Len(t, body.Checks, 2)
		})
	}
}

func TestReadinessLifecycle(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: pinger{}, Critical: true})

	code, body := readiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "starting", body.Status)

	h.SetReady(true)
	code, _ = readiness(t, h)
	assert.Equal(t, http.StatusOK, code)

	h.SetShutdown(true)
	code, body = readiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting_down", body.Status)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
