// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

func asRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: "caller",
				Role:   role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRouter(role string) chi.Router {
	h := NewHandler(HandlerConfig{
		DBStats:        func() sql.DBStats { return sql.DBStats{OpenConnections: 3, InUse: 1} },
		DBPing:         func(context.Context) error { return nil },
		RedisPing:      func(context.Context) error { return errors.New("down") },
		StorageEnabled: true,
	})

	r := chi.NewRouter()
	h.RegisterRoutes(r, asRole(role), middleware.RequireAdmin)
	return r
}

func TestSystemStats(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(middleware.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Database.Healthy)
	assert.Equal(t, 3, body.Data.Database.Stats.OpenConnections)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Nil(t, body.Data.Redis.Stats)
	assert.True(t, body.Data.Storage.Enabled)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}

func TestStatsRequireAdmin(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(middleware.RoleUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/runtime", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
