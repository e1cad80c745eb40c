// AngelaMos | 2026
// handler_test.go

package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
	"github.com/carterperez-dev/solution-ledger/internal/user"
)

// headerCaller stands in for the bearer authenticator.
func headerCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
			UserID: r.Header.Get("X-Caller"),
			Role:   r.Header.Get("X-Caller-Role"),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	t      *testing.T
	router chi.Router
}

func (c client) do(method, path, caller, role, body string) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller", caller)
	req.Header.Set("X-Caller-Role", role)

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestHandlerLifecycle(t *testing.T) {
	f := newFixture()

	router := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(router, headerCaller, func(r chi.Router) {
		r.Get("/probe", func(w http.ResponseWriter, r *http.Request) {
			core.OK(w, chi.URLParam(r, "eventID"))
		})
	})
	c := client{t: t, router: router}

	rec, env := c.do(http.MethodPost, "/events/", f.owner, user.RoleUser, `{"name":"Fest","year":1800}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Message, "year")

	rec, env = c.do(http.MethodPost, "/events/", f.owner, user.RoleUser, `{"name":"Fest","year":2025}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created EventResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, access.RoleOwner, created.Role)
	path := "/events/" + created.ID

	rec, _ = c.do(http.MethodGet, path, f.other, user.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	share := fmt.Sprintf(`{"shared_with":[{"user_id":%q,"role":"viewer"}]}`, f.other)
	rec, env = c.do(http.MethodPost, path+"/share", f.owner, user.RoleUser, share)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var shared EventResponse
	require.NoError(t, json.Unmarshal(env.Data, &shared))
	require.Len(t, shared.SharedWith, 1)
	assert.Equal(t, "Yara", shared.SharedWith[0].Name)

	rec, env = c.do(http.MethodGet, path, f.other, user.RoleUser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var seen EventResponse
	require.NoError(t, json.Unmarshal(env.Data, &seen))
	assert.Equal(t, access.RoleViewer, seen.Role)

	rec, _ = c.do(http.MethodPut, path, f.other, user.RoleUser, `{"name":"Hijacked"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, env = c.do(http.MethodGet, path+"/probe", f.owner, user.RoleUser, "")
	assert.JSONEq(t, fmt.Sprintf("%q", created.ID), string(env.Data), "nested routes see the event id")

	rec, _ = c.do(http.MethodDelete, path, f.third, user.RoleAdmin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = c.do(http.MethodGet, path, f.owner, user.RoleUser, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = c.do(http.MethodGet, "/events/deleted", f.owner, user.RoleUser, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = c.do(http.MethodGet, "/events/deleted", f.third, user.RoleSuperAdmin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted []EventResponse
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.Len(t, deleted, 1)

	rec, _ = c.do(http.MethodPut, path+"/restore", f.owner, user.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
