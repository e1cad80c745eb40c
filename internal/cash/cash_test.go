// AngelaMos | 2026
// cash_test.go

package cash

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
	"github.com/carterperez-dev/solution-ledger/internal/user"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]Collection
}

func (m *memRepo) Create(_ context.Context, c *Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.UpdatedAt = time.Now()
	m.rows[c.ID] = *c
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, core.NotFoundError("collected cash entry")
	}
	return &c, nil
}

func (m *memRepo) ListByEvent(_ context.Context, eventID string) ([]Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Collection
	for _, c := range m.rows {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CollectedAt.After(out[j].CollectedAt) })
	return out, nil
}

func (m *memRepo) Update(_ context.Context, c *Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return core.ErrNotFound
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type fakeEvents struct {
	id     string
	owner  string
	grants []access.Grant
}

func (f *fakeEvents) Access(_ context.Context, eventID, userID string) (access.Role, error) {
	if eventID != f.id {
		return access.RoleNone, core.NotFoundError("event")
	}
	return access.Resolve(f.owner, f.grants, userID), nil
}

type fakeUsers map[string]user.User

func (f fakeUsers) GetUsers(_ context.Context, ids []string) (map[string]user.User, error) {
	out := map[string]user.User{}
	for _, id := range ids {
		if u, ok := f[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fixture struct {
	svc    *Service
	repo   *memRepo
	events *fakeEvents
	owner  string
	viewer string
}

func newFixture() *fixture {
	f := &fixture{
		repo:   &memRepo{rows: map[string]Collection{}},
		owner:  uuid.NewString(),
		viewer: uuid.NewString(),
	}
	f.events = &fakeEvents{
		id:     uuid.NewString(),
		owner:  f.owner,
		grants: []access.Grant{{UserID: f.viewer, Role: access.RoleViewer}},
	}
	f.svc = NewService(f.repo, f.events, fakeUsers{
		f.owner: {ID: f.owner, Name: "Treasurer"},
	})
	return f
}

func TestCreateAndList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Create(ctx, f.owner, f.events.id, CreateCollectionRequest{
		Name:        "Asha",
		Amount:      decimal.NewFromInt(500),
		CollectedAt: &early,
	})
	require.NoError(t, err)

	latest, err := f.svc.Create(ctx, f.owner, f.events.id, CreateCollectionRequest{
		Name:   "Ravi",
		Amount: decimal.NewFromInt(250),
	})
	require.NoError(t, err)
	assert.Equal(t, f.owner, latest.RecordedBy)

	list, err := f.svc.ListByEvent(ctx, f.viewer, f.events.id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ravi", list[0].Name)
}

func TestCreateValidationAndAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, f.events.id, CreateCollectionRequest{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Create(ctx, f.owner, f.events.id, CreateCollectionRequest{Name: "A"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Create(ctx, f.viewer, f.events.id, CreateCollectionRequest{
		Name:   "A",
		Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.ListByEvent(ctx, uuid.NewString(), f.events.id)
	assert.ErrorIs(t, err, core.ErrForbidden)

	assert.Empty(t, f.repo.rows)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	c, err := f.svc.Create(ctx, f.owner, f.events.id, CreateCollectionRequest{
		Name:   "Asha",
		Amount: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.viewer, c.ID, UpdateCollectionRequest{Name: "X", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, core.ErrForbidden)

	updated, err := f.svc.Update(ctx, f.owner, c.ID, UpdateCollectionRequest{
		Name:   "Asha K",
		Amount: decimal.NewFromInt(650),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(650).Equal(updated.Amount))

	_, err = f.svc.Update(ctx, f.owner, uuid.NewString(), UpdateCollectionRequest{Name: "X", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, f.owner, c.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.owner, c.ID), core.ErrNotFound)
}

func withCaller(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: userID,
				Role:   middleware.RoleUser,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestHandlerCreate(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.With(withCaller(f.owner)).Route("/events/{eventID}", h.EventRoutes)

	body := `{"name":"Meera","amount":1200.50}`
	req := httptest.NewRequest(http.MethodPost, "/events/"+f.events.id+"/collected-cash", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    CollectionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Meera", resp.Data.Name)
	assert.Equal(t, "Treasurer", resp.Data.RecordedBy.Name)
	assert.True(t, decimal.RequireFromString("1200.5").Equal(resp.Data.Amount))
}

func TestSubCentAmountRejected(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.With(withCaller(f.owner)).Route("/events/{eventID}", h.EventRoutes)

	body := `{"name":"Meera","amount":10.005}`
	req := httptest.NewRequest(http.MethodPost, "/events/"+f.events.id+"/collected-cash", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Empty(t, f.repo.rows)

	c, err := f.svc.Create(context.Background(), f.owner, f.events.id, CreateCollectionRequest{
		Name:   "Meera",
		Amount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), f.owner, c.ID, UpdateCollectionRequest{
		Name:   "Meera",
		Amount: decimal.RequireFromString("10.005"),
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.True(t, decimal.RequireFromString("10").Equal(f.repo.rows[c.ID].Amount))
}

func TestHandlerDeleteMissing(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	h.RegisterRoutes(r, withCaller(f.owner))

	req := httptest.NewRequest(http.MethodDelete, "/collected-cash/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
