// AngelaMos | 2026
// service_test.go

package event

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/user"
)

type memRepo struct {
	mu     sync.Mutex
	events map[string]Event
}

func newMemRepo() *memRepo {
	return &memRepo{events: map[string]Event{}}
}

func (m *memRepo) Create(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.events[e.ID] = *e
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	e.SharedWith = append(Grants{}, e.SharedWith...)
	return &e, nil
}

func (m *memRepo) ListAccessible(_ context.Context, userID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if !e.IsDeleted && e.RoleOf(userID).CanRead() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (m *memRepo) ListDeleted(_ context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.IsDeleted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return core.ErrNotFound
	}
	m.events[e.ID] = *e
	return nil
}

func (m *memRepo) SetDeleted(
	_ context.Context,
	id string,
	deletedAt *time.Time,
	updatedBy string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return core.ErrNotFound
	}
	e.IsDeleted = deletedAt != nil
	e.DeletedAt = deletedAt
	e.UpdatedBy = &updatedBy
	m.events[id] = e
	return nil
}

type memDirectory struct {
	users map[string]user.User
}

func (d *memDirectory) GetUsers(_ context.Context, ids []string) (map[string]user.User, error) {
	out := map[string]user.User{}
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *memDirectory) ListExcept(_ context.Context, exclude []string) ([]user.UserSummary, error) {
	skip := map[string]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	var out []user.UserSummary
	for _, u := range d.users {
		if !skip[u.ID] {
			out = append(out, user.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
		}
	}
	return out, nil
}

type fixture struct {
	svc   *Service
	repo  *memRepo
	owner string
	other string
	third string
}

func newFixture() *fixture {
	f := &fixture{
		repo:  newMemRepo(),
		owner: uuid.NewString(),
		other: uuid.NewString(),
		third: uuid.NewString(),
	}
	dir := &memDirectory{users: map[string]user.User{
		f.owner: {ID: f.owner, Name: "Xavier", Email: "x@example.com", Role: user.RoleUser},
		f.other: {ID: f.other, Name: "Yara", Email: "y@example.com", Role: user.RoleUser},
		f.third: {ID: f.third, Name: "Zed", Email: "z@example.com", Role: user.RoleUser},
	}}
	f.svc = NewService(f.repo, dir)
	return f
}

func (f *fixture) create(t *testing.T) *Event {
	t.Helper()
	e, err := f.svc.Create(context.Background(), f.owner, CreateEventRequest{
		Name: "Annual Fest",
		Year: 2024,
	})
	require.NoError(t, err)
	return e
}

func TestCreateRequiresNameAndYear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, CreateEventRequest{Name: "  ", Year: 2024})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Create(ctx, f.owner, CreateEventRequest{Name: "Fest"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	e := f.create(t)
	assert.Equal(t, f.owner, e.OwnerID)
	assert.Empty(t, e.SharedWith)
	assert.False(t, e.IsDeleted)
}

func TestGetByStrangerIsForbidden(t *testing.T) {
	f := newFixture()
	e := f.create(t)

	_, _, err := f.svc.Get(context.Background(), f.other, e.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	got, role, err := f.svc.Get(context.Background(), f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleOwner, role)
	assert.Equal(t, 2024, got.Year)
}

func TestGetMissingOrDeleted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.svc.Get(ctx, f.owner, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, _, err = f.svc.Get(ctx, f.owner, "not-an-id")
	assert.ErrorIs(t, err, core.ErrNotFound)

	e := f.create(t)
	require.NoError(t, f.svc.SoftDelete(ctx, f.owner, user.RoleUser, e.ID))

	_, _, err = f.svc.Get(ctx, f.owner, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestShareEnrichesGrants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.create(t)

	updated, err := f.svc.Share(ctx, f.owner, e.ID, ShareRequest{
		SharedWith: []GrantInput{{UserID: f.other, Role: "viewer"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.SharedWith, 1)
	assert.Equal(t, "Yara", updated.SharedWith[0].Name)
	assert.Equal(t, "y@example.com", updated.SharedWith[0].Email)

	_, role, err := f.svc.Get(ctx, f.other, e.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleViewer, role)
}

func TestShareRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.create(t)

	tests := []struct {
		name   string
		caller string
		grants []GrantInput
		want   error
	}{
		{
			name:   "non owner",
			caller: f.other,
			grants: []GrantInput{{UserID: f.third, Role: "viewer"}},
			want:   core.ErrForbidden,
		},
		{
			name:   "owner role not grantable",
			caller: f.owner,
			grants: []GrantInput{{UserID: f.other, Role: "owner"}},
			want:   core.ErrInvalidInput,
		},
		{
			name:   "owner in list",
			caller: f.owner,
			grants: []GrantInput{{UserID: f.owner, Role: "editor"}},
			want:   core.ErrInvalidInput,
		},
		{
			name:   "duplicate user",
			caller: f.owner,
			grants: []GrantInput{
				{UserID: f.other, Role: "editor"},
				{UserID: f.other, Role: "viewer"},
			},
			want: core.ErrInvalidInput,
		},
		{
			name:   "unknown user",
			caller: f.owner,
			grants: []GrantInput{{UserID: uuid.NewString(), Role: "viewer"}},
			want:   core.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Share(ctx, tt.caller, e.ID, ShareRequest{SharedWith: tt.grants})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := f.repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.SharedWith)
}

func TestUpdateOwnerOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.create(t)

	_, err := f.svc.Share(ctx, f.owner, e.ID, ShareRequest{
		SharedWith: []GrantInput{{UserID: f.other, Role: "editor"}},
	})
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.svc.Update(ctx, f.other, e.ID, UpdateEventRequest{Name: &name})
	assert.ErrorIs(t, err, core.ErrForbidden)

	year := 2025
	grants := []GrantInput{{UserID: f.third, Role: "viewer"}}
	updated, err := f.svc.Update(ctx, f.owner, e.ID, UpdateEventRequest{
		Name:       &name,
		Year:       &year,
		SharedWith: &grants,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 2025, updated.Year)
	require.Len(t, updated.SharedWith, 1)
	assert.Equal(t, f.third, updated.SharedWith[0].UserID)
	assert.Equal(t, access.RoleNone, updated.RoleOf(f.other))
}

func TestSoftDeleteAndRestore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.create(t)

	err := f.svc.SoftDelete(ctx, f.other, user.RoleUser, e.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Restore(ctx, f.owner, e.ID)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	require.NoError(t, f.svc.SoftDelete(ctx, f.other, user.RoleAdmin, e.ID))

	_, err = f.svc.ListDeleted(ctx, user.RoleAdmin)
	assert.ErrorIs(t, err, core.ErrForbidden)

	deleted, err := f.svc.ListDeleted(ctx, user.RoleSuperAdmin)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.NotNil(t, deleted[0].DeletedAt)

	_, err = f.svc.Restore(ctx, f.other, e.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	restored, err := f.svc.Restore(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	_, err = f.svc.Restore(ctx, f.owner, e.ID)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestListAccessibleOrderAndRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	older, err := f.svc.Create(ctx, f.owner, CreateEventRequest{Name: "Old", Year: 2022})
	require.NoError(t, err)
	newer, err := f.svc.Create(ctx, f.other, CreateEventRequest{Name: "New", Year: 2025})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.third, CreateEventRequest{Name: "Hidden", Year: 2030})
	require.NoError(t, err)

	_, err = f.svc.Share(ctx, f.other, newer.ID, ShareRequest{
		SharedWith: []GrantInput{{UserID: f.owner, Role: "editor"}},
	})
	require.NoError(t, err)

	events, err := f.svc.ListAccessible(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, newer.ID, events[0].ID)
	assert.Equal(t, older.ID, events[1].ID)
	assert.Equal(t, "Xavier", events[0].SharedWith[0].Name)
}

func TestAvailableToShare(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	e := f.create(t)

	_, err := f.svc.Share(ctx, f.owner, e.ID, ShareRequest{
		SharedWith: []GrantInput{{UserID: f.other, Role: "viewer"}},
	})
	require.NoError(t, err)

	candidates, err := f.svc.AvailableToShare(ctx, f.owner, e.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, f.third, candidates[0].ID)

	_, err = f.svc.AvailableToShare(ctx, f.other, e.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestGrantsScan(t *testing.T) {
	var g Grants
	require.NoError(t, g.Scan([]byte(`[{"user_id":"u1","name":"A","email":"a@x","role":"editor"}]`)))
	require.Len(t, g, 1)
	assert.Equal(t, access.RoleEditor, g[0].Role)

	require.NoError(t, g.Scan(nil))
	assert.Empty(t, g)

	assert.Error(t, g.Scan(42))

	v, err := Grants(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}
