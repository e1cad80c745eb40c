// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/event"
)

const recentLimit = 5

type EventAuthorizer interface {
	Authorize(ctx context.Context, eventID, userID string) (*event.Event, access.Role, error)
}

// Activity is one line of recent activity.
type Activity struct {
	ID     string          `json:"id"     db:"id"`
	Label  string          `json:"label"  db:"label"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
	Date   time.Time       `json:"date"   db:"date"`
}

type Summary struct {
	EventID           string          `json:"event_id"`
	EventName         string          `json:"event_name"`
	Year              int             `json:"year"`
	TotalCollected    decimal.Decimal `json:"total_collected"`
	TotalExpensed     decimal.Decimal `json:"total_expensed"`
	Remaining         decimal.Decimal `json:"remaining"`
	PercentSpent      int64           `json:"percent_spent"`
	RecentExpenses    []Activity      `json:"recent_expenses"`
	RecentCollections []Activity      `json:"recent_collections"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

type Service struct {
	repo   Repository
	events EventAuthorizer
	now    func() time.Time
}

func NewService(repo Repository, events EventAuthorizer) *Service {
	return &Service{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// Summary aggregates an event's totals and recent activity. The four
// queries run concurrently; any failure fails the whole summary.
func (s *Service) Summary(
	ctx context.Context,
	callerID, eventID string,
) (*Summary, error) {
	ctx, span := core.StartSpan(ctx, "dashboard.Summary", core.AttrEventID.String(eventID))
	summary, err := s.summarize(ctx, callerID, eventID)
	core.EndSpan(span, err)
	return summary, err
}

func (s *Service) summarize(
	ctx context.Context,
	callerID, eventID string,
) (*Summary, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, core.InvalidInputError("event id is not a valid identifier")
	}

	ev, role, err := s.events.Authorize(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanRead() {
		return nil, core.ForbiddenError("you do not have access to this event")
	}

	summary := &Summary{
		EventID:     ev.ID,
		EventName:   ev.Name,
		Year:        ev.Year,
		GeneratedAt: s.now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.repo.TotalCollected(gctx, eventID)
		summary.TotalCollected = total
		return err
	})
	g.Go(func() error {
		total, err := s.repo.TotalExpensed(gctx, eventID)
		summary.TotalExpensed = total
		return err
	})
	g.Go(func() error {
		recent, err := s.repo.RecentExpenses(gctx, eventID, recentLimit)
		summary.RecentExpenses = recent
		return err
	})
	g.Go(func() error {
		recent, err := s.repo.RecentCollections(gctx, eventID, recentLimit)
		summary.RecentCollections = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary.RecentExpenses == nil {
		summary.RecentExpenses = []Activity{}
	}
	if summary.RecentCollections == nil {
		summary.RecentCollections = []Activity{}
	}

	summary.Remaining = summary.TotalCollected.Sub(summary.TotalExpensed)
	summary.PercentSpent = PercentSpent(summary.TotalCollected, summary.TotalExpensed)

	return summary, nil
}

// PercentSpent is expensed/collected as a whole percentage, rounded half
// away from zero. It is 0 when nothing has been collected.
func PercentSpent(collected, expensed decimal.Decimal) int64 {
	if !collected.IsPositive() {
		return 0
	}
	return expensed.Mul(decimal.NewFromInt(100)).Div(collected).Round(0).IntPart()
}
