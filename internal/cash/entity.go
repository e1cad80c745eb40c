// AngelaMos | 2026
// entity.go

package cash

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is money received for an event. Name is the contributor and
// need not be a registered user.
type Collection struct {
	ID          string          `db:"id"`
	EventID     string          `db:"event_id"`
	Name        string          `db:"name"`
	Amount      decimal.Decimal `db:"amount"`
	RecordedBy  string          `db:"recorded_by"`
	CollectedAt time.Time       `db:"collected_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
