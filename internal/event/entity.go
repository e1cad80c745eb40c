// AngelaMos | 2026
// entity.go

package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carterperez-dev/solution-ledger/internal/access"
)

// Grants is the shared-access list, stored as a JSONB array.
type Grants []access.Grant

func (g Grants) Value() (driver.Value, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]access.Grant(g))
}

func (g *Grants) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*g = Grants{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan grants: unsupported type %T", src)
	}

	var out []access.Grant
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan grants: %w", err)
	}
	*g = out
	return nil
}

func (g Grants) UserIDs() []string {
	ids := make([]string, 0, len(g))
	for _, grant := range g {
		ids = append(ids, grant.UserID)
	}
	return ids
}

// Event is a solution card: one occasion's budget with its owner and
// collaborators. Owner is fixed at creation.
type Event struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Year        int        `db:"year"`
	Description string     `db:"description"`
	OwnerID     string     `db:"owner_id"`
	SharedWith  Grants     `db:"shared_with"`
	IsDeleted   bool       `db:"is_deleted"`
	DeletedAt   *time.Time `db:"deleted_at"`
	UpdatedBy   *string    `db:"updated_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (e *Event) RoleOf(userID string) access.Role {
	return access.Resolve(e.OwnerID, e.SharedWith, userID)
}
