// AngelaMos | 2026
// dto.go

package event

import (
	"time"

	"github.com/carterperez-dev/solution-ledger/internal/access"
)

type CreateEventRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=200"`
	Year        int    `json:"year"        validate:"required,gte=1900,lte=3000"`
	Description string `json:"description" validate:"max=2000"`
}

type GrantInput struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role"    validate:"required,oneof=editor viewer"`
}

// UpdateEventRequest changes only the fields that are present. A present
// shared_with replaces the whole list.
type UpdateEventRequest struct {
	Name        *string       `json:"name,omitempty"        validate:"omitempty,min=1,max=200"`
	Year        *int          `json:"year,omitempty"        validate:"omitempty,gte=1900,lte=3000"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=2000"`
	SharedWith  *[]GrantInput `json:"shared_with,omitempty" validate:"omitempty,dive"`
}

type ShareRequest struct {
	SharedWith []GrantInput `json:"shared_with" validate:"required,dive"`
}

type EventResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Description string         `json:"description"`
	OwnerID     string         `json:"owner_id"`
	SharedWith  []access.Grant `json:"shared_with"`
	IsDeleted   bool           `json:"is_deleted"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Role        access.Role    `json:"role,omitempty"`
}

func ToEventResponse(e *Event, role access.Role) EventResponse {
	grants := []access.Grant(e.SharedWith)
	if grants == nil {
		grants = []access.Grant{}
	}

	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Year:        e.Year,
		Description: e.Description,
		OwnerID:     e.OwnerID,
		SharedWith:  grants,
		IsDeleted:   e.IsDeleted,
		DeletedAt:   e.DeletedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Role:        role,
	}
}
