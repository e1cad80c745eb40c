// AngelaMos | 2026
// dto.go

package cash

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateCollectionRequest struct {
	Name        string          `json:"name"                   validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount"`
	CollectedAt *time.Time      `json:"collected_at,omitempty"`
}

type UpdateCollectionRequest struct {
	Name   string          `json:"name"   validate:"required,max=200"`
	Amount decimal.Decimal `json:"amount"`
}

type RecorderResponse struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type CollectionResponse struct {
	ID          string           `json:"id"`
	EventID     string           `json:"event_id"`
	Name        string           `json:"name"`
	Amount      decimal.Decimal  `json:"amount"`
	RecordedBy  RecorderResponse `json:"recorded_by"`
	CollectedAt time.Time        `json:"collected_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func ToCollectionResponse(c *Collection, recorderName string) CollectionResponse {
	return CollectionResponse{
		ID:          c.ID,
		EventID:     c.EventID,
		Name:        c.Name,
		Amount:      c.Amount,
		RecordedBy:  RecorderResponse{ID: c.RecordedBy, Name: recorderName},
		CollectedAt: c.CollectedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
