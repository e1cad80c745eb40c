// AngelaMos | 2026
// dto.go

package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/solution-ledger/internal/storage"
)

type CreateExpenseRequest struct {
	EventID       string           `validate:"required"`
	Name          string           `validate:"required,max=200"`
	Category      string           `validate:"required,max=100"`
	Amount        decimal.Decimal  `validate:"-"`
	PaymentMethod string           `validate:"required,oneof=cash upi"`
	PaidAmount    decimal.Decimal  `validate:"-"`
	Attachments   []storage.Upload `validate:"-"`
}

type AddPaymentRequest struct {
	PaidAmount    decimal.Decimal  `validate:"-"`
	PaymentMethod string           `validate:"required,oneof=cash upi"`
	Attachments   []storage.Upload `validate:"-"`
}

// PaymentInput is a caller-supplied payment for a wholesale replacement.
// AttachmentURLs must refer to attachments already stored on the expense.
type PaymentInput struct {
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentMethod  string          `json:"payment_method"  validate:"required,oneof=cash upi"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	AttachmentURLs []string        `json:"attachment_urls" validate:"omitempty,dive,required"`
}

// UpdateExpenseRequest changes only the fields that are present. New
// attachments go to the payment at AttachmentPaymentIndex.
type UpdateExpenseRequest struct {
	Name                   *string          `json:"name,omitempty"     validate:"omitempty,min=1,max=200"`
	Category               *string          `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Amount                 *decimal.Decimal `json:"amount,omitempty"`
	Payments               *[]PaymentInput  `json:"payments,omitempty" validate:"omitempty,dive"`
	AttachmentPaymentIndex int              `json:"attachment_payment_index" validate:"gte=0"`
	Attachments            []storage.Upload `json:"-"`
}

type PayerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type PaymentResponse struct {
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PaymentMethod  Method          `json:"payment_method"`
	PaidAt         time.Time       `json:"paid_at"`
	AttachmentURLs []string        `json:"attachment_urls"`
	AttachmentKeys []string        `json:"attachment_keys"`
}

type ExpenseResponse struct {
	ID            string            `json:"id"`
	EventID       string            `json:"event_id"`
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	Amount        decimal.Decimal   `json:"amount"`
	Payments      []PaymentResponse `json:"payments"`
	AdvancePaid   decimal.Decimal   `json:"advance_paid"`
	PendingAmount decimal.Decimal   `json:"pending_amount"`
	PaymentStatus Status            `json:"payment_status"`
	PaidBy        PayerResponse     `json:"paid_by"`
	IsDeleted     bool              `json:"is_deleted"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Entry is an expense with its payer resolved.
type Entry struct {
	Expense *Expense
	Payer   PayerResponse
}

func ToExpenseResponse(entry Entry) ExpenseResponse {
	e := entry.Expense

	payments := make([]PaymentResponse, 0, len(e.payments))
	for _, p := range e.Payments() {
		urls, keys := p.AttachmentURLs, p.AttachmentKeys
		if urls == nil {
			urls = []string{}
		}
		if keys == nil {
			keys = []string{}
		}
		payments = append(payments, PaymentResponse{
			PaidAmount:     p.PaidAmount,
			PaymentMethod:  p.Method,
			PaidAt:         p.PaidAt,
			AttachmentURLs: urls,
			AttachmentKeys: keys,
		})
	}

	return ExpenseResponse{
		ID:            e.ID,
		EventID:       e.EventID,
		Name:          e.Name,
		Category:      e.Category,
		Amount:        e.Amount(),
		Payments:      payments,
		AdvancePaid:   e.AdvancePaid(),
		PendingAmount: e.PendingAmount(),
		PaymentStatus: e.Status(),
		PaidBy:        entry.Payer,
		IsDeleted:     e.IsDeleted,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func ToExpenseResponses(entries []Entry) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ToExpenseResponse(entry))
	}
	return out
}
