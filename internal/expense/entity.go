// AngelaMos | 2026
// entity.go

package expense

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/solution-ledger/internal/core"
)

type Method string

const (
	MethodCash Method = "cash"
	MethodUPI  Method = "upi"
)

func (m Method) Valid() bool {
	return m == MethodCash || m == MethodUPI
}

type Status string

const (
	StatusPending       Status = "pending"
	StatusPartiallyPaid Status = "partially_paid"
	StatusFullyPaid     Status = "fully_paid"
)

// Payment is one installment against an expense. AttachmentURLs and
// AttachmentKeys are positionally matched and only set for upi payments.
type Payment struct {
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Method         Method          `json:"payment_method"`
	PaidAt         time.Time       `json:"paid_at"`
	AttachmentURLs []string        `json:"attachment_urls"`
	AttachmentKeys []string        `json:"attachment_keys"`
}

func (p *Payment) attach(urls, keys []string) {
	p.AttachmentURLs = append(p.AttachmentURLs, urls...)
	p.AttachmentKeys = append(p.AttachmentKeys, keys...)
}

// Payments is stored as a JSONB array on the expense row.
type Payments []Payment

func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Payment(p))
}

func (p *Payments) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = Payments{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan payments: unsupported type %T", src)
	}

	var out []Payment
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scan payments: %w", err)
	}
	*p = out
	return nil
}

func (p Payments) keys() []string {
	var keys []string
	for _, payment := range p {
		keys = append(keys, payment.AttachmentKeys...)
	}
	return keys
}

// Expense is a single cost on an event. AdvancePaid, PendingAmount and
// Status are derived from the amount and payment list and only change
// through recompute.
type Expense struct {
	ID        string
	EventID   string
	PaidBy    string
	Name      string
	Category  string
	IsDeleted bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	amount        decimal.Decimal
	payments      Payments
	advancePaid   decimal.Decimal
	pendingAmount decimal.Decimal
	status        Status
}

// New builds an expense with its initial payment.
func New(
	id, eventID, paidBy, name, category string,
	amount decimal.Decimal,
	initial Payment,
) *Expense {
	e := &Expense{
		ID:       id,
		EventID:  eventID,
		PaidBy:   paidBy,
		Name:     name,
		Category: category,
		Version:  1,
		amount:   amount,
		payments: Payments{initial},
	}
	e.recompute()
	return e
}

func (e *Expense) Amount() decimal.Decimal        { return e.amount }
func (e *Expense) AdvancePaid() decimal.Decimal   { return e.advancePaid }
func (e *Expense) PendingAmount() decimal.Decimal { return e.pendingAmount }
func (e *Expense) Status() Status                 { return e.status }

// Payments returns a copy of the payment list.
func (e *Expense) Payments() []Payment {
	out := make([]Payment, len(e.payments))
	for i, p := range e.payments {
		p.AttachmentURLs = append([]string(nil), p.AttachmentURLs...)
		p.AttachmentKeys = append([]string(nil), p.AttachmentKeys...)
		out[i] = p
	}
	return out
}

// AttachmentKeys lists every stored handle across all payments.
func (e *Expense) AttachmentKeys() []string {
	return e.payments.keys()
}

// AddPayment appends p. The amount may not exceed what is still pending.
func (e *Expense) AddPayment(p Payment) error {
	if p.PaidAmount.GreaterThan(e.pendingAmount) {
		return core.InvalidInputError(fmt.Sprintf(
			"paid amount %s exceeds pending amount %s",
			p.PaidAmount.StringFixed(2),
			e.pendingAmount.StringFixed(2),
		))
	}

	e.payments = append(e.payments, p)
	e.recompute()
	return nil
}

// Revise applies a new amount and, when payments is non-nil, a wholesale
// replacement of the payment list. Nothing changes if the result would
// leave the amount below what has been paid.
func (e *Expense) Revise(amount decimal.Decimal, payments []Payment) error {
	next := e.payments
	if payments != nil {
		next = Payments(payments)
	}

	paid := sumPaid(next)
	if amount.LessThan(paid) {
		return core.InvalidInputError(fmt.Sprintf(
			"amount %s cannot be less than the amount already paid %s",
			amount.StringFixed(2),
			paid.StringFixed(2),
		))
	}

	e.amount = amount
	e.payments = next
	e.recompute()
	return nil
}

func (e *Expense) recompute() {
	e.advancePaid = sumPaid(e.payments)

	e.pendingAmount = e.amount.Sub(e.advancePaid)
	if e.pendingAmount.IsNegative() {
		e.pendingAmount = decimal.Zero
	}

	switch {
	case e.pendingAmount.IsZero():
		e.status = StatusFullyPaid
	case e.advancePaid.IsPositive():
		e.status = StatusPartiallyPaid
	default:
		e.status = StatusPending
	}
}

func sumPaid(payments Payments) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.PaidAmount)
	}
	return total
}
