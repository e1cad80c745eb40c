// AngelaMos | 2026
// service.go

package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/solution-ledger/internal/access"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/metrics"
	"github.com/carterperez-dev/solution-ledger/internal/storage"
	"github.com/carterperez-dev/solution-ledger/internal/user"
)

const DefaultMaxAttachments = 5

// EventAccess resolves the caller's role on an active event. A missing or
// soft-deleted event is core.ErrNotFound.
type EventAccess interface {
	Access(ctx context.Context, eventID, userID string) (access.Role, error)
}

type UserLookup interface {
	GetUsers(ctx context.Context, ids []string) (map[string]user.User, error)
}

type ServiceConfig struct {
	Repo           Repository
	Events         EventAccess
	Users          UserLookup
	Store          storage.Store
	Logger         *slog.Logger
	MaxAttachments int
}

type Service struct {
	repo           Repository
	events         EventAccess
	users          UserLookup
	store          storage.Store
	logger         *slog.Logger
	maxAttachments int
	now            func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	maxAttachments := cfg.MaxAttachments
	if maxAttachments <= 0 {
		maxAttachments = DefaultMaxAttachments
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:           cfg.Repo,
		events:         cfg.Events,
		users:          cfg.Users,
		store:          cfg.Store,
		logger:         logger,
		maxAttachments: maxAttachments,
		now:            time.Now,
	}
}

func (s *Service) Create(
	ctx context.Context,
	callerID string,
	req CreateExpenseRequest,
) (*Entry, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	method := Method(req.PaymentMethod)

	switch {
	case req.EventID == "":
		return nil, core.InvalidInputError("event_id is required")
	case name == "":
		return nil, core.InvalidInputError("name is required")
	case category == "":
		return nil, core.InvalidInputError("category is required")
	case !req.Amount.IsPositive():
		return nil, core.InvalidInputError("amount must be greater than 0")
	case !method.Valid():
		return nil, core.InvalidInputError("payment_method must be one of [cash upi]")
	case req.PaidAmount.IsNegative():
		return nil, core.InvalidInputError("paid_amount cannot be negative")
	case req.PaidAmount.GreaterThan(req.Amount):
		return nil, core.InvalidInputError("paid_amount cannot exceed amount")
	}
	if err := core.CheckCents("amount", req.Amount); err != nil {
		return nil, err
	}
	if err := core.CheckCents("paid_amount", req.PaidAmount); err != nil {
		return nil, err
	}

	if err := s.requireWrite(ctx, req.EventID, callerID); err != nil {
		return nil, err
	}

	if err := s.checkAttachments(method, req.Attachments); err != nil {
		return nil, err
	}

	objects, err := s.storeUploads(ctx, req.Attachments)
	if err != nil {
		return nil, err
	}

	payment := Payment{
		PaidAmount: req.PaidAmount,
		Method:     method,
		PaidAt:     s.now().UTC(),
	}
	payment.attach(splitObjects(objects))

	expense := New(
		uuid.New().String(),
		req.EventID,
		callerID,
		name,
		category,
		req.Amount,
		payment,
	)

	if err := s.repo.Create(ctx, expense); err != nil {
		s.release(ctx, expense.ID, keysOf(objects))
		return nil, err
	}

	return s.withPayer(ctx, expense)
}

// AddPayment appends a payment. The amount is checked against what was
// pending before this call.
func (s *Service) AddPayment(
	ctx context.Context,
	callerID, expenseID string,
	req AddPaymentRequest,
) (*Entry, error) {
	method := Method(req.PaymentMethod)
	if !method.Valid() {
		return nil, core.InvalidInputError("payment_method must be one of [cash upi]")
	}
	if req.PaidAmount.IsNegative() {
		return nil, core.InvalidInputError("paid_amount cannot be negative")
	}
	if err := core.CheckCents("paid_amount", req.PaidAmount); err != nil {
		return nil, err
	}

	expense, err := s.loadActive(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireWrite(ctx, expense.EventID, callerID); err != nil {
		return nil, err
	}

	if req.PaidAmount.GreaterThan(expense.PendingAmount()) {
		return nil, core.InvalidInputError(fmt.Sprintf(
			"paid amount %s exceeds pending amount %s",
			req.PaidAmount.StringFixed(2),
			expense.PendingAmount().StringFixed(2),
		))
	}

	if err := s.checkAttachments(method, req.Attachments); err != nil {
		return nil, err
	}

	objects, err := s.storeUploads(ctx, req.Attachments)
	if err != nil {
		return nil, err
	}

	payment := Payment{
		PaidAmount: req.PaidAmount,
		Method:     method,
		PaidAt:     s.now().UTC(),
	}
	payment.attach(splitObjects(objects))

	if err := expense.AddPayment(payment); err != nil {
		s.release(ctx, expense.ID, keysOf(objects))
		return nil, err
	}

	if err := s.save(ctx, expense, keysOf(objects)); err != nil {
		return nil, err
	}

	return s.withPayer(ctx, expense)
}

func (s *Service) ListByEvent(
	ctx context.Context,
	callerID, eventID string,
) ([]Entry, error) {
	role, err := s.events.Access(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanRead() {
		return nil, core.ForbiddenError("you do not have access to this event")
	}

	expenses, err := s.repo.ListByEvent(ctx, eventID, false)
	if err != nil {
		return nil, err
	}

	return s.withPayers(ctx, expenses)
}

// ListDeleted is limited to the event owner.
func (s *Service) ListDeleted(
	ctx context.Context,
	callerID, eventID string,
) ([]Entry, error) {
	role, err := s.events.Access(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.IsOwner() {
		return nil, core.ForbiddenError("only the event owner can view deleted expenses")
	}

	expenses, err := s.repo.ListByEvent(ctx, eventID, true)
	if err != nil {
		return nil, err
	}

	return s.withPayers(ctx, expenses)
}

func (s *Service) Get(
	ctx context.Context,
	callerID, expenseID string,
) (*Entry, error) {
	expense, err := s.loadActive(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	role, err := s.events.Access(ctx, expense.EventID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanRead() {
		return nil, core.ForbiddenError("you do not have access to this event")
	}

	return s.withPayer(ctx, expense)
}

// Update edits metadata and optionally replaces the payment list. Stored
// attachments no longer referenced afterwards are released once the write
// has landed.
func (s *Service) Update(
	ctx context.Context,
	callerID, expenseID string,
	req UpdateExpenseRequest,
) (*Entry, error) {
	expense, err := s.loadActive(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := s.requireWrite(ctx, expense.EventID, callerID); err != nil {
		return nil, err
	}

	name, category := expense.Name, expense.Category
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, core.InvalidInputError("name cannot be empty")
		}
	}
	if req.Category != nil {
		category = strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, core.InvalidInputError("category cannot be empty")
		}
	}

	amount := expense.Amount()
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, core.InvalidInputError("amount must be greater than 0")
		}
		if err := core.CheckCents("amount", *req.Amount); err != nil {
			return nil, err
		}
		amount = *req.Amount
	}

	payments := expense.Payments()
	if req.Payments != nil {
		payments, err = s.replacementPayments(expense, *req.Payments)
		if err != nil {
			return nil, err
		}
	}

	if len(req.Attachments) > 0 {
		if len(req.Attachments) > s.maxAttachments {
			return nil, core.InvalidInputError(
				fmt.Sprintf("at most %d attachments are allowed", s.maxAttachments),
			)
		}
		idx := req.AttachmentPaymentIndex
		if idx < 0 || idx >= len(payments) {
			return nil, core.InvalidInputError("attachment_payment_index is out of range")
		}
		if payments[idx].Method != MethodUPI {
			return nil, core.InvalidInputError("attachments can only be added to a upi payment")
		}
	}

	if paid := sumPaid(payments); amount.LessThan(paid) {
		return nil, core.InvalidInputError(fmt.Sprintf(
			"amount %s cannot be less than the amount already paid %s",
			amount.StringFixed(2),
			paid.StringFixed(2),
		))
	}

	before := expense.AttachmentKeys()

	objects, err := s.storeUploads(ctx, req.Attachments)
	if err != nil {
		return nil, err
	}
	if len(objects) > 0 {
		payments[req.AttachmentPaymentIndex].attach(splitObjects(objects))
	}

	expense.Name = name
	expense.Category = category
	if err := expense.Revise(amount, payments); err != nil {
		s.release(ctx, expense.ID, keysOf(objects))
		return nil, err
	}

	if err := s.save(ctx, expense, keysOf(objects)); err != nil {
		return nil, err
	}

	s.release(ctx, expense.ID, dropped(before, expense.AttachmentKeys()))

	return s.withPayer(ctx, expense)
}

// Delete soft-deletes the expense, then releases every stored attachment.
// The delete is version guarded so attachments saved by a concurrent write
// are never left behind. Release failures are logged and never block it.
func (s *Service) Delete(ctx context.Context, callerID, expenseID string) error {
	expense, err := s.loadActive(ctx, expenseID)
	if err != nil {
		return err
	}

	role, err := s.events.Access(ctx, expense.EventID, callerID)
	if err != nil {
		return err
	}
	if !role.CanWrite() && expense.PaidBy != callerID {
		return core.ForbiddenError("only the owner, an editor or the payer can delete this expense")
	}

	if err := s.setDeleted(ctx, expense, true); err != nil {
		return err
	}

	s.release(ctx, expense.ID, expense.AttachmentKeys())
	return nil
}

func (s *Service) Restore(
	ctx context.Context,
	callerID, expenseID string,
) (*Entry, error) {
	if _, err := uuid.Parse(expenseID); err != nil {
		return nil, core.NotFoundError("expense")
	}

	expense, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	role, err := s.events.Access(ctx, expense.EventID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.IsOwner() {
		return nil, core.ForbiddenError("only the event owner can restore this expense")
	}

	if !expense.IsDeleted {
		return nil, core.InvalidInputError("expense is not deleted")
	}

	if err := s.setDeleted(ctx, expense, false); err != nil {
		return nil, err
	}

	return s.withPayer(ctx, expense)
}

func (s *Service) loadActive(ctx context.Context, id string) (*Expense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.NotFoundError("expense")
	}

	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.IsDeleted {
		return nil, core.NotFoundError("expense")
	}

	return expense, nil
}

func (s *Service) requireWrite(ctx context.Context, eventID, callerID string) error {
	role, err := s.events.Access(ctx, eventID, callerID)
	if err != nil {
		return err
	}
	if !role.CanWrite() {
		return core.ForbiddenError("only the owner or an editor can change expenses")
	}
	return nil
}

func (s *Service) checkAttachments(method Method, uploads []storage.Upload) error {
	switch {
	case method == MethodUPI && len(uploads) == 0:
		return core.InvalidInputError("upi payments require at least one attachment")
	case method == MethodCash && len(uploads) > 0:
		return core.InvalidInputError("attachments are only accepted for upi payments")
	case len(uploads) > s.maxAttachments:
		return core.InvalidInputError(
			fmt.Sprintf("at most %d attachments are allowed", s.maxAttachments),
		)
	}
	return nil
}

// replacementPayments validates a caller-supplied payment list. Existing
// attachments are carried forward by URL and keep their stored key; each
// URL may appear once across the whole list.
func (s *Service) replacementPayments(
	expense *Expense,
	inputs []PaymentInput,
) ([]Payment, error) {
	if len(inputs) == 0 {
		return nil, core.InvalidInputError("payments cannot be empty")
	}

	keyByURL := make(map[string]string)
	for _, p := range expense.payments {
		for i, url := range p.AttachmentURLs {
			if i < len(p.AttachmentKeys) {
				keyByURL[url] = p.AttachmentKeys[i]
			}
		}
	}

	seen := make(map[string]struct{})
	out := make([]Payment, 0, len(inputs))
	for i, in := range inputs {
		method := Method(in.PaymentMethod)
		if !method.Valid() {
			return nil, core.InvalidInputError(
				fmt.Sprintf("payments[%d].payment_method must be one of [cash upi]", i),
			)
		}
		if in.PaidAmount.IsNegative() {
			return nil, core.InvalidInputError(
				fmt.Sprintf("payments[%d].paid_amount cannot be negative", i),
			)
		}
		if err := core.CheckCents(fmt.Sprintf("payments[%d].paid_amount", i), in.PaidAmount); err != nil {
			return nil, err
		}
		if method == MethodCash && len(in.AttachmentURLs) > 0 {
			return nil, core.InvalidInputError(
				fmt.Sprintf("payments[%d] is cash and cannot carry attachments", i),
			)
		}

		payment := Payment{
			PaidAmount: in.PaidAmount,
			Method:     method,
			PaidAt:     s.now().UTC(),
		}
		if in.PaidAt != nil {
			payment.PaidAt = in.PaidAt.UTC()
		}

		for _, url := range in.AttachmentURLs {
			key, ok := keyByURL[url]
			if !ok {
				return nil, core.InvalidInputError(
					fmt.Sprintf("payments[%d] references an unknown attachment", i),
				)
			}
			if _, dup := seen[url]; dup {
				return nil, core.InvalidInputError(
					fmt.Sprintf("payments[%d] repeats an attachment already listed", i),
				)
			}
			seen[url] = struct{}{}
			payment.attach([]string{url}, []string{key})
		}

		out = append(out, payment)
	}

	return out, nil
}

func (s *Service) storeUploads(
	ctx context.Context,
	uploads []storage.Upload,
) ([]storage.Object, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	ctx, span := core.StartSpan(ctx, "expense.storeUploads",
		attribute.Int("ledger.attachment_count", len(uploads)),
	)
	objects, err := storage.StoreAll(ctx, s.store, uploads, s.logger)
	core.EndSpan(span, err)
	if err != nil {
		return nil, core.UpstreamError("could not store attachments", err)
	}
	return objects, nil
}

// save persists the expense. If another write won the version race the
// uploads made for this request are released.
func (s *Service) save(ctx context.Context, expense *Expense, uploaded []string) error {
	err := s.repo.Save(ctx, expense)
	if err == nil {
		return nil
	}

	s.release(ctx, expense.ID, uploaded)

	if errors.Is(err, core.ErrConflict) {
		metrics.PaymentConflicts.Inc()
		return core.ConflictError("expense was modified concurrently, retry")
	}
	return err
}

func (s *Service) setDeleted(ctx context.Context, expense *Expense, deleted bool) error {
	err := s.repo.SetDeleted(ctx, expense.ID, expense.Version, deleted)
	if errors.Is(err, core.ErrConflict) {
		return core.ConflictError("expense was modified concurrently, retry")
	}
	if err != nil {
		return err
	}

	expense.IsDeleted = deleted
	expense.Version++
	return nil
}

func (s *Service) release(ctx context.Context, expenseID string, keys []string) {
	if len(keys) == 0 {
		return
	}

	failed := storage.ReleaseAll(context.WithoutCancel(ctx), s.store, keys, s.logger)
	if failed > 0 {
		s.logger.Warn("expense attachments not fully released",
			"expense_id", expenseID,
			"failed", failed,
			"total", len(keys),
		)
	}
}

func (s *Service) withPayer(ctx context.Context, expense *Expense) (*Entry, error) {
	entries, err := s.withPayers(ctx, []*Expense{expense})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

func (s *Service) withPayers(ctx context.Context, expenses []*Expense) ([]Entry, error) {
	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.PaidBy)
	}

	users := map[string]user.User{}
	if len(ids) > 0 {
		var err error
		users, err = s.users.GetUsers(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve payers: %w", err)
		}
	}

	entries := make([]Entry, 0, len(expenses))
	for _, e := range expenses {
		payer := PayerResponse{ID: e.PaidBy}
		if u, ok := users[e.PaidBy]; ok {
			payer.Name = u.Name
			payer.Email = u.Email
		}
		entries = append(entries, Entry{Expense: e, Payer: payer})
	}
	return entries, nil
}

func splitObjects(objects []storage.Object) ([]string, []string) {
	urls := make([]string, 0, len(objects))
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		urls = append(urls, o.URL)
		keys = append(keys, o.Key)
	}
	return urls, keys
}

func keysOf(objects []storage.Object) []string {
	_, keys := splitObjects(objects)
	return keys
}

// dropped returns keys present before but absent after.
func dropped(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, k := range after {
		kept[k] = struct{}{}
	}

	var out []string
	for _, k := range before {
		if _, ok := kept[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
