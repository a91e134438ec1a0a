package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/internal/ledger"
	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	"github.com/angelmondragon/kimipos-backend/internal/printing"
	"github.com/angelmondragon/kimipos-backend/internal/reconcile"
	"github.com/angelmondragon/kimipos-backend/internal/tables"
	"github.com/angelmondragon/kimipos-backend/internal/tickets"
	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// Service owns the working ledger of every active order context and is the
// only writer of orders, payments and context occupancy.
type Service interface {
	GetOrder(ctx context.Context, contextID uuid.UUID) (*OrderView, error)
	AddLine(ctx context.Context, input AddLineInput) (*OrderView, error)
	AddDifferential(ctx context.Context, input AddDifferentialInput) (*OrderView, error)
	UpdateLine(ctx context.Context, input UpdateLineInput) (*OrderView, error)
	RemoveLine(ctx context.Context, contextID uuid.UUID, index int) (*OrderView, error)
	Commit(ctx context.Context, contextID uuid.UUID) (*CommitResult, error)
	Reprint(ctx context.Context, contextID uuid.UUID) (printing.Report, error)
	RecordPayment(ctx context.Context, input PaymentInput) (*ledger.RecordPaymentResult, error)
	Payments(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error)
	Settle(ctx context.Context, input SettleInput) (*models.ClosedTicket, error)
	Clear(ctx context.Context, contextID uuid.UUID) error
	Merge(ctx context.Context, input MergeInput) (*OrderView, error)
	ChangeTableStatus(ctx context.Context, contextID uuid.UUID, status enums.TableStatus) (*models.OrderContext, error)
	Restore(ctx context.Context) (int, error)
}

// AddLineInput adds a catalog product to a context's working order.
type AddLineInput struct {
	ContextID   uuid.UUID           `json:"-"`
	ProductID   uuid.UUID           `json:"product_id" validate:"required"`
	TariffID    *uuid.UUID          `json:"tariff_id,omitempty"`
	Selections  []pricing.Selection `json:"selections,omitempty" validate:"omitempty,dive"`
	ManualPrice *decimal.Decimal    `json:"manual_price,omitempty"`
	Quantity    int                 `json:"quantity" validate:"gte=0,lte=999"`
	Modifiers   []string            `json:"modifiers,omitempty" validate:"omitempty,dive,max=64"`
}

// AddDifferentialInput adds an explicit adjustment line, e.g. a refund.
type AddDifferentialInput struct {
	ContextID uuid.UUID       `json:"-"`
	Name      string          `json:"name" validate:"required,max=64"`
	Amount    decimal.Decimal `json:"amount"`
}

// UpdateLineInput edits the line at Index. Price and ResetPrice are
// exclusive; a nil Modifiers leaves them unchanged.
type UpdateLineInput struct {
	ContextID     uuid.UUID        `json:"-"`
	Index         int              `json:"-"`
	QuantityDelta int              `json:"quantity_delta"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	ResetPrice    bool             `json:"reset_price"`
	Modifiers     []string         `json:"modifiers" validate:"omitempty,dive,max=64"`
}

// PaymentInput records a partial payment against the committed total.
type PaymentInput struct {
	ContextID uuid.UUID           `json:"-"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    enums.PaymentMethod `json:"method" validate:"required"`
}

// SettleInput closes an order. When Method is set the remaining amount due
// is paid with it first.
type SettleInput struct {
	ContextID uuid.UUID            `json:"-"`
	Method    *enums.PaymentMethod `json:"method,omitempty"`
}

// MergeInput moves the secondary context's order onto the master.
type MergeInput struct {
	MasterID    uuid.UUID `json:"-"`
	SecondaryID uuid.UUID `json:"secondary_id" validate:"required"`
}

type priceResolver interface {
	Resolve(ctx context.Context, req pricing.Request) (pricing.Resolution, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, job printing.Job) printing.Report
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the collaborators of the order service.
type ServiceParams struct {
	DB       txRunner
	Repo     Repository
	Tables   tables.Service
	Pricing  priceResolver
	Printer  dispatcher
	Payments ledger.Service
	Tickets  tickets.Service
	Logger   *logger.Logger
}

// session is the in-memory state of one active context. baseline and
// committed are nil until the first successful commit.
type session struct {
	ledger      *Ledger
	baseline    []Line
	committed   *Totals
	committedAt *time.Time
	committing  bool
}

func (s *session) hasBaseline() bool {
	return s.committed != nil
}

func (s *session) pending() bool {
	return !reconcile.Diff(s.baseline, s.ledger.Lines()).Empty()
}

func (s *session) editable() error {
	if s.committing {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is being sent to the printers")
	}
	return nil
}

type service struct {
	db       txRunner
	repo     Repository
	tables   tables.Service
	pricing  priceResolver
	printer  dispatcher
	payments ledger.Service
	tickets  tickets.Service
	logg     *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewService wires the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tables == nil {
		return nil, fmt.Errorf("tables service required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if params.Printer == nil {
		return nil, fmt.Errorf("print router required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment ledger required")
	}
	if params.Tickets == nil {
		return nil, fmt.Errorf("tickets service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		tables:   params.Tables,
		pricing:  params.Pricing,
		printer:  params.Printer,
		payments: params.Payments,
		tickets:  params.Tickets,
		logg:     params.Logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}, nil
}

func (s *service) GetOrder(ctx context.Context, contextID uuid.UUID) (*OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, oc, err := s.session(ctx, contextID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, oc, sess)
}

func (s *service) AddLine(ctx context.Context, input AddLineInput) (*OrderView, error) {
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater").
			WithDetails(map[string]any{"field": "quantity"})
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	res, err := s.pricing.Resolve(ctx, pricing.Request{
		ProductID:   input.ProductID,
		TariffID:    input.TariffID,
		Selections:  input.Selections,
		ManualPrice: input.ManualPrice,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, oc, err := s.session(ctx, input.ContextID)
	if err != nil {
		return nil, err
	}
	if err := sess.editable(); err != nil {
		return nil, err
	}
	sess.ledger.Add(FromResolution(res, quantity, input.Modifiers))
	if err := s.syncOccupancy(ctx, oc, sess); err != nil {
		return nil, err
	}
	return s.view(ctx, oc, sess)
}

func (s *service) AddDifferential(ctx context.Context, input AddDifferentialInput) (*OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, oc, err := s.session(ctx, input.ContextID)
	if err != nil {
		return nil, err
	}
	if err := sess.editable(); err != nil {
		return nil, err
	}
	if _, err := sess.ledger.AddDifferential(input.Name, input.Amount); err != nil {
		return nil, err
	}
	if err := s.syncOccupancy(ctx, oc, sess); err != nil {
		return nil, err
	}
	return s.view(ctx, oc, sess)
}

// UpdateLine applies a price change, then modifiers, then the quantity
// delta. Price changes are allowed while a commit is printing.
func (s *service) UpdateLine(ctx context.Context, input UpdateLineInput) (*OrderView, error) {
	if input.Price != nil && input.ResetPrice {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price and reset_price are exclusive")
	}
	if input.QuantityDelta == 0 && input.Price == nil && !input.ResetPrice && input.Modifiers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no change requested")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, oc, err := s.session(ctx, input.ContextID)
	if err != nil {
		return nil, err
	}
	if input.QuantityDelta != 0 {
		if err := sess.editable(); err != nil {
			return nil, err
		}
	}
	key, err := sess.ledger.KeyAt(input.Index)
	if err != nil {
		return nil, err
	}

	switch {
	case input.Price != nil:
		key, err = sess.ledger.OverridePrice(key, *input.Price)
	case input.ResetPrice:
		key, err = sess.ledger.ResetToOriginalPrice(key)
	}
	if err != nil {
		return nil, err
	}
	if input.Modifiers != nil {
		if err := sess.ledger.SetModifiers(key, input.Modifiers); err != nil {
			return nil, err
		}
	}
	if input.QuantityDelta != 0 {
		if err := sess.ledger.IncrementQuantity(key, input.QuantityDelta); err != nil {
			return nil, err
		}
	}

	if err := s.syncOccupancy(ctx, oc, sess); err != nil {
		return nil, err
	}
	return s.view(ctx, oc, sess)
}

func (s *service) RemoveLine(ctx context.Context, contextID uuid.UUID, index int) (*OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, oc, err := s.session(ctx, contextID)
	if err != nil {
		return nil, err
	}
	if err := sess.editable(); err != nil {
		return nil, err
	}
	key, err := sess.ledger.KeyAt(index)
	if err != nil {
		return nil, err
	}
	if err := sess.ledger.Remove(key); err != nil {
		return nil, err
	}
	if err := s.syncOccupancy(ctx, oc, sess); err != nil {
		return nil, err
	}
	return s.view(ctx, oc, sess)
}

// Commit prints the difference between the working order and the last
// commit, then persists the working order as the new baseline. The baseline
// advances to the snapshot taken when the commit started, after dispatch
// returns, even when some destinations failed.
func (s *service) Commit(ctx context.Context, contextID uuid.UUID) (*CommitResult, error) {
	ctx = s.logg.WithOrderContext(ctx, contextID.String())

	s.mu.Lock()
	sess, oc, err := s.session(ctx, contextID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := sess.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := sess.ledger.Lines()
	if len(snapshot) == 0 && !sess.hasBaseline() {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no lines")
	}
	if len(snapshot) == 0 {
		paid, err := s.payments.TotalPaid(ctx, contextID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if paid.IsPositive() {
			s.mu.Unlock()
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has payments; settle or clear it instead").
				WithDetails(map[string]any{"amount_paid": paid.StringFixed(2)})
		}
	}
	delta := reconcile.Diff(sess.baseline, snapshot)
	sess.committing = true
	s.mu.Unlock()

	report := s.dispatchDelta(ctx, oc, sess, delta)

	persistCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.committing = false

	result := &CommitResult{
		Printed:   len(delta.ToPrint),
		Cancelled: len(delta.ToCancel),
		Report:    report,
		Warnings:  warnings(report),
	}

	if len(snapshot) == 0 {
		if err := s.close(persistCtx, contextID); err != nil {
			return nil, err
		}
		result.Order = emptyView(oc)
		s.logg.Info(persistCtx, "order cancelled")
		return result, nil
	}

	totals := ComputeTotals(snapshot)
	at := s.now().UTC()
	state, err := s.paymentState(persistCtx, contextID, totals.Rounded().Total)
	if err != nil {
		return nil, err
	}
	record := newRecord(contextID, snapshot, totals, state, at)
	err = s.db.WithTx(persistCtx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Upsert(persistCtx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		if oc.Status != enums.TableStatusOccupied {
			return s.tables.WithTx(tx).Occupy(persistCtx, contextID)
		}
		return nil
	})
	if err != nil {
		s.logg.Error(persistCtx, "order printed but not saved", err)
		return nil, err
	}

	sess.baseline = cloneLines(snapshot)
	sess.committed = &totals
	sess.committedAt = &at
	oc.Status = enums.TableStatusOccupied
	s.sessions[contextID] = sess

	if !report.OK() || report.Unassigned > 0 {
		s.logg.Warn(s.logg.WithFields(persistCtx, map[string]any{
			"failed":     report.Failed,
			"unassigned": report.Unassigned,
		}), "order committed with print warnings")
	} else {
		s.logg.Info(s.logg.WithFields(persistCtx, map[string]any{
			"printed":   result.Printed,
			"cancelled": result.Cancelled,
		}), "order committed")
	}

	view, err := s.view(persistCtx, oc, sess)
	if err != nil {
		return nil, err
	}
	result.Order = view
	return result, nil
}

// dispatchDelta prints the new lines and then the cancellations. A panic in
// a submitter clears the committing flag before propagating.
func (s *service) dispatchDelta(ctx context.Context, oc *models.OrderContext, sess *session, delta reconcile.Delta[Line]) printing.Report {
	defer func() {
		if rec := recover(); rec != nil {
			s.mu.Lock()
			sess.committing = false
			s.mu.Unlock()
			panic(rec)
		}
	}()
	return s.dispatch(ctx, oc, enums.TicketKindOrder, delta.ToPrint).
		Merge(s.dispatch(ctx, oc, enums.TicketKindCancellation, delta.ToCancel))
}

// Reprint sends the committed order again to every destination.
func (s *service) Reprint(ctx context.Context, contextID uuid.UUID) (printing.Report, error) {
	s.mu.Lock()
	sess, oc, err := s.session(ctx, contextID)
	if err != nil {
		s.mu.Unlock()
		return printing.Report{}, err
	}
	if !sess.hasBaseline() {
		s.mu.Unlock()
		return printing.Report{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been sent yet")
	}
	lines := cloneLines(sess.baseline)
	s.mu.Unlock()

	return s.dispatch(ctx, oc, enums.TicketKindReprint, lines), nil
}

func (s *service) RecordPayment(ctx context.Context, input PaymentInput) (*ledger.RecordPaymentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.session(ctx, input.ContextID)
	if err != nil {
		return nil, err
	}
	if !sess.hasBaseline() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "commit the order before taking payments")
	}
	total := sess.committed.Rounded().Total
	var res *ledger.RecordPaymentResult
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)
		recorded, err := payments.RecordPayment(ctx, ledger.RecordPaymentInput{
			ContextID:      input.ContextID,
			Amount:         input.Amount,
			Method:         input.Method,
			CommittedTotal: total,
		})
		if err != nil {
			return err
		}
		res = recorded
		return s.updateTotalAfterPartialPayment(ctx, payments, s.repo.WithTx(tx), input.ContextID, total)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Payments(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error) {
	if _, err := s.tables.Get(ctx, contextID); err != nil {
		return nil, err
	}
	return s.payments.List(ctx, contextID)
}

// updateTotalAfterPartialPayment stores the new amount paid and outstanding
// amount on the committed order. The committed total itself is unchanged.
func (s *service) updateTotalAfterPartialPayment(ctx context.Context, payments ledger.Service, repo Repository, contextID uuid.UUID, total decimal.Decimal) error {
	state, err := paymentStateOf(ctx, payments, contextID, total)
	if err != nil {
		return err
	}
	if err := repo.UpdatePayments(ctx, contextID, state); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payments")
	}
	return nil
}

// Settle archives a fully paid order as a closed ticket and frees its
// context.
func (s *service) Settle(ctx context.Context, input SettleInput) (*models.ClosedTicket, error) {
	ctx = s.logg.WithOrderContext(ctx, input.ContextID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, oc, err := s.session(ctx, input.ContextID)
	if err != nil {
		return nil, err
	}
	if err := sess.editable(); err != nil {
		return nil, err
	}
	if !sess.hasBaseline() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been committed")
	}
	if sess.pending() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has uncommitted changes")
	}

	committed := sess.committed.Rounded()
	var ticket *models.ClosedTicket
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		ledgerTx := s.payments.WithTx(tx)
		if input.Method != nil {
			due, err := ledgerTx.AmountDue(ctx, input.ContextID, committed.Total)
			if err != nil {
				return err
			}
			if due.IsPositive() {
				if _, err := ledgerTx.RecordPayment(ctx, ledger.RecordPaymentInput{
					ContextID:      input.ContextID,
					Amount:         due,
					Method:         *input.Method,
					CommittedTotal: committed.Total,
				}); err != nil {
					return err
				}
			}
		}
		payments, err := ledgerTx.List(ctx, input.ContextID)
		if err != nil {
			return err
		}
		if err := ledgerTx.Clear(ctx, input.ContextID, committed.Total); err != nil {
			return err
		}
		archived, err := s.tickets.WithTx(tx).Archive(ctx, tickets.ArchiveInput{
			ContextID:    input.ContextID,
			ContextLabel: tables.Label(oc),
			Items:        ToItems(sess.baseline),
			Payments:     payments,
			Subtotal:     committed.Subtotal,
			Tax:          committed.Tax,
			Total:        committed.Total,
		})
		if err != nil {
			return err
		}
		ticket = archived
		if err := s.repo.WithTx(tx).DeleteByContext(ctx, input.ContextID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete settled order")
		}
		return s.tables.WithTx(tx).Release(ctx, input.ContextID)
	})
	if err != nil {
		return nil, err
	}

	delete(s.sessions, input.ContextID)
	s.logg.Info(s.logg.WithField(ctx, "ticket_number", ticket.TicketNumber), "order settled")
	return ticket, nil
}

// Clear throws an order away without printing, discarding any recorded
// payments, and frees its context.
func (s *service) Clear(ctx context.Context, contextID uuid.UUID) error {
	ctx = s.logg.WithOrderContext(ctx, contextID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.session(ctx, contextID)
	if err != nil {
		return err
	}
	if err := sess.editable(); err != nil {
		return err
	}
	paid, err := s.payments.TotalPaid(ctx, contextID)
	if err != nil {
		return err
	}
	if paid.IsPositive() {
		s.logg.Warn(s.logg.WithField(ctx, "amount_paid", paid.StringFixed(2)), "clearing order with recorded payments")
	}
	if err := s.close(ctx, contextID); err != nil {
		return err
	}
	s.logg.Info(ctx, "order cleared")
	return nil
}

// close drops the committed order and payments of a context and releases it.
// Callers hold s.mu.
func (s *service) close(ctx context.Context, contextID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Discard(ctx, contextID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).DeleteByContext(ctx, contextID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return s.tables.WithTx(tx).Release(ctx, contextID)
	})
	if err != nil {
		return err
	}
	delete(s.sessions, contextID)
	return nil
}

// Merge moves the secondary context's working and committed lines onto the
// master and releases the secondary. Lines already printed for the secondary
// count as printed for the master.
func (s *service) Merge(ctx context.Context, input MergeInput) (*OrderView, error) {
	if input.MasterID == input.SecondaryID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot merge an order into itself")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"context_id":   input.MasterID.String(),
		"secondary_id": input.SecondaryID.String(),
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	master, moc, err := s.session(ctx, input.MasterID)
	if err != nil {
		return nil, err
	}
	secondary, _, err := s.session(ctx, input.SecondaryID)
	if err != nil {
		return nil, err
	}
	if err := master.editable(); err != nil {
		return nil, err
	}
	if err := secondary.editable(); err != nil {
		return nil, err
	}
	if secondary.ledger.Empty() && !secondary.hasBaseline() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "secondary order is empty")
	}
	paid, err := s.payments.TotalPaid(ctx, input.SecondaryID)
	if err != nil {
		return nil, err
	}
	if paid.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "secondary order has payments")
	}

	working := NewLedger(master.ledger.Lines())
	for _, l := range secondary.ledger.Lines() {
		working.Add(l)
	}

	var (
		baseline  []Line
		committed *Totals
		state     PaymentState
	)
	if master.hasBaseline() || secondary.hasBaseline() {
		merged := NewLedger(master.baseline)
		for _, l := range secondary.baseline {
			merged.Add(l)
		}
		baseline = merged.Lines()
		totals := ComputeTotals(baseline)
		committed = &totals
		if state, err = s.paymentState(ctx, input.MasterID, totals.Rounded().Total); err != nil {
			return nil, err
		}
	}

	at := s.now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if committed != nil {
			if err := s.repo.WithTx(tx).Upsert(ctx, newRecord(input.MasterID, baseline, *committed, state, at)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save merged order")
			}
		}
		if err := s.repo.WithTx(tx).DeleteByContext(ctx, input.SecondaryID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete merged order")
		}
		if err := s.tables.WithTx(tx).Release(ctx, input.SecondaryID); err != nil {
			return err
		}
		if !working.Empty() && moc.Status != enums.TableStatusOccupied {
			return s.tables.WithTx(tx).Occupy(ctx, input.MasterID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	master.ledger = working
	master.baseline = baseline
	master.committed = committed
	if committed != nil {
		master.committedAt = &at
	}
	if !working.Empty() {
		moc.Status = enums.TableStatusOccupied
	}
	s.sessions[input.MasterID] = master
	delete(s.sessions, input.SecondaryID)

	s.logg.Info(ctx, "orders merged")
	return s.view(ctx, moc, master)
}

// ChangeTableStatus sets a floor status such as reserved or maintenance. It
// is only allowed while the table has no order.
func (s *service) ChangeTableStatus(ctx context.Context, contextID uuid.UUID, status enums.TableStatus) (*models.OrderContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.session(ctx, contextID)
	if err != nil {
		return nil, err
	}
	if !sess.ledger.Empty() || sess.hasBaseline() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "table has an open order")
	}
	return s.tables.SetStatus(ctx, contextID, status)
}

// Restore loads every committed order into memory. Working orders start
// equal to their baseline.
func (s *service) Restore(ctx context.Context) (int, error) {
	records, err := s.repo.ListOpen(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open orders")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for i := range records {
		rec := &records[i]
		if _, ok := s.sessions[rec.ContextID]; ok {
			continue
		}
		sess, err := sessionFromRecord(rec)
		if err != nil {
			s.logg.Error(s.logg.WithOrderContext(ctx, rec.ContextID.String()), "skipping unreadable order", err)
			continue
		}
		s.sessions[rec.ContextID] = sess
		restored++
	}
	s.logg.Info(s.logg.WithField(ctx, "orders", restored), "open orders restored")
	return restored, nil
}

// session returns the state of a context, loading its committed order on
// first use. New empty sessions are only kept once they hold lines; see
// syncOccupancy. Callers hold s.mu.
func (s *service) session(ctx context.Context, contextID uuid.UUID) (*session, *models.OrderContext, error) {
	oc, err := s.tables.Get(ctx, contextID)
	if err != nil {
		return nil, nil, err
	}
	if sess, ok := s.sessions[contextID]; ok {
		return sess, oc, nil
	}
	rec, err := s.repo.FindByContext(ctx, contextID)
	switch {
	case err == nil:
		sess, err := sessionFromRecord(rec)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode committed order")
		}
		s.sessions[contextID] = sess
		return sess, oc, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &session{ledger: NewLedger(nil)}, oc, nil
	default:
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load committed order")
	}
}

func sessionFromRecord(rec *models.OrderRecord) (*session, error) {
	lines, err := FromItems(rec.Items.V)
	if err != nil {
		return nil, err
	}
	totals := ComputeTotals(lines)
	at := rec.CommittedAt
	return &session{
		ledger:      NewLedger(lines),
		baseline:    lines,
		committed:   &totals,
		committedAt: &at,
	}, nil
}

// syncOccupancy keeps a context occupied exactly while it has an order, and
// keeps the session in memory for as long as it does.
func (s *service) syncOccupancy(ctx context.Context, oc *models.OrderContext, sess *session) error {
	if !sess.ledger.Empty() {
		s.sessions[oc.ID] = sess
		if oc.Status == enums.TableStatusOccupied {
			return nil
		}
		if err := s.tables.Occupy(ctx, oc.ID); err != nil {
			return err
		}
		oc.Status = enums.TableStatusOccupied
		return nil
	}
	if sess.hasBaseline() {
		return nil
	}
	delete(s.sessions, oc.ID)
	if oc.Status != enums.TableStatusOccupied {
		return nil
	}
	if err := s.tables.Vacate(ctx, oc.ID); err != nil {
		return err
	}
	oc.Status = enums.TableStatusAvailable
	return nil
}

func (s *service) paymentState(ctx context.Context, contextID uuid.UUID, total decimal.Decimal) (PaymentState, error) {
	return paymentStateOf(ctx, s.payments, contextID, total)
}

func paymentStateOf(ctx context.Context, payments ledger.Service, contextID uuid.UUID, total decimal.Decimal) (PaymentState, error) {
	paid, err := payments.TotalPaid(ctx, contextID)
	if err != nil {
		return PaymentState{}, err
	}
	due, err := payments.AmountDue(ctx, contextID, total)
	if err != nil {
		return PaymentState{}, err
	}
	status, err := payments.Status(ctx, contextID, total)
	if err != nil {
		return PaymentState{}, err
	}
	return PaymentState{Paid: paid, Outstanding: due, Status: status}, nil
}

func (s *service) view(ctx context.Context, oc *models.OrderContext, sess *session) (*OrderView, error) {
	lines := sess.ledger.Lines()
	v := &OrderView{
		ContextID:    oc.ID,
		ContextLabel: tables.Label(oc),
		Lines:        lineViews(lines),
		Totals:       ComputeTotals(lines).Rounded(),
		AmountPaid:   decimal.Zero,
		AmountDue:    decimal.Zero,
		Status:       enums.SettlementStatusOpen,
		Pending:      sess.pending(),
		Committing:   sess.committing,
	}
	if !sess.hasBaseline() {
		return v, nil
	}
	committed := sess.committed.Rounded()
	v.Committed = &committed
	v.CommittedAt = sess.committedAt
	state, err := s.paymentState(ctx, oc.ID, committed.Total)
	if err != nil {
		return nil, err
	}
	v.AmountPaid = state.Paid
	v.AmountDue = state.Outstanding
	v.Status = state.Status
	return v, nil
}

func emptyView(oc *models.OrderContext) *OrderView {
	return &OrderView{
		ContextID:    oc.ID,
		ContextLabel: tables.Label(oc),
		Lines:        []LineView{},
		AmountPaid:   decimal.Zero,
		AmountDue:    decimal.Zero,
		Status:       enums.SettlementStatusOpen,
	}
}

func (s *service) dispatch(ctx context.Context, oc *models.OrderContext, kind enums.TicketKind, lines []Line) printing.Report {
	items := printable(lines)
	if len(items) == 0 {
		return printing.Report{}
	}
	job := printing.Job{
		Kind:         kind,
		ContextID:    oc.ID,
		ContextLabel: tables.Label(oc),
		Items:        items,
	}
	if oc.Kind == enums.ContextKindTable {
		job.TableNumber = oc.Number
	} else {
		job.CustomerName = oc.Name
	}
	return s.printer.Dispatch(ctx, job)
}

// printable drops differential lines; they never reach a kitchen printer.
func printable(lines []Line) []printing.Item {
	items := make([]printing.Item, 0, len(lines))
	for _, l := range lines {
		if l.Differential {
			continue
		}
		items = append(items, printing.Item{
			ProductID:  l.ProductID,
			CategoryID: l.CategoryID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Modifiers:  l.Modifiers,
		})
	}
	return items
}

func warnings(report printing.Report) []string {
	var out []string
	seen := make(map[string]struct{}, len(report.Failed))
	for _, dest := range report.Failed {
		if _, ok := seen[dest]; ok {
			continue
		}
		seen[dest] = struct{}{}
		out = append(out, fmt.Sprintf("printer %s did not print: %v", dest, report.Errors[dest]))
	}
	if report.Unassigned > 0 {
		out = append(out, fmt.Sprintf("%d line(s) have no printer assigned", report.Unassigned))
	}
	return out
}
