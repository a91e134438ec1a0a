package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/redis"
)

const receiptSequence = "receipt"

// Service records partial payments against a context's committed total. It
// never changes the committed total itself.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error)
	AmountDue(ctx context.Context, contextID uuid.UUID, committedTotal decimal.Decimal) (decimal.Decimal, error)
	TotalPaid(ctx context.Context, contextID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error)
	Status(ctx context.Context, contextID uuid.UUID, committedTotal decimal.Decimal) (enums.SettlementStatus, error)
	Clear(ctx context.Context, contextID uuid.UUID, committedTotal decimal.Decimal) error
	Discard(ctx context.Context, contextID uuid.UUID) error
}

type service struct {
	repo      Repository
	sequences redis.SequenceStore
}

// RecordPaymentInput captures a payment request. CommittedTotal is the total
// of the last commit for the context.
type RecordPaymentInput struct {
	ContextID      uuid.UUID           `json:"context_id"`
	Amount         decimal.Decimal     `json:"amount"`
	Method         enums.PaymentMethod `json:"method"`
	CommittedTotal decimal.Decimal     `json:"committed_total"`
}

// RecordPaymentResult reports what was recorded. Recorded is lower than
// Requested when the payment was clamped to the amount due.
type RecordPaymentResult struct {
	Payment   *models.PartialPayment `json:"payment"`
	Requested decimal.Decimal        `json:"requested"`
	Recorded  decimal.Decimal        `json:"recorded"`
	Clamped   bool                   `json:"clamped"`
	AmountDue decimal.Decimal        `json:"amount_due"`
	Status    enums.SettlementStatus `json:"status"`
}

// NewService wires a ledger service with the provided repository and receipt
// sequence.
func NewService(repo Repository, sequences redis.SequenceStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if sequences == nil {
		return nil, fmt.Errorf("sequence store required")
	}
	return &service{repo: repo, sequences: sequences}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), sequences: s.sequences}
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if input.ContextID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "context id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}
	requested := input.Amount.Round(2)
	if !requested.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be at least 0.01").
			WithDetails(map[string]any{"field": "amount"})
	}
	if input.CommittedTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "committed total must not be negative")
	}

	paid, err := s.TotalPaid(ctx, input.ContextID)
	if err != nil {
		return nil, err
	}
	due := amountDue(input.CommittedTotal, paid)
	if due.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodePaymentOveruse, "nothing is owed on this order").
			WithDetails(map[string]any{"requested": input.Amount.StringFixed(2), "amount_due": "0.00"})
	}

	recorded := requested
	clamped := false
	if recorded.GreaterThan(due) {
		recorded = due
		clamped = true
	}

	seq, err := s.sequences.NextSequence(ctx, receiptSequence)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate receipt number")
	}

	payment := &models.PartialPayment{
		ContextID:     input.ContextID,
		Amount:        recorded,
		Method:        input.Method,
		ReceiptNumber: ReceiptNumber(seq),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	remaining := due.Sub(recorded)
	return &RecordPaymentResult{
		Payment:   payment,
		Requested: requested,
		Recorded:  recorded,
		Clamped:   clamped,
		AmountDue: remaining,
		Status:    statusFor(paid.Add(recorded), remaining),
	}, nil
}

// AmountDue returns max(0, committedTotal - totalPaid) in cents.
func (s *service) AmountDue(ctx context.Context, contextID uuid.UUID, committedTotal decimal.Decimal) (decimal.Decimal, error) {
	paid, err := s.TotalPaid(ctx, contextID)
	if err != nil {
		return decimal.Zero, err
	}
	return amountDue(committedTotal, paid), nil
}

func (s *service) TotalPaid(ctx context.Context, contextID uuid.UUID) (decimal.Decimal, error) {
	payments, err := s.List(ctx, contextID)
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(payments), nil
}

func (s *service) List(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error) {
	if contextID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "context id is required")
	}
	payments, err := s.repo.ListByContext(ctx, contextID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return payments, nil
}

func (s *service) Status(ctx context.Context, contextID uuid.UUID, committedTotal decimal.Decimal) (enums.SettlementStatus, error) {
	paid, err := s.TotalPaid(ctx, contextID)
	if err != nil {
		return "", err
	}
	return statusFor(paid, amountDue(committedTotal, paid)), nil
}

// Clear removes the payments of a fully settled context.
func (s *service) Clear(ctx context.Context, contextID uuid.UUID, committedTotal decimal.Decimal) error {
	due, err := s.AmountDue(ctx, contextID, committedTotal)
	if err != nil {
		return err
	}
	if due.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payments can only be cleared once the order is settled").
			WithDetails(map[string]any{"amount_due": due.StringFixed(2)})
	}
	return s.Discard(ctx, contextID)
}

// Discard removes the payments of a context that is being thrown away.
func (s *service) Discard(ctx context.Context, contextID uuid.UUID) error {
	if contextID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "context id is required")
	}
	if err := s.repo.DeleteByContext(ctx, contextID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear payments")
	}
	return nil
}

// ReceiptNumber formats a receipt sequence value, e.g. R000042.
func ReceiptNumber(seq int64) string {
	return fmt.Sprintf("R%06d", seq)
}

// Sum totals the payment amounts.
func Sum(payments []models.PartialPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func amountDue(committedTotal, paid decimal.Decimal) decimal.Decimal {
	due := committedTotal.Round(2).Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

func statusFor(paid, due decimal.Decimal) enums.SettlementStatus {
	switch {
	case due.IsZero():
		return enums.SettlementStatusSettled
	case !paid.IsPositive():
		return enums.SettlementStatusOpen
	default:
		return enums.SettlementStatusPartiallyPaid
	}
}
