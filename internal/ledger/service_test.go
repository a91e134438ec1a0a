package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
)

type fakeRepository struct {
	payments  []models.PartialPayment
	createErr error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, payment *models.PartialPayment) error {
	if f.createErr != nil {
		return f.createErr
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakeRepository) ListByContext(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error) {
	var out []models.PartialPayment
	for _, p := range f.payments {
		if p.ContextID == contextID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) DeleteByContext(ctx context.Context, contextID uuid.UUID) error {
	kept := f.payments[:0]
	for _, p := range f.payments {
		if p.ContextID != contextID {
			kept = append(kept, p)
		}
	}
	f.payments = kept
	return nil
}

type fakeSequences struct {
	next int64
	err  error
}

func (f *fakeSequences) NextSequence(ctx context.Context, name string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.next++
	return f.next, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (Service, *fakeRepository) {
	t.Helper()
	repo := &fakeRepository{}
	svc, err := NewService(repo, &fakeSequences{})
	require.NoError(t, err)
	return svc, repo
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &fakeSequences{})
	assert.Error(t, err)
	_, err = NewService(&fakeRepository{}, nil)
	assert.Error(t, err)
}

func TestRecordPaymentPartialThenFull(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	contextID := uuid.New()
	total := dec("37.29")

	status, err := svc.Status(ctx, contextID, total)
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementStatusOpen, status)

	first, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("20"), Method: enums.PaymentMethodCash, CommittedTotal: total})
	require.NoError(t, err)
	assert.False(t, first.Clamped)
	assert.Equal(t, "17.29", first.AmountDue.StringFixed(2))
	assert.Equal(t, enums.SettlementStatusPartiallyPaid, first.Status)
	assert.Equal(t, "R000001", first.Payment.ReceiptNumber)

	second, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("17.29"), Method: enums.PaymentMethodCard, CommittedTotal: total})
	require.NoError(t, err)
	assert.True(t, second.AmountDue.IsZero())
	assert.Equal(t, enums.SettlementStatusSettled, second.Status)
	assert.Equal(t, "R000002", second.Payment.ReceiptNumber)

	paid, err := svc.TotalPaid(ctx, contextID)
	require.NoError(t, err)
	assert.True(t, paid.Equal(total))
}

func TestRecordPaymentClampsToAmountDue(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	contextID := uuid.New()
	total := dec("10.00")

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("4"), Method: enums.PaymentMethodCash, CommittedTotal: total})
	require.NoError(t, err)

	res, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("50"), Method: enums.PaymentMethodCash, CommittedTotal: total})
	require.NoError(t, err)
	assert.True(t, res.Clamped)
	assert.Equal(t, "50.00", res.Requested.StringFixed(2))
	assert.Equal(t, "6.00", res.Recorded.StringFixed(2))
	assert.True(t, repo.payments[1].Amount.Equal(dec("6")))
	assert.Equal(t, enums.SettlementStatusSettled, res.Status)

	_, err = svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("1"), Method: enums.PaymentMethodCash, CommittedTotal: total})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePaymentOveruse))
	assert.Len(t, repo.payments, 2)
}

func TestAmountDueIsMonotonic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	contextID := uuid.New()
	total := dec("23.45")

	prev, err := svc.AmountDue(ctx, contextID, total)
	require.NoError(t, err)
	assert.True(t, prev.Equal(total))

	for _, amount := range []string{"3.10", "0.01", "7", "100"} {
		res, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec(amount), Method: enums.PaymentMethodCard, CommittedTotal: total})
		require.NoError(t, err)
		assert.True(t, res.Recorded.LessThanOrEqual(prev), "recorded %s exceeds due %s", res.Recorded, prev)

		due, err := svc.AmountDue(ctx, contextID, total)
		require.NoError(t, err)
		assert.True(t, due.LessThanOrEqual(prev))
		assert.False(t, due.IsNegative())
		prev = due
	}
	assert.True(t, prev.IsZero())
}

func TestRecordPaymentValidation(t *testing.T) {
	svc, repo := newTestService(t)
	tests := []struct {
		name  string
		input RecordPaymentInput
	}{
		{"missing context", RecordPaymentInput{Amount: dec("1"), Method: enums.PaymentMethodCash, CommittedTotal: dec("5")}},
		{"zero amount", RecordPaymentInput{ContextID: uuid.New(), Amount: decimal.Zero, Method: enums.PaymentMethodCash, CommittedTotal: dec("5")}},
		{"negative amount", RecordPaymentInput{ContextID: uuid.New(), Amount: dec("-1"), Method: enums.PaymentMethodCash, CommittedTotal: dec("5")}},
		{"sub-cent amount", RecordPaymentInput{ContextID: uuid.New(), Amount: dec("0.004"), Method: enums.PaymentMethodCash, CommittedTotal: dec("10")}},
		{"invalid method", RecordPaymentInput{ContextID: uuid.New(), Amount: dec("1"), Method: enums.PaymentMethod("voucher"), CommittedTotal: dec("5")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordPayment(context.Background(), tc.input)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, repo.payments)
}

func TestRecordPaymentRoundsToCents(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.RecordPayment(context.Background(), RecordPaymentInput{ContextID: uuid.New(), Amount: dec("0.005"), Method: enums.PaymentMethodCash, CommittedTotal: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "0.01", res.Recorded.StringFixed(2))
	assert.Equal(t, "0.01", res.Payment.Amount.StringFixed(2))
	assert.Equal(t, "9.99", res.AmountDue.StringFixed(2))
}

func TestStatusZeroTotalIsSettled(t *testing.T) {
	svc, _ := newTestService(t)
	status, err := svc.Status(context.Background(), uuid.New(), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementStatusSettled, status)
}

func TestRecordPaymentDependencyErrors(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("boom")}
	svc, err := NewService(repo, &fakeSequences{})
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{ContextID: uuid.New(), Amount: dec("1"), Method: enums.PaymentMethodCash, CommittedTotal: dec("5")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	svc, err = NewService(&fakeRepository{}, &fakeSequences{err: errors.New("redis down")})
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), RecordPaymentInput{ContextID: uuid.New(), Amount: dec("1"), Method: enums.PaymentMethodCash, CommittedTotal: dec("5")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestClearRequiresSettlement(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	contextID := uuid.New()
	total := dec("10")

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("4"), Method: enums.PaymentMethodCash, CommittedTotal: total})
	require.NoError(t, err)

	err = svc.Clear(ctx, contextID, total)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	assert.Len(t, repo.payments, 1)

	_, err = svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("6"), Method: enums.PaymentMethodCash, CommittedTotal: total})
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, contextID, total))
	assert.Empty(t, repo.payments)
}

func TestDiscardIgnoresAmountDue(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	contextID := uuid.New()
	other := uuid.New()

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{ContextID: contextID, Amount: dec("4"), Method: enums.PaymentMethodCash, CommittedTotal: dec("10")})
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, RecordPaymentInput{ContextID: other, Amount: dec("4"), Method: enums.PaymentMethodCash, CommittedTotal: dec("10")})
	require.NoError(t, err)

	require.NoError(t, svc.Discard(ctx, contextID))
	require.Len(t, repo.payments, 1)
	assert.Equal(t, other, repo.payments[0].ContextID)
}

func TestReceiptNumber(t *testing.T) {
	assert.Equal(t, "R000001", ReceiptNumber(1))
	assert.Equal(t, "R1234567", ReceiptNumber(1234567))
}
