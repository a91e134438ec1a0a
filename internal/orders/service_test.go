package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/internal/ledger"
	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	"github.com/angelmondragon/kimipos-backend/internal/printing"
	"github.com/angelmondragon/kimipos-backend/internal/tables"
	"github.com/angelmondragon/kimipos-backend/internal/tickets"
	"github.com/angelmondragon/kimipos-backend/pkg/db"
	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

type fakePricing struct {
	products map[uuid.UUID]pricing.Resolution
}

func (f *fakePricing) Resolve(ctx context.Context, req pricing.Request) (pricing.Resolution, error) {
	res, ok := f.products[req.ProductID]
	if !ok {
		return pricing.Resolution{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if req.ManualPrice != nil {
		res.UnitPrice = *req.ManualPrice
		res.NaturalPrice = *req.ManualPrice
		res.Source = pricing.ManualOverride{}
	}
	return res, nil
}

type recordingDispatcher struct {
	mu      sync.Mutex
	jobs    []printing.Job
	report  printing.Report
	started chan struct{}
	release chan struct{}
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job printing.Job) printing.Report {
	if d.started != nil {
		d.started <- struct{}{}
		<-d.release
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	if job.Kind == enums.TicketKindOrder && (len(d.report.Failed) > 0 || d.report.Unassigned > 0) {
		return d.report
	}
	return printing.Report{Succeeded: []string{"Kitchen"}}
}

func (d *recordingDispatcher) take() []printing.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.jobs
	d.jobs = nil
	return out
}

type fakeSequences struct {
	mu   sync.Mutex
	next map[string]int64
}

func (f *fakeSequences) NextSequence(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == nil {
		f.next = map[string]int64{}
	}
	f.next[name]++
	return f.next[name], nil
}

type testEnv struct {
	conn    *gorm.DB
	svc     Service
	tables  tables.Service
	pricing *fakePricing
	printer *recordingDispatcher
	seq     *fakeSequences

	burger uuid.UUID
	fries  uuid.UUID
	cola   uuid.UUID
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.OrderContext{},
		&models.OrderRecord{},
		&models.PartialPayment{},
		&models.ClosedTicket{},
	); err != nil {
		t.Fatalf("migrate orders: %v", err)
	}
	return conn
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		conn:    newTestDB(t),
		printer: &recordingDispatcher{},
		seq:     &fakeSequences{},
		burger:  uuid.New(),
		fries:   uuid.New(),
		cola:    uuid.New(),
	}
	kitchen := uuid.New()
	env.pricing = &fakePricing{products: map[uuid.UUID]pricing.Resolution{
		env.burger: resolution(env.burger, kitchen, "Burger", "9.50"),
		env.fries:  resolution(env.fries, kitchen, "Fries", "3.00"),
		env.cola:   resolution(env.cola, uuid.New(), "Cola", "2.00"),
	}}
	env.svc, env.tables = env.newService(t)
	return env
}

func (env *testEnv) newService(t *testing.T) (Service, tables.Service) {
	t.Helper()
	tablesSvc, err := tables.NewService(tables.NewRepository(env.conn))
	require.NoError(t, err)
	payments, err := ledger.NewService(ledger.NewRepository(env.conn), env.seq)
	require.NoError(t, err)
	archive, err := tickets.NewService(tickets.NewRepository(env.conn), env.seq)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:       db.FromConn(env.conn),
		Repo:     NewRepository(env.conn),
		Tables:   tablesSvc,
		Pricing:  env.pricing,
		Printer:  env.printer,
		Payments: payments,
		Tickets:  archive,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	return svc, tablesSvc
}

func resolution(productID, categoryID uuid.UUID, name, price string) pricing.Resolution {
	return pricing.Resolution{
		ProductID:    productID,
		CategoryID:   categoryID,
		DisplayName:  name,
		UnitPrice:    dec(price),
		NaturalPrice: dec(price),
		Source:       pricing.BasePrice{},
		TaxRate:      dec("0.10"),
		TaxName:      "IVA",
	}
}

func (env *testEnv) table(t *testing.T, number int) *models.OrderContext {
	t.Helper()
	oc, err := env.tables.CreateTable(context.Background(), tables.CreateTableInput{Number: number})
	require.NoError(t, err)
	return oc
}

func (env *testEnv) add(t *testing.T, contextID, productID uuid.UUID, quantity int) *OrderView {
	t.Helper()
	view, err := env.svc.AddLine(context.Background(), AddLineInput{
		ContextID: contextID,
		ProductID: productID,
		Quantity:  quantity,
	})
	require.NoError(t, err)
	return view
}

func (env *testEnv) status(t *testing.T, contextID uuid.UUID) enums.TableStatus {
	t.Helper()
	oc, err := env.tables.Get(context.Background(), contextID)
	require.NoError(t, err)
	return oc.Status
}

func jobQuantities(job printing.Job) map[string]int {
	out := make(map[string]int, len(job.Items))
	for _, item := range job.Items {
		out[item.Name] += item.Quantity
	}
	return out
}

func TestCommitPrintsOnlyTheDelta(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 4)

	env.add(t, table.ID, env.burger, 2)
	env.add(t, table.ID, env.fries, 1)
	assert.Equal(t, enums.TableStatusOccupied, env.status(t, table.ID))

	first, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Printed)
	assert.Empty(t, first.Warnings)
	jobs := env.printer.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, enums.TicketKindOrder, jobs[0].Kind)
	assert.Equal(t, "Table 4", jobs[0].ContextLabel)
	require.NotNil(t, jobs[0].TableNumber)
	assert.Equal(t, 4, *jobs[0].TableNumber)
	assert.Equal(t, map[string]int{"Burger": 2, "Fries": 1}, jobQuantities(jobs[0]))
	assert.False(t, first.Order.Pending)
	require.NotNil(t, first.Order.Committed)
	assert.Equal(t, "22.00", first.Order.Committed.Subtotal.StringFixed(2))
	assert.Equal(t, "24.20", first.Order.Committed.Total.StringFixed(2))

	env.add(t, table.ID, env.burger, 1)
	env.add(t, table.ID, env.cola, 1)
	view, err := env.svc.RemoveLine(ctx, table.ID, 1)
	require.NoError(t, err)
	assert.True(t, view.Pending)

	second, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Printed)
	assert.Equal(t, 1, second.Cancelled)
	jobs = env.printer.take()
	require.Len(t, jobs, 2)
	assert.Equal(t, enums.TicketKindOrder, jobs[0].Kind)
	assert.Equal(t, map[string]int{"Burger": 1, "Cola": 1}, jobQuantities(jobs[0]))
	assert.Equal(t, enums.TicketKindCancellation, jobs[1].Kind)
	assert.Equal(t, map[string]int{"Fries": 1}, jobQuantities(jobs[1]))

	unchanged, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	assert.Zero(t, unchanged.Printed)
	assert.Empty(t, env.printer.take())
}

func TestCommitRequiresLines(t *testing.T) {
	env := newTestEnv(t)
	table := env.table(t, 1)

	_, err := env.svc.Commit(context.Background(), table.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestEmptyingUncommittedOrderVacatesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 2)

	env.add(t, table.ID, env.cola, 1)
	assert.Equal(t, enums.TableStatusOccupied, env.status(t, table.ID))

	view, err := env.svc.UpdateLine(ctx, UpdateLineInput{ContextID: table.ID, Index: 0, QuantityDelta: -1})
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, enums.TableStatusAvailable, env.status(t, table.ID))
}

func TestCommitWithFailedDestinationStillAdvancesBaseline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 3)
	env.printer.report = printing.Report{
		Succeeded:  []string{"Kitchen"},
		Failed:     []string{"Bar"},
		Errors:     map[string]error{"Bar": pkgerrors.New(pkgerrors.CodeDestinationTimeout, "print timed out")},
		Unassigned: 1,
	}

	env.add(t, table.ID, env.burger, 1)
	env.add(t, table.ID, env.cola, 1)
	result, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bar"}, result.Report.Failed)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "Bar")
	assert.Contains(t, result.Warnings[1], "1 line(s)")
	assert.False(t, result.Order.Pending)
}

func TestStructuralEditsRejectedWhileCommitting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 5)
	env.add(t, table.ID, env.burger, 1)

	env.printer.started = make(chan struct{})
	env.printer.release = make(chan struct{})

	type outcome struct {
		result *CommitResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := env.svc.Commit(ctx, table.ID)
		done <- outcome{res, err}
	}()
	<-env.printer.started

	_, err := env.svc.AddLine(ctx, AddLineInput{ContextID: table.ID, ProductID: env.fries})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	_, err = env.svc.RemoveLine(ctx, table.ID, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.Is(env.svc.Clear(ctx, table.ID), pkgerrors.CodeStateConflict))
	_, err = env.svc.Commit(ctx, table.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	price := dec("8.00")
	view, err := env.svc.UpdateLine(ctx, UpdateLineInput{ContextID: table.ID, Index: 0, Price: &price})
	require.NoError(t, err)
	assert.True(t, view.Committing)

	close(env.printer.release)
	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.result.Order.Pending)
	assert.Equal(t, "9.50", out.result.Order.Committed.Subtotal.StringFixed(2))
	assert.Equal(t, "8.00", out.result.Order.Totals.Subtotal.StringFixed(2))
}

func TestUpdateLineOverrideAndReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 6)
	env.add(t, table.ID, env.burger, 2)

	price := dec("7.00")
	view, err := env.svc.UpdateLine(ctx, UpdateLineInput{
		ContextID: table.ID,
		Price:     &price,
		Modifiers: []string{"no onion", "extra cheese"},
	})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "7", view.Lines[0].UnitPrice.String())
	assert.Equal(t, []string{"extra cheese", "no onion"}, view.Lines[0].Modifiers)
	assert.Equal(t, "14.00", view.Lines[0].Total.StringFixed(2))

	view, err = env.svc.UpdateLine(ctx, UpdateLineInput{ContextID: table.ID, ResetPrice: true})
	require.NoError(t, err)
	assert.Equal(t, "9.5", view.Lines[0].UnitPrice.String())

	negative := dec("-1")
	_, err = env.svc.UpdateLine(ctx, UpdateLineInput{ContextID: table.ID, Price: &negative})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = env.svc.UpdateLine(ctx, UpdateLineInput{ContextID: table.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = env.svc.UpdateLine(ctx, UpdateLineInput{ContextID: table.ID, Index: 3, QuantityDelta: 1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDifferentialLinesAreNotPrinted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 7)
	env.add(t, table.ID, env.burger, 1)

	view, err := env.svc.AddDifferential(ctx, AddDifferentialInput{ContextID: table.ID, Name: "Refund", Amount: dec("-2.00")})
	require.NoError(t, err)
	assert.Equal(t, "8.45", view.Totals.Total.StringFixed(2))

	_, err = env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	jobs := env.printer.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, map[string]int{"Burger": 1}, jobQuantities(jobs[0]))
}

func TestPaymentsAndSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 8)
	env.add(t, table.ID, env.burger, 2)

	_, err := env.svc.RecordPayment(ctx, PaymentInput{ContextID: table.ID, Amount: dec("5"), Method: enums.PaymentMethodCash})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)

	paid, err := env.svc.RecordPayment(ctx, PaymentInput{ContextID: table.ID, Amount: dec("10.00"), Method: enums.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementStatusPartiallyPaid, paid.Status)
	assert.Equal(t, "10.90", paid.AmountDue.StringFixed(2))

	view, err := env.svc.GetOrder(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", view.AmountPaid.StringFixed(2))
	assert.Equal(t, enums.SettlementStatusPartiallyPaid, view.Status)

	var record models.OrderRecord
	require.NoError(t, env.conn.First(&record, "context_id = ?", table.ID).Error)
	assert.Equal(t, "10.90", record.Outstanding.StringFixed(2))
	assert.Equal(t, "20.90", record.Total.StringFixed(2))

	_, err = env.svc.Settle(ctx, SettleInput{ContextID: table.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	card := enums.PaymentMethodCard
	ticket, err := env.svc.Settle(ctx, SettleInput{ContextID: table.ID, Method: &card})
	require.NoError(t, err)
	assert.Equal(t, "000001", ticket.TicketNumber)
	assert.Equal(t, "20.90", ticket.Total.StringFixed(2))
	require.Len(t, ticket.Payments.V, 2)
	assert.Equal(t, "10.90", ticket.Payments.V[1].Amount.StringFixed(2))

	assert.Equal(t, enums.TableStatusAvailable, env.status(t, table.ID))
	err = env.conn.First(&models.OrderRecord{}, "context_id = ?", table.ID).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	payments, err := env.svc.Payments(ctx, table.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	view, err = env.svc.GetOrder(ctx, table.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Nil(t, view.Committed)
}

func TestRecordPaymentRollsBackWhenOrderUpdateFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 12)
	env.add(t, table.ID, env.burger, 1)
	_, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)

	require.NoError(t, env.conn.Where("context_id = ?", table.ID).Delete(&models.OrderRecord{}).Error)

	_, err = env.svc.RecordPayment(ctx, PaymentInput{ContextID: table.ID, Amount: dec("5.00"), Method: enums.PaymentMethodCash})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	payments, err := env.svc.Payments(ctx, table.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	var count int64
	require.NoError(t, env.conn.Model(&models.PartialPayment{}).Where("context_id = ?", table.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSettleRejectsUncommittedChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 9)
	env.add(t, table.ID, env.cola, 1)
	_, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	env.add(t, table.ID, env.cola, 1)

	card := enums.PaymentMethodCard
	_, err = env.svc.Settle(ctx, SettleInput{ContextID: table.ID, Method: &card})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestClearRemovesNamedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, err := env.tables.CreateAccount(ctx, tables.CreateAccountInput{Name: "Joe"})
	require.NoError(t, err)
	env.add(t, account.ID, env.cola, 2)
	_, err = env.svc.Commit(ctx, account.ID)
	require.NoError(t, err)
	jobs := env.printer.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, "Joe", jobs[0].CustomerName)
	assert.Nil(t, jobs[0].TableNumber)

	_, err = env.svc.RecordPayment(ctx, PaymentInput{ContextID: account.ID, Amount: dec("1"), Method: enums.PaymentMethodCash})
	require.NoError(t, err)

	require.NoError(t, env.svc.Clear(ctx, account.ID))
	_, err = env.tables.Get(ctx, account.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	var count int64
	require.NoError(t, env.conn.Model(&models.PartialPayment{}).Where("context_id = ?", account.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommitCancellingEverythingReleasesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 10)
	env.add(t, table.ID, env.fries, 2)
	_, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	env.printer.take()

	_, err = env.svc.RemoveLine(ctx, table.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, enums.TableStatusOccupied, env.status(t, table.ID))

	result, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cancelled)
	assert.Empty(t, result.Order.Lines)
	jobs := env.printer.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, enums.TicketKindCancellation, jobs[0].Kind)
	assert.Equal(t, enums.TableStatusAvailable, env.status(t, table.ID))
}

func TestMergeCarriesPrintedLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	master := env.table(t, 11)
	secondary := env.table(t, 12)

	env.add(t, master.ID, env.burger, 1)
	_, err := env.svc.Commit(ctx, master.ID)
	require.NoError(t, err)
	env.add(t, secondary.ID, env.cola, 2)
	_, err = env.svc.Commit(ctx, secondary.ID)
	require.NoError(t, err)
	env.add(t, secondary.ID, env.fries, 1)
	env.printer.take()

	view, err := env.svc.Merge(ctx, MergeInput{MasterID: master.ID, SecondaryID: secondary.ID})
	require.NoError(t, err)
	require.Len(t, view.Lines, 3)
	assert.True(t, view.Pending)
	assert.Equal(t, "13.50", view.Committed.Subtotal.StringFixed(2))
	assert.Equal(t, enums.TableStatusAvailable, env.status(t, secondary.ID))

	result, err := env.svc.Commit(ctx, master.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Printed)
	jobs := env.printer.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, map[string]int{"Fries": 1}, jobQuantities(jobs[0]))

	_, err = env.svc.Merge(ctx, MergeInput{MasterID: master.ID, SecondaryID: master.ID})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestRestoreLoadsCommittedOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 13)
	env.add(t, table.ID, env.burger, 3)
	_, err := env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)

	restarted, _ := env.newService(t)
	n, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	view, err := restarted.GetOrder(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.False(t, view.Pending)

	result, err := restarted.Commit(ctx, table.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Printed)
}

func TestChangeTableStatusOnlyWhenEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 14)

	oc, err := env.svc.ChangeTableStatus(ctx, table.ID, enums.TableStatusReserved)
	require.NoError(t, err)
	assert.Equal(t, enums.TableStatusReserved, oc.Status)

	env.add(t, table.ID, env.cola, 1)
	_, err = env.svc.ChangeTableStatus(ctx, table.ID, enums.TableStatusMaintenance)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestReprintSendsCommittedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.table(t, 15)
	env.add(t, table.ID, env.burger, 2)

	_, err := env.svc.Reprint(ctx, table.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = env.svc.Commit(ctx, table.ID)
	require.NoError(t, err)
	env.add(t, table.ID, env.fries, 1)
	env.printer.take()

	report, err := env.svc.Reprint(ctx, table.ID)
	require.NoError(t, err)
	assert.True(t, report.OK())
	jobs := env.printer.take()
	require.Len(t, jobs, 1)
	assert.Equal(t, enums.TicketKindReprint, jobs[0].Kind)
	assert.Equal(t, map[string]int{"Burger": 2}, jobQuantities(jobs[0]))
}

func TestUnknownContext(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetOrder(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
