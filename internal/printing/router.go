package printing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
	"github.com/angelmondragon/kimipos-backend/pkg/metrics"
)

// DefaultTimeout bounds one submission when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// PrinterLookup resolves printer overrides. An empty name means none.
type PrinterLookup interface {
	ProductPrinter(ctx context.Context, productID uuid.UUID) (string, error)
	CategoryPrinter(ctx context.Context, categoryID uuid.UUID) (string, error)
}

// Router partitions lines by destination and submits one ticket per
// destination, one destination at a time.
type Router struct {
	printers  PrinterLookup
	submitter Submitter
	timeout   time.Duration
	metrics   *metrics.DispatchMetrics
	logg      *logger.Logger
	terminal  string
	now       func() time.Time
}

func NewRouter(printers PrinterLookup, submitter Submitter, timeout time.Duration, m *metrics.DispatchMetrics, logg *logger.Logger) (*Router, error) {
	if printers == nil {
		return nil, fmt.Errorf("printer lookup required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("print submitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Router{
		printers:  printers,
		submitter: submitter,
		timeout:   timeout,
		metrics:   m,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// WithTerminal names the till in every ticket header.
func (r *Router) WithTerminal(name string) *Router {
	r.terminal = name
	return r
}

// Destination resolves where an item prints: the product's printer, else
// its category's printer, else Unassigned.
func (r *Router) Destination(ctx context.Context, item Item) string {
	if name, err := r.printers.ProductPrinter(ctx, item.ProductID); err != nil {
		r.logg.Error(r.logg.WithField(ctx, "product_id", item.ProductID.String()), "product printer lookup failed", err)
	} else if name != "" {
		return name
	}
	if name, err := r.printers.CategoryPrinter(ctx, item.CategoryID); err != nil {
		r.logg.Error(r.logg.WithField(ctx, "category_id", item.CategoryID.String()), "category printer lookup failed", err)
	} else if name != "" {
		return name
	}
	return Unassigned
}

// Partition groups items by destination. Unassigned items are returned
// under Unassigned.
func (r *Router) Partition(ctx context.Context, items []Item) map[string][]Item {
	groups := make(map[string][]Item)
	for _, item := range items {
		dest := r.Destination(ctx, item)
		groups[dest] = append(groups[dest], item)
	}
	return groups
}

// Dispatch sends one ticket per assigned destination in name order. A
// failing destination does not stop the others. Submissions already started
// are not cancelled with ctx, but once ctx is done the remaining
// destinations are reported as failed without being tried.
func (r *Router) Dispatch(ctx context.Context, job Job) Report {
	report := Report{}
	if len(job.Items) == 0 {
		return report
	}
	ctx = r.logg.WithOrderContext(ctx, job.ContextID.String())

	groups := r.Partition(ctx, job.Items)
	if unassigned := groups[Unassigned]; len(unassigned) > 0 {
		report.Unassigned = len(unassigned)
		delete(groups, Unassigned)
		r.metrics.AddUnassigned(job.Kind.String(), len(unassigned))
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
			"kind":             job.Kind.String(),
			"unassigned_lines": len(unassigned),
		}), "order lines have no print destination")
	}

	stamp := r.now()
	for _, dest := range sortedDestinations(groups) {
		dctx := r.logg.WithDestination(ctx, dest)
		if err := ctx.Err(); err != nil {
			r.fail(&report, dest, pkgerrors.Wrap(pkgerrors.CodeDestinationUnreachable, err, "dispatch aborted before submission").
				WithDetails(map[string]any{"destination": dest}))
			continue
		}

		items := groups[dest]
		ticket := Ticket{
			Kind:         job.Kind,
			Destination:  dest,
			Terminal:     r.terminal,
			ContextLabel: job.ContextLabel,
			TableNumber:  job.TableNumber,
			CustomerName: job.CustomerName,
			Timestamp:    stamp,
			Items:        items,
			Subtotal:     subtotal(items),
		}

		started := time.Now()
		err := r.submit(ctx, ticket)
		elapsed := time.Since(started)
		if err != nil {
			outcome := metrics.OutcomeUnreachable
			code := pkgerrors.CodeDestinationUnreachable
			if isTimeout(err) {
				outcome = metrics.OutcomeTimeout
				code = pkgerrors.CodeDestinationTimeout
			}
			r.metrics.ObserveSubmit(dest, job.Kind.String(), outcome, elapsed)
			typed := pkgerrors.Wrap(code, err, "print submission failed").
				WithDetails(map[string]any{"destination": dest})
			r.logg.Warn(r.logg.WithField(dctx, "error", err.Error()), "ticket submission failed")
			r.fail(&report, dest, typed)
			continue
		}

		r.metrics.ObserveSubmit(dest, job.Kind.String(), metrics.OutcomeSuccess, elapsed)
		r.logg.Info(r.logg.WithFields(dctx, map[string]any{
			"kind":  job.Kind.String(),
			"lines": len(items),
		}), "ticket printed")
		report.Succeeded = append(report.Succeeded, dest)
	}
	return report
}

func (r *Router) submit(ctx context.Context, ticket Ticket) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- r.submitter.Submit(sctx, ticket)
	}()
	select {
	case err := <-done:
		return err
	case <-sctx.Done():
		return sctx.Err()
	}
}

func (r *Router) fail(report *Report, dest string, err error) {
	report.Failed = append(report.Failed, dest)
	if report.Errors == nil {
		report.Errors = make(map[string]error)
	}
	report.Errors[dest] = err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
