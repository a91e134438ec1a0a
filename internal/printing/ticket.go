// Package printing routes order lines to kitchen and bar printers.
package printing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// Unassigned is the destination of lines whose product and category have no
// printer. Those lines are never sent anywhere.
const Unassigned = "unassigned"

// Item is one printed row.
type Item struct {
	ProductID  uuid.UUID       `json:"product_id"`
	CategoryID uuid.UUID       `json:"category_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Modifiers  []string        `json:"modifiers,omitempty"`
}

func (i Item) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Job is a set of lines to dispatch for one order context.
type Job struct {
	Kind         enums.TicketKind
	ContextID    uuid.UUID
	ContextLabel string
	TableNumber  *int
	CustomerName string
	Items        []Item
}

// Ticket is the document sent to one destination.
type Ticket struct {
	Kind         enums.TicketKind
	Destination  string
	Terminal     string
	ContextLabel string
	TableNumber  *int
	CustomerName string
	Timestamp    time.Time
	Items        []Item
	Subtotal     decimal.Decimal
}

// Submitter sends a ticket to a destination. It is the only place dispatch
// waits on I/O; implementations must honour ctx.
type Submitter interface {
	Submit(ctx context.Context, ticket Ticket) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, ticket Ticket) error

func (f SubmitterFunc) Submit(ctx context.Context, ticket Ticket) error {
	return f(ctx, ticket)
}

// Report is the outcome of one dispatch. Failures are data, not errors.
type Report struct {
	Succeeded  []string         `json:"succeeded"`
	Failed     []string         `json:"failed"`
	Errors     map[string]error `json:"-"`
	Unassigned int              `json:"unassigned"`
}

// OK reports whether every assigned destination printed.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Err folds the per-destination failures into one error, nil when none.
func (r Report) Err() error {
	var err error
	for _, dest := range r.Failed {
		err = multierr.Append(err, r.Errors[dest])
	}
	return err
}

// Merge appends other into r, keeping destination order.
func (r Report) Merge(other Report) Report {
	out := Report{
		Succeeded:  append(append([]string(nil), r.Succeeded...), other.Succeeded...),
		Failed:     append(append([]string(nil), r.Failed...), other.Failed...),
		Unassigned: r.Unassigned + other.Unassigned,
	}
	if len(r.Errors)+len(other.Errors) > 0 {
		out.Errors = make(map[string]error, len(r.Errors)+len(other.Errors))
		for k, v := range r.Errors {
			out.Errors[k] = v
		}
		for k, v := range other.Errors {
			out.Errors[k] = multierr.Append(out.Errors[k], v)
		}
	}
	return out
}

func sortedDestinations(groups map[string][]Item) []string {
	out := make([]string, 0, len(groups))
	for dest := range groups {
		out = append(out, dest)
	}
	sort.Strings(out)
	return out
}

func subtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}
