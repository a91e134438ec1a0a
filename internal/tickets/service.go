package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/kimipos-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/pagination"
	"github.com/angelmondragon/kimipos-backend/pkg/redis"
)

const ticketSequence = "ticket"

// Service archives settled orders as closed tickets.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Archive(ctx context.Context, input ArchiveInput) (*models.ClosedTicket, error)
	Get(ctx context.Context, number string) (*models.ClosedTicket, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
}

// ArchiveInput is the settled order being closed.
type ArchiveInput struct {
	ContextID    uuid.UUID
	ContextLabel string
	Items        []models.OrderItem
	Payments     []models.PartialPayment
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// ListResult is one page of closed tickets.
type ListResult struct {
	Tickets    []models.ClosedTicket `json:"tickets"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type service struct {
	repo      Repository
	sequences redis.SequenceStore
	now       func() time.Time
}

// NewService wires the closed ticket archive.
func NewService(repo Repository, sequences redis.SequenceStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if sequences == nil {
		return nil, fmt.Errorf("sequence store required")
	}
	return &service{repo: repo, sequences: sequences, now: time.Now}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), sequences: s.sequences, now: s.now}
}

func (s *service) Archive(ctx context.Context, input ArchiveInput) (*models.ClosedTicket, error) {
	if input.ContextID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "context id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot archive an empty order")
	}

	seq, err := s.sequences.NextSequence(ctx, ticketSequence)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate ticket number")
	}

	payments := make([]models.TicketPayment, 0, len(input.Payments))
	for _, p := range input.Payments {
		payments = append(payments, models.TicketPayment{
			Amount:        p.Amount,
			Method:        p.Method,
			ReceiptNumber: p.ReceiptNumber,
			PaidAt:        p.CreatedAt,
		})
	}

	ticket := &models.ClosedTicket{
		TicketNumber: TicketNumber(seq),
		ContextID:    input.ContextID,
		ContextLabel: input.ContextLabel,
		Items:        dbtypes.NewJSON(input.Items),
		Payments:     dbtypes.NewJSON(payments),
		Subtotal:     input.Subtotal.Round(2),
		Tax:          input.Tax.Round(2),
		Total:        input.Total.Round(2),
		ClosedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive ticket")
	}
	return ticket, nil
}

func (s *service) Get(ctx context.Context, number string) (*models.ClosedTicket, error) {
	ticket, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return ticket, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	page, next := pagination.Trim(rows, params.Limit, func(t models.ClosedTicket) pagination.Cursor {
		return pagination.Cursor{At: t.ClosedAt, ID: t.ID}
	})
	return &ListResult{Tickets: page, NextCursor: next}, nil
}

// TicketNumber formats a ticket sequence value, e.g. 000042.
func TicketNumber(seq int64) string {
	return fmt.Sprintf("%06d", seq)
}
