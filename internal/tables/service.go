package tables

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db"
	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
)

// Service manages order contexts. Occupancy is driven by the order service:
// a context is occupied exactly while its order has lines.
type Service interface {
	WithTx(tx *gorm.DB) Service
	CreateTable(ctx context.Context, input CreateTableInput) (*models.OrderContext, error)
	CreateAccount(ctx context.Context, input CreateAccountInput) (*models.OrderContext, error)
	Get(ctx context.Context, id uuid.UUID) (*models.OrderContext, error)
	List(ctx context.Context) ([]models.OrderContext, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.TableStatus) (*models.OrderContext, error)
	Occupy(ctx context.Context, id uuid.UUID) error
	Release(ctx context.Context, id uuid.UUID) error
	Vacate(ctx context.Context, id uuid.UUID) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// CreateTableInput describes a new table. Position and capacity come from
// the room editor and are stored as given.
type CreateTableInput struct {
	Number   int    `json:"number" validate:"required,gte=1"`
	Name     string `json:"name" validate:"omitempty,max=64"`
	Capacity int    `json:"capacity" validate:"gte=0"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// CreateAccountInput describes a named account (a tab not tied to a table).
type CreateAccountInput struct {
	Name string `json:"name" validate:"required,max=64"`
}

type service struct {
	repo Repository
}

// NewService wires the order context service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) CreateTable(ctx context.Context, input CreateTableInput) (*models.OrderContext, error) {
	if input.Number < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table number must be at least 1")
	}
	if input.Capacity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must not be negative")
	}
	if _, err := s.repo.FindTableByNumber(ctx, input.Number); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "table number already in use").
			WithDetails(map[string]any{"number": input.Number})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup table")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = fmt.Sprintf("Table %d", input.Number)
	}
	number := input.Number
	oc := &models.OrderContext{
		Kind:     enums.ContextKindTable,
		Number:   &number,
		Name:     name,
		Capacity: input.Capacity,
		PosX:     input.X,
		PosY:     input.Y,
		Status:   enums.TableStatusAvailable,
	}
	if err := s.repo.Create(ctx, oc); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "table number already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create table")
	}
	return oc, nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.OrderContext, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account name is required")
	}
	if _, err := s.repo.FindAccountByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this name already exists").
			WithDetails(map[string]any{"name": name})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup account")
	}

	oc := &models.OrderContext{
		Kind:   enums.ContextKindNamedAccount,
		Name:   name,
		Status: enums.TableStatusAvailable,
	}
	if err := s.repo.Create(ctx, oc); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "an account with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return oc, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.OrderContext, error) {
	oc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order context not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order context")
	}
	return oc, nil
}

func (s *service) List(ctx context.Context) ([]models.OrderContext, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order contexts")
	}
	return out, nil
}

// SetStatus changes a table's floor status. Occupancy is not set by hand,
// and an occupied table keeps its status until its order is cleared.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.TableStatus) (*models.OrderContext, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid table status %q", status))
	}
	if status == enums.TableStatusOccupied {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tables become occupied by adding items to their order")
	}
	oc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if oc.Kind != enums.ContextKindTable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only tables have a floor status")
	}
	if oc.Status == enums.TableStatusOccupied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "table has an open order").
			WithDetails(map[string]any{"status": oc.Status})
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update table status")
	}
	oc.Status = status
	return oc, nil
}

// Occupy marks a context as holding an open order.
func (s *service) Occupy(ctx context.Context, id uuid.UUID) error {
	oc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if oc.Status == enums.TableStatusOccupied {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, id, enums.TableStatusOccupied); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy order context")
	}
	return nil
}

// Release frees a context whose order was cleared or settled: tables go back
// to available and named accounts are removed.
func (s *service) Release(ctx context.Context, id uuid.UUID) error {
	oc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if oc.Kind == enums.ContextKindNamedAccount {
		if err := s.repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove named account")
		}
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, id, enums.TableStatusAvailable); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release table")
	}
	return nil
}

// Vacate marks a context available again without removing it. It is used
// when an order is emptied before anything was committed.
func (s *service) Vacate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, id, enums.TableStatusAvailable); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order context not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "vacate order context")
	}
	return nil
}

// DeleteAccount removes an empty named account.
func (s *service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	oc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if oc.Kind != enums.ContextKindNamedAccount {
		return pkgerrors.New(pkgerrors.CodeValidation, "only named accounts can be deleted")
	}
	if oc.Status == enums.TableStatusOccupied {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "account has an open order")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete account")
	}
	return nil
}

// Label is the name printed on tickets for the context.
func Label(oc *models.OrderContext) string {
	if oc == nil {
		return ""
	}
	if oc.Kind == enums.ContextKindTable && oc.Number != nil && oc.Name == "" {
		return fmt.Sprintf("Table %d", *oc.Number)
	}
	return oc.Name
}
