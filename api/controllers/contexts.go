package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/kimipos-backend/api/responses"
	"github.com/angelmondragon/kimipos-backend/api/validators"
	"github.com/angelmondragon/kimipos-backend/internal/orders"
	"github.com/angelmondragon/kimipos-backend/internal/tables"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// ContextList returns every table and named account on the floor.
func ContextList(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}
		contexts, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contexts)
	}
}

// TableCreate adds a table to the floor plan.
func TableCreate(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}
		var input tables.CreateTableInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		table, err := svc.CreateTable(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, table)
	}
}

// AccountCreate opens a named account.
func AccountCreate(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tables service unavailable"))
			return
		}
		var input tables.CreateAccountInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		account, err := svc.CreateAccount(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

type tableStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TableStatus changes the floor status of an idle table.
func TableStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		contextID, err := validators.ParseUUIDParam(r, "contextId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tableStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseTableStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		table, err := svc.ChangeTableStatus(r.Context(), contextID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}
