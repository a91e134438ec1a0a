package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/kimipos-backend/api/responses"
	"github.com/angelmondragon/kimipos-backend/api/validators"
	internalorders "github.com/angelmondragon/kimipos-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

func unavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
}

// contextID reads the contextId route parameter and writes the error
// response itself when it is missing or malformed.
func contextID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	id, err := validators.ParseUUIDParam(r, "contextId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return id, true
}

// Detail returns the working order of a context.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		view, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddLine adds a catalog product to the working order.
func AddLine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.AddLineInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ContextID = id
		view, err := svc.AddLine(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// AddDifferential adds an adjustment line that never prints.
func AddDifferential(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.AddDifferentialInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ContextID = id
		view, err := svc.AddDifferential(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// UpdateLine changes quantity, price or modifiers of one line.
func UpdateLine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		index, err := validators.ParseIndexParam(r, "lineIndex")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input internalorders.UpdateLineInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ContextID = id
		input.Index = index
		view, err := svc.UpdateLine(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// RemoveLine drops one line from the working order.
func RemoveLine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		index, err := validators.ParseIndexParam(r, "lineIndex")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RemoveLine(r.Context(), id, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Clear discards the order and frees the context.
func Clear(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"context_id": id, "cleared": true})
	}
}

// Merge moves another context's order onto this one.
func Merge(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.MergeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.MasterID = id
		view, err := svc.Merge(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
