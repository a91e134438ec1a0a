package orders

import (
	"net/http"

	"github.com/angelmondragon/kimipos-backend/api/responses"
	"github.com/angelmondragon/kimipos-backend/api/validators"
	internalorders "github.com/angelmondragon/kimipos-backend/internal/orders"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// RecordPayment takes a partial payment against the committed total.
func RecordPayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.PaymentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ContextID = id
		result, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListPayments returns the partial payments of an open order.
func ListPayments(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		payments, err := svc.Payments(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments)
	}
}

// Settle closes the order into a ticket, optionally paying what is left.
func Settle(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		var input internalorders.SettleInput
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &input); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		input.ContextID = id
		ticket, err := svc.Settle(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}
