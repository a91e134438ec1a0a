package orders

import (
	"net/http"

	"github.com/angelmondragon/kimipos-backend/api/responses"
	internalorders "github.com/angelmondragon/kimipos-backend/internal/orders"
	"github.com/angelmondragon/kimipos-backend/internal/printing"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// Commit sends the pending changes of an order to the kitchen printers.
// Printer failures do not fail the request; they come back as warnings.
func Commit(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		result, err := svc.Commit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type reprintResponse struct {
	printing.Report
	Errors map[string]string `json:"errors,omitempty"`
}

// Reprint prints the committed order again on every assigned printer.
func Reprint(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		id, ok := contextID(w, r, logg)
		if !ok {
			return
		}
		report, err := svc.Reprint(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := reprintResponse{Report: report}
		if len(report.Errors) > 0 {
			resp.Errors = make(map[string]string, len(report.Errors))
			for dest, dispatchErr := range report.Errors {
				resp.Errors[dest] = dispatchErr.Error()
			}
		}
		responses.WriteSuccess(w, resp)
	}
}
