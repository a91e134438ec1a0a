package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/kimipos-backend/api/responses"
	"github.com/angelmondragon/kimipos-backend/internal/printing"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// PrinterManager controls the thermal printers behind the print service.
type PrinterManager interface {
	Discover(ctx context.Context) ([]printing.ESCPOSPrinter, error)
	Connect(ctx context.Context, printerID string) error
	Disconnect(ctx context.Context, printerID string) error
}

func printersUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeDependency, "thermal printing is not configured")
}

// PrinterDiscover lists the thermal printers the print service can reach.
func PrinterDiscover(mgr PrinterManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, printersUnavailable())
			return
		}
		printers, err := mgr.Discover(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, printers)
	}
}

// PrinterConnect opens a thermal printer.
func PrinterConnect(mgr PrinterManager, logg *logger.Logger) http.HandlerFunc {
	return printerLifecycle(mgr, logg, func(m PrinterManager) func(context.Context, string) error {
		return m.Connect
	}, true)
}

// PrinterDisconnect closes a thermal printer.
func PrinterDisconnect(mgr PrinterManager, logg *logger.Logger) http.HandlerFunc {
	return printerLifecycle(mgr, logg, func(m PrinterManager) func(context.Context, string) error {
		return m.Disconnect
	}, false)
}

func printerLifecycle(mgr PrinterManager, logg *logger.Logger, action func(PrinterManager) func(context.Context, string) error, connected bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, printersUnavailable())
			return
		}
		printerID := chi.URLParam(r, "printerId")
		if err := action(mgr)(r.Context(), printerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"printer_id": printerID, "connected": connected})
	}
}
