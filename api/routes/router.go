package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/kimipos-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/kimipos-backend/api/controllers/orders"
	"github.com/angelmondragon/kimipos-backend/api/middleware"
	"github.com/angelmondragon/kimipos-backend/internal/orders"
	"github.com/angelmondragon/kimipos-backend/internal/tables"
	"github.com/angelmondragon/kimipos-backend/internal/tickets"
	"github.com/angelmondragon/kimipos-backend/pkg/config"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
	"github.com/angelmondragon/kimipos-backend/pkg/redis"
)

// redisClient is what the router needs from redis: readiness and
// idempotency records.
type redisClient interface {
	controllers.Pinger
	redis.IdempotencyStore
}

// RouterParams groups the dependencies served over HTTP. Printers is nil
// unless thermal printing goes through the print service.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    redisClient
	Registry prometheus.Gatherer
	Tables   tables.Service
	Orders   orders.Service
	Tickets  tickets.Service
	Printers controllers.PrinterManager
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var redisPinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	if p.Redis != nil {
		redisPinger = p.Redis
		idempotencyStore = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})

	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency, logg))

		r.Get("/contexts", controllers.ContextList(p.Tables, logg))
		r.Post("/tables", controllers.TableCreate(p.Tables, logg))
		r.Put("/tables/{contextId}/status", controllers.TableStatus(p.Orders, logg))
		r.Post("/accounts", controllers.AccountCreate(p.Tables, logg))

		r.Route("/contexts/{contextId}", func(r chi.Router) {
			r.Get("/order", ordercontrollers.Detail(p.Orders, logg))
			r.Post("/lines", ordercontrollers.AddLine(p.Orders, logg))
			r.Post("/lines/differential", ordercontrollers.AddDifferential(p.Orders, logg))
			r.Patch("/lines/{lineIndex}", ordercontrollers.UpdateLine(p.Orders, logg))
			r.Delete("/lines/{lineIndex}", ordercontrollers.RemoveLine(p.Orders, logg))
			r.Post("/commit", ordercontrollers.Commit(p.Orders, logg))
			r.Post("/reprint", ordercontrollers.Reprint(p.Orders, logg))
			r.Post("/payments", ordercontrollers.RecordPayment(p.Orders, logg))
			r.Get("/payments", ordercontrollers.ListPayments(p.Orders, logg))
			r.Post("/settle", ordercontrollers.Settle(p.Orders, logg))
			r.Post("/clear", ordercontrollers.Clear(p.Orders, logg))
			r.Post("/merge", ordercontrollers.Merge(p.Orders, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", controllers.TicketList(p.Tickets, logg))
			r.Get("/{ticketNumber}", controllers.TicketDetail(p.Tickets, logg))
		})

		r.Route("/printers/escpos", func(r chi.Router) {
			r.Get("/", controllers.PrinterDiscover(p.Printers, logg))
			r.Post("/{printerId}/connect", controllers.PrinterConnect(p.Printers, logg))
			r.Post("/{printerId}/disconnect", controllers.PrinterDisconnect(p.Printers, logg))
		})
	})

	return r
}
