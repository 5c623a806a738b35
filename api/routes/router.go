package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/laundrydesk-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/laundrydesk-backend/api/controllers/orders"
	"github.com/angelmondragon/laundrydesk-backend/api/middleware"
	"github.com/angelmondragon/laundrydesk-backend/internal/cash"
	"github.com/angelmondragon/laundrydesk-backend/internal/catalog"
	"github.com/angelmondragon/laundrydesk-backend/internal/customers"
	"github.com/angelmondragon/laundrydesk-backend/internal/inventory"
	"github.com/angelmondragon/laundrydesk-backend/internal/notifications"
	"github.com/angelmondragon/laundrydesk-backend/internal/orders"
	"github.com/angelmondragon/laundrydesk-backend/pkg/config"
	"github.com/angelmondragon/laundrydesk-backend/pkg/db"
	"github.com/angelmondragon/laundrydesk-backend/pkg/enums"
	"github.com/angelmondragon/laundrydesk-backend/pkg/logger"
	"github.com/angelmondragon/laundrydesk-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/laundrydesk-backend/pkg/redis"
)

// RedisStore is the redis surface used by readiness, idempotency and rate limiting.
type RedisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
}

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         RedisStore
	Gatherer      prometheus.Gatherer
	Customers     customers.Service
	Catalog       catalog.Service
	Inventory     inventory.Service
	Cash          cash.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": p.DB,
			"redis":    p.Redis,
		}))
	})

	r.Handle("/metrics", metrics.Handler(p.Gatherer))

	cashiers := middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleCashier)
	operators := middleware.RequireRole(logg, enums.StaffRoleAdmin, enums.StaffRoleOperator)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, p.Redis, logg))
		r.Use(middleware.Idempotency(p.Redis, cfg.Idempotency.TTL, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(p.Customers, logg))
			r.Get("/", controllers.CustomerList(p.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(p.Customers, logg))
			r.Patch("/{customerId}", controllers.CustomerUpdate(p.Customers, logg))
			r.Post("/{customerId}/deactivate", controllers.CustomerDeactivate(p.Customers, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CategoryList(p.Catalog, logg))
			r.Get("/services", controllers.ServiceList(p.Catalog, logg))
			r.Get("/services/{serviceId}", controllers.ServiceDetail(p.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(operators)
				r.Post("/categories", controllers.CategoryCreate(p.Catalog, logg))
				r.Post("/services", controllers.ServiceCreate(p.Catalog, logg))
				r.Patch("/services/{serviceId}", controllers.ServiceUpdate(p.Catalog, logg))
				r.Post("/services/{serviceId}/deactivate", controllers.ServiceDeactivate(p.Catalog, logg))
				r.Put("/services/{serviceId}/components", controllers.ServiceSetComponents(p.Catalog, logg))
				r.Put("/services/{serviceId}/pricing/{customerType}", controllers.ServiceSetPrice(p.Catalog, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/units", controllers.UnitList(p.Inventory, logg))
			r.Get("/items", controllers.ItemList(p.Inventory, logg))
			r.Get("/items/low-stock", controllers.ItemLowStock(p.Inventory, logg))
			r.Get("/items/{itemId}", controllers.ItemDetail(p.Inventory, logg))
			r.Get("/movements", controllers.InventoryMovementList(p.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(operators)
				r.Post("/units", controllers.UnitCreate(p.Inventory, logg))
				r.Post("/items", controllers.ItemCreate(p.Inventory, logg))
				r.Patch("/items/{itemId}", controllers.ItemUpdate(p.Inventory, logg))
				r.Post("/items/{itemId}/deactivate", controllers.ItemDeactivate(p.Inventory, logg))
				r.Post("/items/{itemId}/entries", controllers.ItemEntry(p.Inventory, logg))
				r.Post("/items/{itemId}/adjustments", controllers.ItemAdjust(p.Inventory, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(p.Orders, logg))
			r.Get("/", ordercontrollers.List(p.Orders, logg))
			r.Get("/pending", ordercontrollers.Pending(p.Orders, logg))
			r.Get("/ready", ordercontrollers.Ready(p.Orders, logg))
			r.Get("/workflow", ordercontrollers.Workflow(p.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(p.Orders, logg))
				r.Patch("/", ordercontrollers.Update(p.Orders, logg))
				r.Post("/lines", ordercontrollers.AddLine(p.Orders, logg))
				r.Patch("/lines/{lineId}", ordercontrollers.UpdateLine(p.Orders, logg))
				r.Delete("/lines/{lineId}", ordercontrollers.RemoveLine(p.Orders, logg))
				r.Post("/status", ordercontrollers.ChangeStatus(p.Orders, logg))
				r.Post("/advance", ordercontrollers.Advance(p.Orders, logg))
				r.Post("/cancel", ordercontrollers.Cancel(p.Orders, logg))
				r.Get("/tracking", ordercontrollers.Tracking(p.Orders, logg))
			})
		})

		r.Route("/cash", func(r chi.Router) {
			r.Get("/registers", controllers.RegisterList(p.Cash, logg))
			r.Get("/registers/current", controllers.RegisterCurrent(p.Cash, logg))
			r.Get("/registers/{registerId}", controllers.RegisterDetail(p.Cash, logg))
			r.Get("/movements", controllers.CashMovementList(p.Cash, logg))

			r.Group(func(r chi.Router) {
				r.Use(cashiers)
				r.Post("/registers", controllers.RegisterOpen(p.Cash, logg))
				r.Post("/registers/{registerId}/close", controllers.RegisterClose(p.Cash, logg))
				r.Post("/movements", controllers.CashMovementCreate(p.Cash, logg))
			})
		})

		if p.Notifications != nil {
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationList(p.Notifications, logg))
				r.Get("/unread-count", controllers.NotificationUnreadCount(p.Notifications, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(p.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.NotificationMarkRead(p.Notifications, logg))
			})
		}
	})

	return r
}
