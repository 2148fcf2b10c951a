package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ooprato/ooprato-backend/api/controllers"
	ordercontrollers "github.com/ooprato/ooprato-backend/api/controllers/orders"
	"github.com/ooprato/ooprato-backend/api/middleware"
	"github.com/ooprato/ooprato-backend/internal/notifications"
	"github.com/ooprato/ooprato-backend/pkg/config"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	ordersSvc ordercontrollers.Service,
	courierSvc controllers.CourierService,
	loyaltyReader controllers.LoyaltyReader,
	loyaltyAdjuster controllers.LoyaltyAdjuster,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Get("/healthz", controllers.Healthz(cfg, logg, map[string]controllers.Pinger{
		"db":    dbP,
		"redis": redisP,
	}))
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Place(ordersSvc, logg))
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.Post("/{orderId}/transitions", ordercontrollers.Transition(ordersSvc, logg))
			r.Post("/{orderId}/courier", ordercontrollers.AssignCourier(ordersSvc, logg))
			r.Post("/{orderId}/courier/reject", ordercontrollers.RejectCourier(ordersSvc, logg))
		})

		r.Route("/couriers", func(r chi.Router) {
			r.Get("/available-orders", controllers.AvailableOrders(courierSvc, logg))
			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Get("/availability", controllers.CourierAvailability(courierSvc, logg))
				r.Put("/availability", controllers.SetCourierAvailability(courierSvc, logg))
				r.Get("/orders", controllers.AssignedOrders(courierSvc, logg))
			})
		})

		r.Route("/customers/{customerId}/loyalty", func(r chi.Router) {
			r.Get("/", controllers.LoyaltyBalance(loyaltyReader, logg))
			r.Get("/history", controllers.LoyaltyHistory(loyaltyReader, logg))
			r.Post("/adjustments", controllers.AdjustLoyalty(loyaltyAdjuster, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
