// Package app assembles the order lifecycle service graph shared by the API
// server and the housekeeping worker.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ooprato/ooprato-backend/internal/audit"
	"github.com/ooprato/ooprato-backend/internal/couriers"
	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/internal/notifications"
	"github.com/ooprato/ooprato-backend/internal/orders"
	"github.com/ooprato/ooprato-backend/internal/whatsapp"
	"github.com/ooprato/ooprato-backend/pkg/config"
	"github.com/ooprato/ooprato-backend/pkg/db"
	"github.com/ooprato/ooprato-backend/pkg/evolution"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/metrics"
	"github.com/ooprato/ooprato-backend/pkg/outbox"
	"github.com/ooprato/ooprato-backend/pkg/outbox/idempotency"
	"github.com/ooprato/ooprato-backend/pkg/redis"
)

// Services is the wired graph. Every field is non-nil.
type Services struct {
	Orders        *orders.Service
	OrderRepo     orders.Repository
	Couriers      *couriers.Tracker
	Ledger        *loyalty.Ledger
	Desk          *loyalty.Desk
	Notifications notifications.Service
	NotifyRepo    notifications.Repository
}

// Build wires the services on top of an open database and idempotency store.
// Order metrics are registered on reg.
func Build(cfg *config.Config, dbClient *db.Client, store redis.IdempotencyStore, reg prometheus.Registerer, logg *logger.Logger) (*Services, error) {
	if cfg == nil || dbClient == nil || store == nil || logg == nil {
		return nil, fmt.Errorf("config, database, idempotency store and logger are required")
	}
	orderMetrics := metrics.NewOrderMetrics(reg)
	conn := dbClient.DB()

	trail, err := audit.NewTrail(audit.NewRepository(conn), logg, orderMetrics)
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}

	rules, err := loyalty.RulesFromConfig(cfg.Loyalty)
	if err != nil {
		return nil, fmt.Errorf("loyalty rules: %w", err)
	}
	ledger, err := loyalty.NewLedger(dbClient, loyalty.NewRepository(conn), rules, logg)
	if err != nil {
		return nil, fmt.Errorf("loyalty ledger: %w", err)
	}
	desk, err := loyalty.NewDesk(ledger, trail, logg)
	if err != nil {
		return nil, fmt.Errorf("loyalty desk: %w", err)
	}

	tracker, err := couriers.NewTracker(dbClient, couriers.NewRepository(conn), trail, logg)
	if err != nil {
		return nil, fmt.Errorf("courier tracker: %w", err)
	}

	var sender whatsapp.Sender
	if cfg.WhatsApp.Enabled() {
		evo, err := evolution.NewClient(cfg.WhatsApp.BaseURL, cfg.WhatsApp.APIKey, evolution.WithTimeout(cfg.WhatsApp.SendTimeout))
		if err != nil {
			return nil, fmt.Errorf("evolution client: %w", err)
		}
		sender = evo
	}
	notifier, err := whatsapp.NewNotifier(whatsapp.NewRepository(conn), sender, logg)
	if err != nil {
		return nil, fmt.Errorf("whatsapp notifier: %w", err)
	}

	notificationRepo := notifications.NewRepository(conn)
	notificationsService, err := notifications.NewService(notificationRepo)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}
	dedupe, err := idempotency.NewManager(store, cfg.Eventing.NotificationIdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("notification dedupe: %w", err)
	}
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		InApp:    notificationRepo,
		WhatsApp: notifier,
		Dedupe:   dedupe,
		Metrics:  orderMetrics,
		Timeout:  cfg.Notifications.ChannelTimeout,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: %w", err)
	}

	estimator, err := orders.EstimatorFromConfig(cfg.Delivery)
	if err != nil {
		return nil, fmt.Errorf("delivery config: %w", err)
	}
	orderRepo := orders.NewRepository(conn)
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		Tx:        dbClient,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Ledger:    ledger,
		Couriers:  tracker,
		Audit:     trail,
		Notifier:  dispatcher,
		Metrics:   orderMetrics,
		Estimator: estimator,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	return &Services{
		Orders:        ordersService,
		OrderRepo:     orderRepo,
		Couriers:      tracker,
		Ledger:        ledger,
		Desk:          desk,
		Notifications: notificationsService,
		NotifyRepo:    notificationRepo,
	}, nil
}
