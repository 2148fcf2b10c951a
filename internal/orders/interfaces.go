package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/audit"
	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/internal/notifications"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	"github.com/ooprato/ooprato-backend/pkg/outbox"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params listOrdersParams) ([]models.Order, error)
	// UpdateWithVersion applies updates only while the row still carries
	// expectedVersion and bumps the version. It reports whether a row changed.
	UpdateWithVersion(ctx context.Context, tenantID, orderID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	// AssignCourier sets the courier only while none is attached.
	AssignCourier(ctx context.Context, tenantID, orderID, courierID uuid.UUID, at time.Time) (bool, error)
	// MarkPointsEarned records earned points only while none are recorded.
	MarkPointsEarned(ctx context.Context, orderID uuid.UUID, points int) (bool, error)
	// ListStale returns orders of every tenant created before cutoff that
	// are still in status.
	ListStale(ctx context.Context, status enums.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

type loyaltyLedger interface {
	Award(ctx context.Context, tx *gorm.DB, entry loyalty.Entry) (*loyalty.Balance, error)
	Redeem(ctx context.Context, tx *gorm.DB, entry loyalty.Entry) (*loyalty.Balance, error)
	Revert(ctx context.Context, tx *gorm.DB, entry loyalty.Entry) (*loyalty.Balance, error)
	HasEntryForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, entryType enums.LoyaltyEntryType) (bool, error)
	PointsForOrder(ctx context.Context, tx *gorm.DB, tenantID, customerID uuid.UUID, total decimal.Decimal) (int, error)
	PayReferral(ctx context.Context, tx *gorm.DB, in loyalty.ReferralInput) (bool, error)
}

type courierTracker interface {
	EnsureCourier(ctx context.Context, tx *gorm.DB, tenantID, courierID uuid.UUID) error
	MarkOnDelivery(ctx context.Context, tx *gorm.DB, tenantID, courierID uuid.UUID) error
	ReleaseIfIdle(ctx context.Context, tx *gorm.DB, tenantID, courierID, excludeOrderID uuid.UUID) (bool, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) bool
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, event notifications.Event) notifications.Report
}

type transitionMetrics interface {
	ObserveTransition(from, to, result string, elapsed time.Duration)
	IncSideEffectFailure(effect string)
}
