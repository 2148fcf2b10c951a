package couriers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ooprato/ooprato-backend/internal/repo"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Repository reads couriers and their availability rows.
type Repository struct {
	base repo.Base
}

// NewRepository binds the courier repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.WithTx(tx)}
}

// FindCourier returns the active courier user of the tenant.
func (r *Repository) FindCourier(ctx context.Context, tenantID, courierID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.base.DB(ctx).
		Where("id = ? AND tenant_id = ? AND role = ? AND is_active = ?", courierID, tenantID, enums.UserRoleCourier, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAvailability returns nil when the courier never reported a status.
func (r *Repository) FindAvailability(ctx context.Context, courierID uuid.UUID) (*models.CourierAvailability, error) {
	var row models.CourierAvailability
	err := r.base.DB(ctx).Where("courier_id = ?", courierID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertAvailability creates the courier's row or overwrites its status.
func (r *Repository) UpsertAvailability(ctx context.Context, row *models.CourierAvailability) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "courier_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "is_online", "last_activity_at", "updated_at"}),
		}).
		Create(row).Error
}

// ListAvailableOrders returns delivery orders nobody has taken yet, including
// those a courier rejected.
func (r *Repository) ListAvailableOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.base.DB(ctx).
		Where("tenant_id = ? AND mode = ? AND courier_id IS NULL", tenantID, enums.FulfillmentDelivery).
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusReady, enums.OrderStatusWaitingCourier}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) ListAssignedOrders(ctx context.Context, tenantID, courierID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.base.DB(ctx).
		Where("tenant_id = ? AND courier_id = ? AND status IN ?", tenantID, courierID, enums.CourierActiveStatuses()).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountActiveAssignments counts orders still holding the courier, ignoring
// excludeOrderID.
func (r *Repository) CountActiveAssignments(ctx context.Context, courierID, excludeOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("courier_id = ? AND id <> ? AND status IN ?", courierID, excludeOrderID, enums.CourierActiveStatuses()).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
