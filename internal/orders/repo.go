package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/repo"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	"github.com/ooprato/ooprato-backend/pkg/pagination"
)

type repository struct {
	base repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Version == 0 {
		order.Version = 1
	}
	return r.base.DB(ctx).Create(order).Error
}

func (r *repository) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var current int64
	err := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return r.find(r.base.DB(ctx), tenantID, orderID)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return r.find(r.base.ForUpdate(ctx), tenantID, orderID)
}

func (r *repository) find(query *gorm.DB, tenantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := query.Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

type listOrdersParams struct {
	TenantID uuid.UUID
	Status   *enums.OrderStatus
	Limit    int
	Cursor   *pagination.Cursor
}

func (r *repository) List(ctx context.Context, params listOrdersParams) ([]models.Order, error) {
	query := r.base.DB(ctx).Where("tenant_id = ?", params.TenantID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.Order
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateWithVersion(ctx context.Context, tenantID, orderID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["version"] = expectedVersion + 1
	values["updated_at"] = time.Now().UTC()

	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND tenant_id = ? AND version = ?", orderID, tenantID, expectedVersion).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AssignCourier(ctx context.Context, tenantID, orderID, courierID uuid.UUID, at time.Time) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND tenant_id = ? AND courier_id IS NULL AND mode = ?", orderID, tenantID, enums.FulfillmentDelivery).
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusReady, enums.OrderStatusWaitingCourier}).
		Updates(map[string]any{
			"courier_id":          courierID,
			"courier_assigned_at": at,
			"status":              enums.OrderStatusWaitingCourier,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkPointsEarned(ctx context.Context, orderID uuid.UUID, points int) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND loyalty_points_earned IS NULL", orderID).
		Update("loyalty_points_earned", points)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListStale(ctx context.Context, status enums.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.base.DB(ctx).
		Where("status = ? AND created_at < ?", status, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
