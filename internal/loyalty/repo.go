package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/repo"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Repository persists ledger rows and the cached customer balance.
type Repository struct {
	base repo.Base
}

// NewRepository binds the loyalty repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.WithTx(tx)}
}

// FindCustomerForUpdate loads the customer and locks the row on Postgres.
func (r *Repository) FindCustomerForUpdate(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.base.ForUpdate(ctx).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) FindCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.base.DB(ctx).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) InsertEntry(ctx context.Context, row *models.LoyaltyPointsHistory) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base.DB(ctx).Create(row).Error
}

func (r *Repository) UpdateCustomerBalance(ctx context.Context, customerID uuid.UUID, balance, lifetime int, tier enums.LoyaltyTier) error {
	return r.base.DB(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{
			"points_balance":  balance,
			"lifetime_points": lifetime,
			"tier":            tier,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *Repository) HasEntryForOrder(ctx context.Context, orderID uuid.UUID, entryType enums.LoyaltyEntryType) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.LoyaltyPointsHistory{}).
		Where("order_id = ? AND type = ?", orderID, entryType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountCompletedOrders counts the customer's orders that already went through
// the earn step, zero-point orders included, ignoring excludeOrderID.
func (r *Repository) CountCompletedOrders(ctx context.Context, customerID, excludeOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("customer_id = ? AND loyalty_points_earned IS NOT NULL AND id <> ?", customerID, excludeOrderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SumEntries is the ledger total the cached balance must equal.
func (r *Repository) SumEntries(ctx context.Context, customerID uuid.UUID) (int, error) {
	var total int64
	err := r.base.DB(ctx).
		Model(&models.LoyaltyPointsHistory{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *Repository) ListEntries(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]models.LoyaltyPointsHistory, error) {
	var rows []models.LoyaltyPointsHistory
	err := r.base.DB(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindPendingReferral returns nil when the customer was not referred or the
// referral is already settled.
func (r *Repository) FindPendingReferral(ctx context.Context, tenantID, referredCustomerID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := r.base.DB(ctx).
		Where("tenant_id = ? AND referred_customer_id = ? AND status = ?", tenantID, referredCustomerID, enums.ReferralStatusPending).
		Order("created_at ASC").
		First(&referral).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &referral, nil
}

// SettleReferral moves a pending referral to status. It reports false when
// another caller settled it first.
func (r *Repository) SettleReferral(ctx context.Context, referralID uuid.UUID, status enums.ReferralStatus, orderID *uuid.UUID, now time.Time) (bool, error) {
	updates := map[string]any{"status": status}
	if status == enums.ReferralStatusCompleted {
		updates["completed_at"] = now
		updates["order_id"] = orderID
	}
	result := r.base.DB(ctx).
		Model(&models.Referral{}).
		Where("id = ? AND status = ?", referralID, enums.ReferralStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
