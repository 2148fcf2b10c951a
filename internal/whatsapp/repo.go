package whatsapp

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

// Repository reads the tenant, template and customer rows a message needs
// and keeps the message log.
type Repository struct {
	base repo.Base
}

// NewRepository binds the WhatsApp repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) FindTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.base.DB(ctx).Where("id = ?", tenantID).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// FindActiveTemplate prefers the tenant's own template over the global one.
// It returns nil when neither exists.
func (r *Repository) FindActiveTemplate(ctx context.Context, tenantID uuid.UUID, key string) (*models.MessageTemplate, error) {
	var tpl models.MessageTemplate
	err := r.base.DB(ctx).
		Where(map[string]any{"key": key, "is_active": true}).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantID).
		Order("tenant_id IS NULL ASC, updated_at DESC").
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *Repository) FindCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.base.DB(ctx).Where("id = ? AND tenant_id = ?", customerID, tenantID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) FindDefaultAddress(ctx context.Context, tenantID, customerID uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.base.DB(ctx).
		Where("tenant_id = ? AND customer_id = ? AND is_default = ?", tenantID, customerID, true).
		First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) CreateLog(ctx context.Context, row *models.WhatsAppMessageLog) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base.DB(ctx).Create(row).Error
}

// FinishLog moves a pending log row to its final status.
func (r *Repository) FinishLog(ctx context.Context, id uuid.UUID, status enums.MessageStatus, errMessage *string) error {
	return r.base.DB(ctx).
		Model(&models.WhatsAppMessageLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"error_message": errMessage,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *Repository) ListLogsForOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]models.WhatsAppMessageLog, error) {
	var rows []models.WhatsAppMessageLog
	err := r.base.DB(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
