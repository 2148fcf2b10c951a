// Package dbtest opens throwaway sqlite databases with the service schema.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/pkg/db"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// New returns a client backed by a fresh sqlite file under t.TempDir().
func New(t *testing.T) *db.Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ooprato.db")
	client, err := db.NewSQLite(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Fixture seeds the rows most order tests need.
type Fixture struct {
	Tenant   models.Tenant
	Customer models.Customer
	Courier  models.User
}

// Seed inserts a tenant, a customer with the given balance and one courier.
func Seed(t *testing.T, conn *gorm.DB, balance int) Fixture {
	t.Helper()
	instance := "ooprato-main"
	tenant := models.Tenant{ID: uuid.New(), Name: "Cantina", WhatsAppInstance: &instance}
	require.NoError(t, conn.Create(&tenant).Error)

	phone := "5511999990000"
	customer := models.Customer{
		ID:             uuid.New(),
		TenantID:       tenant.ID,
		Name:           "Ana",
		Phone:          &phone,
		PointsBalance:  balance,
		LifetimePoints: balance,
		Tier:           enums.LoyaltyTierBronze,
	}
	require.NoError(t, conn.Create(&customer).Error)
	if balance > 0 {
		require.NoError(t, conn.Create(&models.LoyaltyPointsHistory{
			ID:         uuid.New(),
			TenantID:   tenant.ID,
			CustomerID: customer.ID,
			Points:     balance,
			Type:       enums.LoyaltyEntryEarn,
			Reason:     "opening balance",
		}).Error)
	}

	courier := AddCourier(t, conn, tenant.ID, "Caio")
	return Fixture{Tenant: tenant, Customer: customer, Courier: courier}
}

// AddCourier inserts a courier user for the tenant.
func AddCourier(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, name string) models.User {
	t.Helper()
	courier := models.User{ID: uuid.New(), TenantID: tenantID, Name: name, Role: enums.UserRoleCourier, IsActive: true}
	require.NoError(t, conn.Create(&courier).Error)
	return courier
}

// OrderOption mutates a seeded order before insert.
type OrderOption func(*models.Order)

// InsertOrder writes an order directly, bypassing placement rules.
func InsertOrder(t *testing.T, conn *gorm.DB, fx Fixture, opts ...OrderOption) models.Order {
	t.Helper()
	var maxNumber int64
	require.NoError(t, conn.Model(&models.Order{}).
		Where("tenant_id = ?", fx.Tenant.ID).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&maxNumber).Error)

	customerID := fx.Customer.ID
	order := models.Order{
		ID:            uuid.New(),
		TenantID:      fx.Tenant.ID,
		OrderNumber:   maxNumber + 1,
		CustomerID:    &customerID,
		CustomerName:  fx.Customer.Name,
		CustomerPhone: fx.Customer.Phone,
		Status:        enums.OrderStatusNew,
		Mode:          enums.FulfillmentDelivery,
		Total:         decimal.RequireFromString("42.50"),
		DeliveryFee:   decimal.RequireFromString("7.00"),
		PaymentStatus: enums.PaymentStatusUnpaid,
		PaymentMethod: enums.PaymentMethodCash,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&order)
	}
	require.NoError(t, conn.Create(&order).Error)
	return order
}

// WithStatus sets the initial status.
func WithStatus(status enums.OrderStatus) OrderOption {
	return func(o *models.Order) { o.Status = status }
}

// WithMode sets the fulfillment mode.
func WithMode(mode enums.FulfillmentMode) OrderOption {
	return func(o *models.Order) { o.Mode = mode }
}

// WithPayment sets the payment status.
func WithPayment(status enums.PaymentStatus) OrderOption {
	return func(o *models.Order) { o.PaymentStatus = status }
}

// WithPointsUsed records points redeemed at checkout.
func WithPointsUsed(points int) OrderOption {
	return func(o *models.Order) { o.LoyaltyPointsUsed = points }
}

// WithPointsEarned marks the order as having gone through the earn step.
func WithPointsEarned(points int) OrderOption {
	return func(o *models.Order) {
		p := points
		o.LoyaltyPointsEarned = &p
	}
}

// WithCourier attaches a courier.
func WithCourier(courierID uuid.UUID) OrderOption {
	return func(o *models.Order) {
		id := courierID
		now := time.Now().UTC()
		o.CourierID = &id
		o.CourierAssignedAt = &now
	}
}
