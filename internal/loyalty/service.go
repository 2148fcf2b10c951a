package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const (
	defaultHistoryLimit = 50
	referralReason      = "referral reward"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Entry is one ledger movement. Points is unsigned for Award and Redeem and
// signed for Revert.
type Entry struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Points     int
	Reason     string
	OrderID    *uuid.UUID
}

// Balance is the customer's cached loyalty state after a movement.
type Balance struct {
	CustomerID     uuid.UUID         `json:"customer_id"`
	Points         int               `json:"points"`
	LifetimePoints int               `json:"lifetime_points"`
	Tier           enums.LoyaltyTier `json:"tier"`
	Applied        int               `json:"applied"`
}

// ReferralInput identifies the completed order that may pay a referral.
type ReferralInput struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	OrderID    uuid.UUID
	OrderTotal decimal.Decimal
}

// Ledger is the append-only points ledger. Every movement inserts a history
// row and rewrites the cached balance in the same transaction.
type Ledger struct {
	tx    txRunner
	repo  *Repository
	rules Rules
	logg  *logger.Logger
	now   func() time.Time
}

// NewLedger wires the loyalty ledger.
func NewLedger(tx txRunner, repo *Repository, rules Rules, logg *logger.Logger) (*Ledger, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Ledger{
		tx:    tx,
		repo:  repo,
		rules: rules,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Award credits non-negative points and counts them toward the tier.
func (l *Ledger) Award(ctx context.Context, tx *gorm.DB, entry Entry) (*Balance, error) {
	if entry.Points < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "award points must be non-negative")
	}
	return l.apply(ctx, tx, entry, enums.LoyaltyEntryEarn, func(c *models.Customer) (int, error) {
		return entry.Points, nil
	})
}

// Redeem debits points spent at checkout. The balance must cover them.
func (l *Ledger) Redeem(ctx context.Context, tx *gorm.DB, entry Entry) (*Balance, error) {
	if entry.Points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redeem points must be positive")
	}
	return l.apply(ctx, tx, entry, enums.LoyaltyEntryRedeem, func(c *models.Customer) (int, error) {
		if c.PointsBalance < entry.Points {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "insufficient loyalty balance").
				WithDetails(map[string]any{"balance": c.PointsBalance, "requested": entry.Points})
		}
		return -entry.Points, nil
	})
}

// Revert undoes a prior movement. A positive delta restores redeemed points;
// a negative delta claws back earned points and stops at zero.
func (l *Ledger) Revert(ctx context.Context, tx *gorm.DB, entry Entry) (*Balance, error) {
	if entry.Points == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "revert points must be non-zero")
	}
	return l.apply(ctx, tx, entry, enums.LoyaltyEntryRevert, func(c *models.Customer) (int, error) {
		if entry.Points < 0 && -entry.Points > c.PointsBalance {
			return -c.PointsBalance, nil
		}
		return entry.Points, nil
	})
}

// HasEntryForOrder lets callers guard award/revert to once per order.
func (l *Ledger) HasEntryForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, entryType enums.LoyaltyEntryType) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !entryType.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid loyalty entry type %q", entryType))
	}
	found, err := l.repo.WithTx(tx).HasEntryForOrder(ctx, orderID, entryType)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check loyalty entry")
	}
	return found, nil
}

// PointsForOrder computes what the customer earns on total at their current tier.
func (l *Ledger) PointsForOrder(ctx context.Context, tx *gorm.DB, tenantID, customerID uuid.UUID, total decimal.Decimal) (int, error) {
	customer, err := l.repo.WithTx(tx).FindCustomer(ctx, tenantID, customerID)
	if err != nil {
		return 0, customerLookupError(err)
	}
	return l.rules.PointsFor(total, customer.Tier), nil
}

// PayReferral credits the referrer once when the referred customer completes
// a first qualifying order. It reports whether a payout happened.
func (l *Ledger) PayReferral(ctx context.Context, tx *gorm.DB, in ReferralInput) (bool, error) {
	if in.OrderTotal.LessThan(l.rules.ReferralMinOrder) || l.rules.ReferralReward <= 0 {
		return false, nil
	}

	paid := false
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		previous, err := repo.CountCompletedOrders(ctx, in.CustomerID, in.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed orders")
		}
		if previous > 0 {
			return nil
		}

		referral, err := repo.FindPendingReferral(ctx, in.TenantID, in.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral")
		}
		if referral == nil {
			return nil
		}

		now := l.now()
		if referral.ExpiresAt != nil && now.After(*referral.ExpiresAt) {
			if _, err := repo.SettleReferral(ctx, referral.ID, enums.ReferralStatusExpired, nil, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire referral")
			}
			return nil
		}

		orderID := in.OrderID
		settled, err := repo.SettleReferral(ctx, referral.ID, enums.ReferralStatusCompleted, &orderID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete referral")
		}
		if !settled {
			return nil
		}

		if _, err := l.Award(ctx, tx, Entry{
			TenantID:   in.TenantID,
			CustomerID: referral.ReferrerCustomerID,
			Points:     l.rules.ReferralReward,
			Reason:     referralReason,
		}); err != nil {
			return err
		}
		paid = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if paid {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"order_id":    in.OrderID.String(),
			"customer_id": in.CustomerID.String(),
			"points":      l.rules.ReferralReward,
		})
		l.logg.Info(logCtx, "referral reward paid")
	}
	return paid, nil
}

// Balance returns the cached balance.
func (l *Ledger) Balance(ctx context.Context, tenantID, customerID uuid.UUID) (*Balance, error) {
	customer, err := l.repo.FindCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, customerLookupError(err)
	}
	return balanceOf(customer, 0), nil
}

// History lists the most recent ledger rows for the customer.
func (l *Ledger) History(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]models.LoyaltyPointsHistory, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	if _, err := l.repo.FindCustomer(ctx, tenantID, customerID); err != nil {
		return nil, customerLookupError(err)
	}
	rows, err := l.repo.ListEntries(ctx, tenantID, customerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loyalty history")
	}
	return rows, nil
}

// apply locks the customer, asks delta for the signed movement, then writes
// the history row and the new cached balance.
func (l *Ledger) apply(ctx context.Context, tx *gorm.DB, entry Entry, entryType enums.LoyaltyEntryType, delta func(*models.Customer) (int, error)) (*Balance, error) {
	if entry.TenantID == uuid.Nil || entry.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant and customer ids required")
	}
	reason := strings.TrimSpace(entry.Reason)
	if reason == "" {
		reason = string(entryType)
	}

	var result *Balance
	err := l.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		customer, err := repo.FindCustomerForUpdate(ctx, entry.TenantID, entry.CustomerID)
		if err != nil {
			return customerLookupError(err)
		}

		applied, err := delta(customer)
		if err != nil {
			return err
		}

		lifetime := customer.LifetimePoints
		switch {
		case entryType == enums.LoyaltyEntryEarn:
			lifetime += applied
		case entryType == enums.LoyaltyEntryRevert && applied < 0:
			lifetime += applied
			if lifetime < 0 {
				lifetime = 0
			}
		}
		customer.PointsBalance += applied
		customer.LifetimePoints = lifetime
		customer.Tier = l.rules.TierFor(lifetime)

		if err := repo.InsertEntry(ctx, &models.LoyaltyPointsHistory{
			ID:         uuid.New(),
			TenantID:   entry.TenantID,
			CustomerID: entry.CustomerID,
			Points:     applied,
			Type:       entryType,
			Reason:     reason,
			OrderID:    entry.OrderID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert loyalty entry")
		}
		if err := repo.UpdateCustomerBalance(ctx, customer.ID, customer.PointsBalance, customer.LifetimePoints, customer.Tier); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update loyalty balance")
		}
		result = balanceOf(customer, applied)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Ledger) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return l.tx.WithTx(ctx, fn)
}

func balanceOf(customer *models.Customer, applied int) *Balance {
	return &Balance{
		CustomerID:     customer.ID,
		Points:         customer.PointsBalance,
		LifetimePoints: customer.LifetimePoints,
		Tier:           customer.Tier,
		Applied:        applied,
	}
}

func customerLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
}
