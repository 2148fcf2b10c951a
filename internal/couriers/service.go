package couriers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/audit"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) bool
}

// Tracker owns courier availability and the courier-facing order queues.
type Tracker struct {
	tx    txRunner
	repo  *Repository
	audit auditRecorder
	logg  *logger.Logger
	now   func() time.Time
}

// NewTracker wires the courier assignment tracker.
func NewTracker(tx txRunner, repo *Repository, trail auditRecorder, logg *logger.Logger) (*Tracker, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("courier repository required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit trail required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Tracker{
		tx:    tx,
		repo:  repo,
		audit: trail,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// SetAvailability records the courier's own status change.
func (t *Tracker) SetAvailability(ctx context.Context, in SetAvailabilityInput) (*models.CourierAvailability, error) {
	if in.TenantID == uuid.Nil || in.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant and courier ids required")
	}
	if !in.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid courier status %q", in.Status))
	}

	var (
		previous *enums.CourierStatus
		current  *models.CourierAvailability
	)
	err := t.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := t.EnsureCourier(ctx, tx, in.TenantID, in.CourierID); err != nil {
			return err
		}
		repo := t.repo.WithTx(tx)
		existing, err := repo.FindAvailability(ctx, in.CourierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier availability")
		}
		if existing != nil {
			status := existing.Status
			previous = &status
		}
		current, err = t.write(ctx, repo, in.TenantID, in.CourierID, in.Status)
		return err
	})
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{"status": in.Status, "is_online": current.IsOnline}
	if previous != nil {
		metadata["previous_status"] = *previous
	}
	t.audit.Record(ctx, audit.Entry{
		TenantID:    in.TenantID,
		ActorID:     in.ActorID,
		Action:      audit.ActionCourierAvailability,
		SubjectType: audit.SubjectCourier,
		SubjectID:   in.CourierID,
		Metadata:    metadata,
	})
	return current, nil
}

// EnsureCourier fails with NOT_FOUND unless courierID is an active courier of the tenant.
func (t *Tracker) EnsureCourier(ctx context.Context, tx *gorm.DB, tenantID, courierID uuid.UUID) error {
	if _, err := t.repo.WithTx(tx).FindCourier(ctx, tenantID, courierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	return nil
}

// MarkOnDelivery moves the courier to on_delivery, creating the row if needed.
func (t *Tracker) MarkOnDelivery(ctx context.Context, tx *gorm.DB, tenantID, courierID uuid.UUID) error {
	_, err := t.write(ctx, t.repo.WithTx(tx), tenantID, courierID, enums.CourierStatusOnDelivery)
	return err
}

// ReleaseIfIdle returns an on_delivery courier to available once no other
// order holds them. Couriers who went offline or on break are left alone.
func (t *Tracker) ReleaseIfIdle(ctx context.Context, tx *gorm.DB, tenantID, courierID, excludeOrderID uuid.UUID) (bool, error) {
	repo := t.repo.WithTx(tx)
	active, err := repo.CountActiveAssignments(ctx, courierID, excludeOrderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count courier assignments")
	}
	if active > 0 {
		return false, nil
	}
	current, err := repo.FindAvailability(ctx, courierID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier availability")
	}
	if current == nil || current.Status != enums.CourierStatusOnDelivery {
		return false, nil
	}
	if _, err := t.write(ctx, repo, tenantID, courierID, enums.CourierStatusAvailable); err != nil {
		return false, err
	}
	return true, nil
}

// Availability returns the courier's row, or an offline placeholder when the
// courier never reported a status.
func (t *Tracker) Availability(ctx context.Context, tenantID, courierID uuid.UUID) (*models.CourierAvailability, error) {
	if err := t.EnsureCourier(ctx, nil, tenantID, courierID); err != nil {
		return nil, err
	}
	row, err := t.repo.FindAvailability(ctx, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier availability")
	}
	if row == nil {
		return &models.CourierAvailability{TenantID: tenantID, CourierID: courierID, Status: enums.CourierStatusOffline}, nil
	}
	return row, nil
}

// ListAvailableOrders returns ready, unassigned delivery orders, newest first.
func (t *Tracker) ListAvailableOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]OrderSummary, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	orders, err := t.repo.ListAvailableOrders(ctx, tenantID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available orders")
	}
	return summarize(orders), nil
}

// ListAssignedOrders returns the orders currently holding the courier.
func (t *Tracker) ListAssignedOrders(ctx context.Context, tenantID, courierID uuid.UUID) ([]OrderSummary, error) {
	if tenantID == uuid.Nil || courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant and courier ids required")
	}
	orders, err := t.repo.ListAssignedOrders(ctx, tenantID, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned orders")
	}
	return summarize(orders), nil
}

func (t *Tracker) write(ctx context.Context, repo *Repository, tenantID, courierID uuid.UUID, status enums.CourierStatus) (*models.CourierAvailability, error) {
	now := t.now()
	row := &models.CourierAvailability{
		ID:             uuid.New(),
		TenantID:       tenantID,
		CourierID:      courierID,
		Status:         status,
		IsOnline:       status.IsOnline(),
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.UpsertAvailability(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert courier availability")
	}
	stored, err := repo.FindAvailability(ctx, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload courier availability")
	}
	if stored == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "courier availability missing after upsert")
	}
	return stored, nil
}
