package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/ooprato/ooprato-backend/internal/orders"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const (
	defaultStaleOrderTTL   = 2 * time.Hour
	defaultStaleOrderBatch = 100

	staleOrderReason = "not confirmed by the restaurant in time"
)

type staleOrderReader interface {
	ListStale(ctx context.Context, status enums.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderTransitioner interface {
	Transition(ctx context.Context, in orders.TransitionInput) (*orders.Result, error)
}

type StaleOrderJobParams struct {
	Logger    *logger.Logger
	Reader    staleOrderReader
	Orders    orderTransitioner
	TTL       time.Duration
	BatchSize int
}

// NewStaleOrderJob cancels orders still in new after TTL. Cancellation goes
// through the order service so the regular side effects run.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil || params.Orders == nil {
		return nil, fmt.Errorf("order reader and service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultStaleOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStaleOrderBatch
	}
	return &staleOrderJob{
		logg:   params.Logger,
		reader: params.Reader,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	reader staleOrderReader
	orders orderTransitioner
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-orders" }

func (j *staleOrderJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.reader.ListStale(ctx, enums.OrderStatusNew, cutoff, j.batch)
	if err != nil {
		return 0, fmt.Errorf("list stale orders: %w", err)
	}

	var (
		cancelled int64
		errs      error
	)
	for _, order := range stale {
		orderCtx := j.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)
		res, err := j.orders.Transition(orderCtx, orders.TransitionInput{
			TenantID: order.TenantID,
			OrderID:  order.ID,
			Target:   enums.OrderStatusCancelled,
			Reason:   staleOrderReason,
		})
		switch {
		case err == nil:
			if res != nil && res.Applied {
				cancelled++
			}
		case pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition),
			pkgerrors.HasCode(err, pkgerrors.CodeConcurrentModification):
			// the restaurant acted on it after the scan
			j.logg.Info(orderCtx, "stale order moved on before expiry")
		default:
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
		}
	}
	return cancelled, errs
}
