package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/audit"
	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/internal/notifications"
	dbpkg "github.com/ooprato/ooprato-backend/pkg/db"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/metrics"
	"github.com/ooprato/ooprato-backend/pkg/outbox"
	"github.com/ooprato/ooprato-backend/pkg/outbox/payloads"
	"github.com/ooprato/ooprato-backend/pkg/pagination"
)

const (
	orderNumberConstraint = "ux_orders_tenant_number"
	maxPlaceAttempts      = 5
)

var errOrderNumberTaken = errors.New("order number taken")

// ServiceParams wires the state machine collaborators. Metrics is optional.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Ledger    loyaltyLedger
	Couriers  courierTracker
	Audit     auditRecorder
	Notifier  notificationDispatcher
	Metrics   transitionMetrics
	Estimator Estimator
	Logger    *logger.Logger
}

// Service is the order state machine. Every status change goes through it.
type Service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	ledger    loyaltyLedger
	couriers  courierTracker
	audit     auditRecorder
	notifier  notificationDispatcher
	metrics   transitionMetrics
	estimator Estimator
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order state machine with the required dependencies.
func NewService(p ServiceParams) (*Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("loyalty ledger required")
	}
	if p.Couriers == nil {
		return nil, fmt.Errorf("courier tracker required")
	}
	if p.Audit == nil {
		return nil, fmt.Errorf("audit trail required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:      p.Repo,
		tx:        p.Tx,
		outbox:    p.Outbox,
		ledger:    p.Ledger,
		couriers:  p.Couriers,
		audit:     p.Audit,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		estimator: p.Estimator,
		logg:      p.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Place creates an order in status new, redeeming the points it uses.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*models.Order, error) {
	if err := validatePlace(&in); err != nil {
		return nil, err
	}

	var (
		order *models.Order
		err   error
	)
	for attempt := 1; attempt <= maxPlaceAttempts; attempt++ {
		order, err = s.place(ctx, in)
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order number taken, retrying")
	}
	if errors.Is(err, errOrderNumberTaken) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate order number")
	}
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrder(ctx, order.ID.String(), order.OrderNumber)
	s.audit.Record(logCtx, audit.Entry{
		TenantID:    order.TenantID,
		ActorID:     in.ActorID,
		Action:      audit.ActionOrderCreated,
		SubjectType: audit.SubjectOrder,
		SubjectID:   order.ID,
		Metadata: map[string]any{
			"order_number":        order.OrderNumber,
			"mode":                order.Mode,
			"total":               order.Total.StringFixed(2),
			"loyalty_points_used": order.LoyaltyPointsUsed,
		},
	})
	s.logg.Info(logCtx, "order placed")
	return order, nil
}

func (s *Service) place(ctx context.Context, in PlaceInput) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx, in.TenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		now := s.now()
		order = &models.Order{
			ID:                 uuid.New(),
			TenantID:           in.TenantID,
			OrderNumber:        number,
			CustomerID:         in.CustomerID,
			CustomerName:       in.CustomerName,
			CustomerPhone:      in.CustomerPhone,
			Status:             enums.OrderStatusNew,
			Mode:               in.Mode,
			Total:              in.Total,
			DeliveryFee:        in.DeliveryFee,
			PaymentStatus:      in.PaymentStatus,
			PaymentMethod:      in.PaymentMethod,
			LoyaltyPointsUsed:  in.LoyaltyPointsUsed,
			PreparationMinutes: in.PreparationMinutes,
			DeliveryDistanceKm: in.DeliveryDistanceKm,
			Version:            1,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := repo.Create(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, orderNumberConstraint) {
				return errOrderNumberTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if in.LoyaltyPointsUsed > 0 {
			if _, err := s.ledger.Redeem(ctx, tx, loyalty.Entry{
				TenantID:   in.TenantID,
				CustomerID: *in.CustomerID,
				Points:     in.LoyaltyPointsUsed,
				Reason:     fmt.Sprintf("order #%d redemption", number),
				OrderID:    &order.ID,
			}); err != nil {
				return err
			}
		}

		_, err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:      enums.EventOrderCreated,
			AggregateType:  enums.AggregateOrder,
			AggregateID:    order.ID,
			IdempotencyKey: fmt.Sprintf("order.created.%s", order.ID),
			Actor:          actorRef(in.ActorID, in.TenantID),
			OccurredAt:     now,
			Data: payloads.OrderCreatedEvent{
				OrderID:           order.ID,
				TenantID:          order.TenantID,
				OrderNumber:       order.OrderNumber,
				CustomerID:        order.CustomerID,
				Mode:              order.Mode,
				Total:             order.Total,
				DeliveryFee:       order.DeliveryFee,
				LoyaltyPointsUsed: order.LoyaltyPointsUsed,
				CreatedAt:         now,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns one order of the tenant.
func (s *Service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id required")
	}
	return s.load(ctx, s.repo, tenantID, orderID, false)
}

// List pages through the tenant's orders, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	if params.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *params.Status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, listOrdersParams{
		TenantID: params.TenantID,
		Status:   params.Status,
		Limit:    limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page, next := pagination.Split(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	list := &OrderList{Orders: page}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// Transition moves an order to in.Target. Moving to the current status, or
// cancelling a finished order, succeeds without side effects.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (*Result, error) {
	start := time.Now()
	if err := validateTransition(in); err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":      in.OrderID.String(),
		"target_status": string(in.Target),
	})

	var (
		res Result
		st  *transitionState
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, in.TenantID, in.OrderID, true)
		if err != nil {
			return err
		}
		res = Result{Order: *order, From: order.Status}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != order.Version {
			return concurrentModification(order)
		}
		if order.Status == in.Target || (in.Target == enums.OrderStatusCancelled && order.Status.IsTerminal()) {
			return nil
		}
		if err := checkTransition(*order, in.Target); err != nil {
			return err
		}

		st = &transitionState{
			order:          order,
			from:           order.Status,
			actorID:        in.ActorID,
			reason:         strings.TrimSpace(in.Reason),
			at:             s.now(),
			refundRequired: in.Target == enums.OrderStatusCancelled && order.PaymentStatus == enums.PaymentStatusPaid,
		}
		expected := order.Version
		updates := s.applyTarget(st, in.Target)
		ok, err := repo.UpdateWithVersion(ctx, order.TenantID, order.ID, expected, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return concurrentModification(order)
		}
		order.Version = expected + 1

		outcomes, err := s.runEffects(ctx, tx, st, s.effectsFor(st))
		res.Effects = outcomes
		if err != nil {
			return err
		}
		res.Order = *order
		res.Applied = true
		return nil
	})
	if err != nil {
		s.observe(res.From, in.Target, resultFor(err), start)
		return nil, err
	}
	if !res.Applied {
		s.observe(res.From, in.Target, metrics.ResultNoop, start)
		s.logg.Info(ctx, "order transition is a no-op")
		return &res, nil
	}

	ctx = s.logg.WithOrder(ctx, res.Order.ID.String(), res.Order.OrderNumber)
	s.auditTransition(ctx, st)
	s.dispatch(ctx, &res)
	s.observe(res.From, in.Target, metrics.ResultApplied, start)
	s.logg.Info(s.logg.WithField(ctx, "from_status", string(res.From)), "order transition applied")
	return &res, nil
}

// applyTarget moves the in-memory order to target and returns the columns to write.
func (s *Service) applyTarget(st *transitionState, target enums.OrderStatus) map[string]any {
	order := st.order
	at := st.at
	order.Status = target
	updates := map[string]any{"status": target}

	switch target {
	case enums.OrderStatusConfirmed:
		ready := s.estimator.ReadyAt(*order, at)
		order.EstimatedReadyAt = &ready
		updates["estimated_ready_at"] = ready
	case enums.OrderStatusCourierAccepted:
		order.CourierAcceptedAt = &at
		updates["motoboy_accepted_at"] = at
	case enums.OrderStatusOutForDelivery:
		order.DeliveryStartedAt = &at
		updates["delivery_started_at"] = at
		if eta := s.estimator.DeliveryAt(*order, at); eta != nil {
			order.EstimatedDeliveryAt = eta
			updates["estimated_delivery_at"] = *eta
		}
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &at
		updates["delivered_at"] = at
	case enums.OrderStatusCancelled:
		order.CancelledAt = &at
		updates["cancelled_at"] = at
		if st.reason != "" {
			reason := st.reason
			order.CancellationReason = &reason
			updates["cancellation_reason"] = reason
		}
		if st.refundRequired {
			order.PaymentStatus = enums.PaymentStatusRefundRequired
			updates["payment_status"] = enums.PaymentStatusRefundRequired
		}
	}

	if target.IsTerminal() && st.from.HoldsCourier() && order.CourierID != nil {
		courierID := *order.CourierID
		st.releaseCourierID = &courierID
	}
	return updates
}

// AssignCourier attaches a courier to an unassigned delivery order in ready
// or waiting_courier. Only one of several racing couriers wins.
func (s *Service) AssignCourier(ctx context.Context, in AssignCourierInput) (*Result, error) {
	start := time.Now()
	if in.TenantID == uuid.Nil || in.OrderID == uuid.Nil || in.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id, order id and courier id required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":   in.OrderID.String(),
		"courier_id": in.CourierID.String(),
	})

	var res Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, in.TenantID, in.OrderID, false)
		if err != nil {
			return err
		}
		res = Result{Order: *order, From: order.Status}
		if !order.IsDelivery() {
			return pkgerrors.New(pkgerrors.CodeInvalidMode, "courier assignment applies to delivery orders only").
				WithDetails(map[string]any{"mode": order.Mode})
		}
		if order.CourierID != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyAssigned, "order already has a courier")
		}
		if order.Status != enums.OrderStatusReady && order.Status != enums.OrderStatusWaitingCourier {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is not waiting for a courier").
				WithDetails(map[string]any{"from": order.Status, "to": enums.OrderStatusWaitingCourier})
		}
		if err := s.couriers.EnsureCourier(ctx, tx, in.TenantID, in.CourierID); err != nil {
			return err
		}

		at := s.now()
		won, err := repo.AssignCourier(ctx, in.TenantID, in.OrderID, in.CourierID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign courier")
		}
		if !won {
			return s.assignmentLost(ctx, repo, in)
		}

		courierID := in.CourierID
		order.CourierID = &courierID
		order.CourierAssignedAt = &at
		order.Status = enums.OrderStatusWaitingCourier
		order.Version++
		st := &transitionState{order: order, from: res.From, actorID: in.ActorID, at: at}
		outcomes, err := s.runEffects(ctx, tx, st, []effect{
			{name: EffectStatusEvent, policy: PolicyFatal, run: s.emitStatusChanged},
		})
		res.Effects = outcomes
		if err != nil {
			return err
		}
		res.Order = *order
		res.Applied = true
		return nil
	})
	if err != nil {
		s.observe(res.From, enums.OrderStatusWaitingCourier, resultFor(err), start)
		return nil, err
	}

	ctx = s.logg.WithOrder(ctx, res.Order.ID.String(), res.Order.OrderNumber)
	s.audit.Record(ctx, audit.Entry{
		TenantID:    res.Order.TenantID,
		ActorID:     in.ActorID,
		Action:      audit.ActionCourierAssigned,
		SubjectType: audit.SubjectOrder,
		SubjectID:   res.Order.ID,
		Metadata: map[string]any{
			"courier_id":  in.CourierID.String(),
			"from_status": res.From,
		},
	})
	s.observe(res.From, enums.OrderStatusWaitingCourier, metrics.ResultApplied, start)
	s.logg.Info(ctx, "courier assigned")
	return &res, nil
}

func (s *Service) assignmentLost(ctx context.Context, repo Repository, in AssignCourierInput) error {
	current, err := repo.FindByID(ctx, in.TenantID, in.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	if current.CourierID != nil {
		return pkgerrors.New(pkgerrors.CodeAlreadyAssigned, "order already has a courier")
	}
	return concurrentModification(current)
}

// RejectCourierAssignment detaches the courier and offers the order to other
// couriers again in waiting_courier.
func (s *Service) RejectCourierAssignment(ctx context.Context, in RejectCourierInput) (*Result, error) {
	start := time.Now()
	if in.TenantID == uuid.Nil || in.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and order id required")
	}
	ctx = s.logg.WithField(ctx, "order_id", in.OrderID.String())

	var (
		res      Result
		previous uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, in.TenantID, in.OrderID, true)
		if err != nil {
			return err
		}
		res = Result{Order: *order, From: order.Status}
		if !order.IsDelivery() {
			return pkgerrors.New(pkgerrors.CodeInvalidMode, "courier assignment applies to delivery orders only").
				WithDetails(map[string]any{"mode": order.Mode})
		}
		if order.CourierID == nil ||
			(order.Status != enums.OrderStatusWaitingCourier && order.Status != enums.OrderStatusCourierAccepted) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order has no pending courier assignment").
				WithDetails(map[string]any{"from": order.Status, "to": enums.OrderStatusWaitingCourier})
		}

		previous = *order.CourierID
		expected := order.Version
		ok, err := repo.UpdateWithVersion(ctx, order.TenantID, order.ID, expected, map[string]any{
			"status":              enums.OrderStatusWaitingCourier,
			"courier_id":          nil,
			"courier_assigned_at": nil,
			"motoboy_accepted_at": nil,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear courier")
		}
		if !ok {
			return concurrentModification(order)
		}
		order.Status = enums.OrderStatusWaitingCourier
		order.CourierID = nil
		order.CourierAssignedAt = nil
		order.CourierAcceptedAt = nil
		order.Version = expected + 1

		st := &transitionState{order: order, from: res.From, actorID: in.ActorID, reason: in.Reason, at: s.now()}
		effects := []effect{}
		if res.From == enums.OrderStatusCourierAccepted {
			st.releaseCourierID = &previous
			effects = append(effects, effect{name: EffectCourierRelease, policy: PolicyLogged, run: s.releaseCourier})
		}
		effects = append(effects, effect{name: EffectStatusEvent, policy: PolicyFatal, run: s.emitStatusChanged})
		outcomes, err := s.runEffects(ctx, tx, st, effects)
		res.Effects = outcomes
		if err != nil {
			return err
		}
		res.Order = *order
		res.Applied = true
		return nil
	})
	if err != nil {
		s.observe(res.From, enums.OrderStatusWaitingCourier, resultFor(err), start)
		return nil, err
	}

	ctx = s.logg.WithOrder(ctx, res.Order.ID.String(), res.Order.OrderNumber)
	metadata := map[string]any{
		"courier_id":  previous.String(),
		"from_status": res.From,
	}
	if reason := strings.TrimSpace(in.Reason); reason != "" {
		metadata["reason"] = reason
	}
	s.audit.Record(ctx, audit.Entry{
		TenantID:    res.Order.TenantID,
		ActorID:     in.ActorID,
		Action:      audit.ActionCourierRejected,
		SubjectType: audit.SubjectOrder,
		SubjectID:   res.Order.ID,
		Metadata:    metadata,
	})
	s.observe(res.From, enums.OrderStatusWaitingCourier, metrics.ResultApplied, start)
	s.logg.Info(ctx, "courier assignment rejected")
	return &res, nil
}

func (s *Service) auditTransition(ctx context.Context, st *transitionState) {
	order := st.order
	s.audit.Record(ctx, audit.Entry{
		TenantID:    order.TenantID,
		ActorID:     st.actorID,
		Action:      audit.ActionOrderStatusChanged,
		SubjectType: audit.SubjectOrder,
		SubjectID:   order.ID,
		Metadata: map[string]any{
			"order_number": order.OrderNumber,
			"from":         st.from,
			"to":           order.Status,
			"version":      order.Version,
		},
	})
	if order.Status != enums.OrderStatusCancelled {
		return
	}
	metadata := map[string]any{
		"order_number":    order.OrderNumber,
		"from":            st.from,
		"refund_required": st.refundRequired,
		"points_reverted": st.pointsReverted,
		"integration_key": CancelEventKey(order.ID),
	}
	if st.reason != "" {
		metadata["reason"] = st.reason
	}
	s.audit.Record(ctx, audit.Entry{
		TenantID:    order.TenantID,
		ActorID:     st.actorID,
		Action:      audit.ActionOrderCancelled,
		SubjectType: audit.SubjectOrder,
		SubjectID:   order.ID,
		Metadata:    metadata,
	})
}

func (s *Service) dispatch(ctx context.Context, res *Result) {
	kind, ok := enums.NotificationEventForStatus(res.Order.Status)
	if !ok {
		return
	}
	report := s.notifier.Dispatch(ctx, notifications.Event{Order: res.Order, Kind: kind})
	res.Notification = &report
	res.Effects = append(res.Effects, EffectOutcome{Name: EffectNotification, Policy: PolicyLogged, Err: report.Err})
	if report.Err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", report.Err.Error()), "order notification incomplete")
		s.countFailure(EffectNotification)
	}
}

func (s *Service) load(ctx context.Context, repo Repository, tenantID, orderID uuid.UUID, lock bool) (*models.Order, error) {
	find := repo.FindByID
	if lock {
		find = repo.FindByIDForUpdate
	}
	order, err := find(ctx, tenantID, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *Service) observe(from, to enums.OrderStatus, result string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(from), string(to), result, time.Since(start))
	}
}

func (s *Service) countFailure(effect string) {
	if s.metrics != nil {
		s.metrics.IncSideEffectFailure(effect)
	}
}

func resultFor(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return metrics.ResultError
	}
	switch typed.Code() {
	case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		return metrics.ResultError
	default:
		return metrics.ResultRejected
	}
}

func concurrentModification(order *models.Order) error {
	return pkgerrors.New(pkgerrors.CodeConcurrentModification, "order changed concurrently").
		WithDetails(map[string]any{"order_id": order.ID, "version": order.Version})
}

func validatePlace(in *PlaceInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.PaymentStatus == "" {
		in.PaymentStatus = enums.PaymentStatusUnpaid
	}
	switch {
	case in.TenantID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	case in.CustomerName == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	case !in.Mode.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid fulfillment mode %q", in.Mode))
	case !in.PaymentMethod.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", in.PaymentMethod))
	case !in.PaymentStatus.IsValid() || in.PaymentStatus == enums.PaymentStatusRefundRequired:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", in.PaymentStatus))
	case in.Total.IsNegative() || in.DeliveryFee.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "amounts must be non-negative")
	case in.LoyaltyPointsUsed < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "loyalty points used must be non-negative")
	case in.LoyaltyPointsUsed > 0 && in.CustomerID == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "redeeming points requires a customer")
	case in.PreparationMinutes != nil && *in.PreparationMinutes < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "preparation minutes must be non-negative")
	case in.DeliveryDistanceKm != nil && in.DeliveryDistanceKm.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery distance must be non-negative")
	}
	return nil
}

func validateTransition(in TransitionInput) error {
	if in.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}
	if in.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !in.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", in.Target))
	}
	return nil
}
