package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/audit"
	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/internal/notifications"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/metrics"
	"github.com/ooprato/ooprato-backend/pkg/outbox"
	"github.com/ooprato/ooprato-backend/pkg/outbox/payloads"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	order     *models.Order
	updateOK  bool
	updates   []map[string]any
	assignOK  bool
	marked    []int
	markedErr error
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(ctx context.Context, order *models.Order) error {
	copied := *order
	r.order = &copied
	return nil
}

func (r *stubRepo) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return 1, nil
}

func (r *stubRepo) FindByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if r.order == nil || r.order.ID != orderID || r.order.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r.order
	return &copied, nil
}

func (r *stubRepo) FindByIDForUpdate(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	return r.FindByID(ctx, tenantID, orderID)
}

func (r *stubRepo) List(ctx context.Context, params listOrdersParams) ([]models.Order, error) {
	return nil, nil
}

func (r *stubRepo) UpdateWithVersion(ctx context.Context, tenantID, orderID uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	r.updates = append(r.updates, updates)
	return r.updateOK, nil
}

func (r *stubRepo) AssignCourier(ctx context.Context, tenantID, orderID, courierID uuid.UUID, at time.Time) (bool, error) {
	return r.assignOK, nil
}

func (r *stubRepo) MarkPointsEarned(ctx context.Context, orderID uuid.UUID, points int) (bool, error) {
	if r.markedErr != nil {
		return false, r.markedErr
	}
	r.marked = append(r.marked, points)
	return true, nil
}

func (r *stubRepo) ListStale(ctx context.Context, status enums.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

type stubLedger struct {
	awards    []loyalty.Entry
	reverts   []loyalty.Entry
	redeems   []loyalty.Entry
	revertErr error
	points    int
	referrals int
}

func (l *stubLedger) Award(ctx context.Context, tx *gorm.DB, entry loyalty.Entry) (*loyalty.Balance, error) {
	l.awards = append(l.awards, entry)
	return &loyalty.Balance{Applied: entry.Points}, nil
}

func (l *stubLedger) Redeem(ctx context.Context, tx *gorm.DB, entry loyalty.Entry) (*loyalty.Balance, error) {
	l.redeems = append(l.redeems, entry)
	return &loyalty.Balance{Applied: -entry.Points}, nil
}

func (l *stubLedger) Revert(ctx context.Context, tx *gorm.DB, entry loyalty.Entry) (*loyalty.Balance, error) {
	if l.revertErr != nil {
		return nil, l.revertErr
	}
	l.reverts = append(l.reverts, entry)
	return &loyalty.Balance{Applied: entry.Points}, nil
}

func (l *stubLedger) HasEntryForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, entryType enums.LoyaltyEntryType) (bool, error) {
	return false, nil
}

func (l *stubLedger) PointsForOrder(ctx context.Context, tx *gorm.DB, tenantID, customerID uuid.UUID, total decimal.Decimal) (int, error) {
	return l.points, nil
}

func (l *stubLedger) PayReferral(ctx context.Context, tx *gorm.DB, in loyalty.ReferralInput) (bool, error) {
	l.referrals++
	return false, nil
}

type stubCouriers struct {
	onDelivery []uuid.UUID
	released   []uuid.UUID
	ensureErr  error
}

func (c *stubCouriers) EnsureCourier(ctx context.Context, tx *gorm.DB, tenantID, courierID uuid.UUID) error {
	return c.ensureErr
}

func (c *stubCouriers) MarkOnDelivery(ctx context.Context, tx *gorm.DB, tenantID, courierID uuid.UUID) error {
	c.onDelivery = append(c.onDelivery, courierID)
	return nil
}

func (c *stubCouriers) ReleaseIfIdle(ctx context.Context, tx *gorm.DB, tenantID, courierID, excludeOrderID uuid.UUID) (bool, error) {
	c.released = append(c.released, courierID)
	return true, nil
}

type stubAudit struct {
	entries []audit.Entry
}

func (a *stubAudit) Record(ctx context.Context, entry audit.Entry) bool {
	a.entries = append(a.entries, entry)
	return true
}

func (a *stubAudit) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubNotifier struct {
	events []notifications.Event
	err    error
}

func (n *stubNotifier) Dispatch(ctx context.Context, event notifications.Event) notifications.Report {
	n.events = append(n.events, event)
	return notifications.Report{Err: n.err}
}

type stubOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (o *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	o.events = append(o.events, event)
	return true, nil
}

type stubMetrics struct {
	results  []string
	failures []string
}

func (m *stubMetrics) ObserveTransition(from, to, result string, elapsed time.Duration) {
	m.results = append(m.results, result)
}

func (m *stubMetrics) IncSideEffectFailure(effect string) {
	m.failures = append(m.failures, effect)
}

type harness struct {
	svc      *Service
	repo     *stubRepo
	ledger   *stubLedger
	couriers *stubCouriers
	audit    *stubAudit
	notifier *stubNotifier
	outbox   *stubOutbox
	metrics  *stubMetrics
}

func newHarness(t *testing.T, order *models.Order) *harness {
	t.Helper()
	h := &harness{
		repo:     &stubRepo{order: order, updateOK: true, assignOK: true},
		ledger:   &stubLedger{points: 42},
		couriers: &stubCouriers{},
		audit:    &stubAudit{},
		notifier: &stubNotifier{},
		outbox:   &stubOutbox{},
		metrics:  &stubMetrics{},
	}
	svc, err := NewService(ServiceParams{
		Repo:      h.repo,
		Tx:        stubTx{},
		Outbox:    h.outbox,
		Ledger:    h.ledger,
		Couriers:  h.couriers,
		Audit:     h.audit,
		Notifier:  h.notifier,
		Metrics:   h.metrics,
		Estimator: Estimator{DefaultPreparation: 30 * time.Minute},
		Logger:    logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	h.svc = svc
	return h
}

func stubOrder(status enums.OrderStatus) *models.Order {
	customer := uuid.New()
	return &models.Order{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		OrderNumber:   12,
		CustomerID:    &customer,
		CustomerName:  "Ana",
		Status:        status,
		Mode:          enums.FulfillmentDelivery,
		Total:         decimal.RequireFromString("42.50"),
		PaymentStatus: enums.PaymentStatusUnpaid,
		PaymentMethod: enums.PaymentMethodCard,
		Version:       3,
	}
}

func (h *harness) transition(target enums.OrderStatus) (*Result, error) {
	return h.svc.Transition(context.Background(), TransitionInput{
		TenantID: h.repo.order.TenantID,
		OrderID:  h.repo.order.ID,
		Target:   target,
		Reason:   "cliente desistiu",
	})
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected missing dependencies to fail")
	}
}

func TestTransitionRejectsIllegalTargetWithoutSideEffects(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusDelivered))

	_, err := h.transition(enums.OrderStatusPreparing)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(h.repo.updates) != 0 || len(h.outbox.events) != 0 || len(h.audit.entries) != 0 || len(h.notifier.events) != 0 {
		t.Fatalf("illegal transition must not touch anything")
	}
	if len(h.metrics.results) != 1 || h.metrics.results[0] != metrics.ResultRejected {
		t.Fatalf("expected one rejected observation, got %v", h.metrics.results)
	}
}

func TestTransitionToCurrentStatusIsNoop(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusPreparing))

	res, err := h.transition(enums.OrderStatusPreparing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Applied || len(h.repo.updates) != 0 || len(h.audit.entries) != 0 {
		t.Fatalf("expected a no-op, got %+v", res)
	}
	if h.metrics.results[0] != metrics.ResultNoop {
		t.Fatalf("expected noop metric, got %v", h.metrics.results)
	}
}

func TestCancelFinishedOrderIsNoop(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		h := newHarness(t, stubOrder(status))
		res, err := h.transition(enums.OrderStatusCancelled)
		if err != nil {
			t.Fatalf("cancel %s: unexpected error %v", status, err)
		}
		if res.Applied || res.Order.Status != status {
			t.Fatalf("cancel %s: expected untouched order, got %+v", status, res.Order)
		}
		if len(h.outbox.events) != 0 || len(h.ledger.reverts) != 0 || len(h.audit.entries) != 0 {
			t.Fatalf("cancel %s: expected no side effects", status)
		}
	}
}

func TestCancelSurvivesLoyaltyRevertFailure(t *testing.T) {
	order := stubOrder(enums.OrderStatusPreparing)
	order.PaymentStatus = enums.PaymentStatusPaid
	order.LoyaltyPointsUsed = 50
	h := newHarness(t, order)
	h.ledger.revertErr = errors.New("ledger offline")

	res, err := h.transition(enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancellation must not fail: %v", err)
	}
	if !res.Applied || res.Order.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %+v", res.Order)
	}
	if res.Order.PaymentStatus != enums.PaymentStatusRefundRequired {
		t.Fatalf("expected refund_required, got %s", res.Order.PaymentStatus)
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0].Name != EffectLoyaltyRevert || failed[0].Policy != PolicyLogged {
		t.Fatalf("expected only the loyalty revert to fail, got %+v", failed)
	}
	if len(h.metrics.failures) != 1 || h.metrics.failures[0] != EffectLoyaltyRevert {
		t.Fatalf("expected loyalty failure metric, got %v", h.metrics.failures)
	}

	var cancelled *payloads.OrderCancelledEvent
	for _, ev := range h.outbox.events {
		if ev.EventType == enums.EventOrderCancelled {
			if ev.IdempotencyKey != CancelEventKey(order.ID) {
				t.Fatalf("unexpected key %q", ev.IdempotencyKey)
			}
			data := ev.Data.(payloads.OrderCancelledEvent)
			cancelled = &data
		}
	}
	if cancelled == nil || !cancelled.RefundRequired || cancelled.Reason != "cliente desistiu" {
		t.Fatalf("expected refund event, got %+v", cancelled)
	}

	actions := h.audit.actions()
	if len(actions) != 2 || actions[1] != audit.ActionOrderCancelled {
		t.Fatalf("unexpected audit actions %v", actions)
	}
	if h.audit.entries[1].Metadata["refund_required"] != true {
		t.Fatalf("expected refund_required in audit metadata")
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0].Kind != enums.NotificationEventCancelled {
		t.Fatalf("expected a cancellation notification, got %+v", h.notifier.events)
	}
}

func TestCancelRevertsRedeemedPoints(t *testing.T) {
	order := stubOrder(enums.OrderStatusConfirmed)
	order.LoyaltyPointsUsed = 50
	h := newHarness(t, order)

	if _, err := h.transition(enums.OrderStatusCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.ledger.reverts) != 1 || h.ledger.reverts[0].Points != 50 || *h.ledger.reverts[0].OrderID != order.ID {
		t.Fatalf("expected a +50 revert, got %+v", h.ledger.reverts)
	}
	if h.audit.entries[1].Metadata["refund_required"] != false {
		t.Fatalf("unpaid orders need no refund")
	}
}

func TestTransitionDetectsConcurrentModification(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusNew))
	h.repo.updateOK = false

	_, err := h.transition(enums.OrderStatusConfirmed)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	if len(h.outbox.events) != 0 || len(h.notifier.events) != 0 {
		t.Fatalf("lost updates must not emit anything")
	}
}

func TestTransitionChecksExpectedVersion(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusNew))
	stale := 2

	_, err := h.svc.Transition(context.Background(), TransitionInput{
		TenantID:        h.repo.order.TenantID,
		OrderID:         h.repo.order.ID,
		Target:          enums.OrderStatusConfirmed,
		ExpectedVersion: &stale,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	if len(h.repo.updates) != 0 {
		t.Fatalf("stale version must not write")
	}
}

func TestTransitionOrderNotFound(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusNew))
	_, err := h.svc.Transition(context.Background(), TransitionInput{
		TenantID: uuid.New(),
		OrderID:  h.repo.order.ID,
		Target:   enums.OrderStatusConfirmed,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("other tenants must not see the order, got %v", err)
	}
}

func TestConfirmSetsReadyEstimate(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusNew))

	res, err := h.transition(enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order.EstimatedReadyAt == nil {
		t.Fatal("expected estimated_ready_at")
	}
	if _, ok := h.repo.updates[0]["estimated_ready_at"]; !ok {
		t.Fatalf("estimate must be persisted, got %v", h.repo.updates[0])
	}
	if res.Order.Version != 4 {
		t.Fatalf("expected version bump, got %d", res.Order.Version)
	}
}

func TestDeliveredSkipsEarnWhenAlreadyRecorded(t *testing.T) {
	order := stubOrder(enums.OrderStatusOutForDelivery)
	courier := uuid.New()
	order.CourierID = &courier
	earned := 10
	order.LoyaltyPointsEarned = &earned
	h := newHarness(t, order)

	res, err := h.transition(enums.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.ledger.awards) != 0 || len(h.repo.marked) != 0 || h.ledger.referrals != 0 {
		t.Fatalf("earn must run once per order")
	}
	if len(h.couriers.released) != 1 || h.couriers.released[0] != courier {
		t.Fatalf("expected courier release, got %v", h.couriers.released)
	}
	if *res.Order.LoyaltyPointsEarned != 10 {
		t.Fatalf("earned points must not change")
	}
}

func TestDeliveredAwardsPoints(t *testing.T) {
	order := stubOrder(enums.OrderStatusReady)
	order.Mode = enums.FulfillmentPickup
	h := newHarness(t, order)

	res, err := h.transition(enums.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.ledger.awards) != 1 || h.ledger.awards[0].Points != 42 {
		t.Fatalf("expected a 42 point award, got %+v", h.ledger.awards)
	}
	if res.Order.LoyaltyPointsEarned == nil || *res.Order.LoyaltyPointsEarned != 42 {
		t.Fatalf("expected loyalty_points_earned=42")
	}
	if h.ledger.referrals != 1 {
		t.Fatalf("expected a referral check")
	}
	if len(h.couriers.released) != 0 {
		t.Fatalf("pickup orders hold no courier")
	}
}

func TestEarnFailureRollsBackDelivery(t *testing.T) {
	order := stubOrder(enums.OrderStatusReady)
	order.Mode = enums.FulfillmentTable
	h := newHarness(t, order)
	h.repo.markedErr = errors.New("disk full")

	if _, err := h.transition(enums.OrderStatusDelivered); err == nil {
		t.Fatal("earn is fatal and must fail the transition")
	}
	if len(h.audit.entries) != 0 || len(h.notifier.events) != 0 {
		t.Fatalf("failed transitions run no post-commit effects")
	}
	if h.metrics.results[0] != metrics.ResultError {
		t.Fatalf("expected error metric, got %v", h.metrics.results)
	}
}

func TestStatusEventFailureRollsBack(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusConfirmed))
	h.outbox.err = errors.New("outbox unavailable")

	if _, err := h.transition(enums.OrderStatusPreparing); err == nil {
		t.Fatal("expected the status event failure to surface")
	}
	if len(h.audit.entries) != 0 {
		t.Fatalf("no audit for rolled back transitions")
	}
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusPreparing))
	h.notifier.err = errors.New("whatsapp down")

	res, err := h.transition(enums.OrderStatusReady)
	if err != nil {
		t.Fatalf("notification failure must not fail the transition: %v", err)
	}
	if res.Notification == nil || res.Notification.Err == nil {
		t.Fatalf("expected the report on the result")
	}
	if len(h.metrics.failures) != 1 || h.metrics.failures[0] != EffectNotification {
		t.Fatalf("expected notification failure metric, got %v", h.metrics.failures)
	}
}

func TestStatusWithoutCustomerMessageSkipsDispatch(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusConfirmed))

	if _, err := h.transition(enums.OrderStatusPreparing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.notifier.events) != 0 {
		t.Fatalf("preparing has no notification, got %+v", h.notifier.events)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].IdempotencyKey != StatusEventKey(h.repo.order.ID, enums.OrderStatusPreparing) {
		t.Fatalf("expected one status event, got %+v", h.outbox.events)
	}
}

func TestCourierAcceptedMarksCourierOnDelivery(t *testing.T) {
	order := stubOrder(enums.OrderStatusWaitingCourier)
	courier := uuid.New()
	order.CourierID = &courier
	h := newHarness(t, order)

	res, err := h.transition(enums.OrderStatusCourierAccepted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.couriers.onDelivery) != 1 || h.couriers.onDelivery[0] != courier {
		t.Fatalf("expected courier on delivery, got %v", h.couriers.onDelivery)
	}
	if res.Order.CourierAcceptedAt == nil {
		t.Fatal("expected accepted timestamp")
	}
}

func TestAssignCourierGuards(t *testing.T) {
	pickup := stubOrder(enums.OrderStatusReady)
	pickup.Mode = enums.FulfillmentPickup
	h := newHarness(t, pickup)
	_, err := h.svc.AssignCourier(context.Background(), AssignCourierInput{TenantID: pickup.TenantID, OrderID: pickup.ID, CourierID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidMode) {
		t.Fatalf("expected invalid mode, got %v", err)
	}

	assigned := stubOrder(enums.OrderStatusWaitingCourier)
	other := uuid.New()
	assigned.CourierID = &other
	h = newHarness(t, assigned)
	_, err = h.svc.AssignCourier(context.Background(), AssignCourierInput{TenantID: assigned.TenantID, OrderID: assigned.ID, CourierID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}

	early := stubOrder(enums.OrderStatusPreparing)
	h = newHarness(t, early)
	_, err = h.svc.AssignCourier(context.Background(), AssignCourierInput{TenantID: early.TenantID, OrderID: early.ID, CourierID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	ready := stubOrder(enums.OrderStatusReady)
	h = newHarness(t, ready)
	h.couriers.ensureErr = pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
	_, err = h.svc.AssignCourier(context.Background(), AssignCourierInput{TenantID: ready.TenantID, OrderID: ready.ID, CourierID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected unknown courier to fail, got %v", err)
	}
}

func TestAssignCourierLosingRaceReportsAlreadyAssigned(t *testing.T) {
	order := stubOrder(enums.OrderStatusReady)
	h := newHarness(t, order)
	h.repo.assignOK = false
	winner := uuid.New()
	// The conditional write lost: the reload sees the winner's courier.
	original := h.repo.order
	h.svc.repo = &racingRepo{stubRepo: h.repo, afterLoss: func() { original.CourierID = &winner }}

	_, err := h.svc.AssignCourier(context.Background(), AssignCourierInput{TenantID: order.TenantID, OrderID: order.ID, CourierID: uuid.New()})
	if !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyAssigned) {
		t.Fatalf("expected already assigned, got %v", err)
	}
	if len(h.outbox.events) != 0 || len(h.audit.entries) != 0 {
		t.Fatalf("the losing courier emits nothing")
	}
}

type racingRepo struct {
	*stubRepo
	afterLoss func()
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *racingRepo) AssignCourier(ctx context.Context, tenantID, orderID, courierID uuid.UUID, at time.Time) (bool, error) {
	r.afterLoss()
	return false, nil
}

func TestRejectCourierAfterAcceptReleasesCourier(t *testing.T) {
	order := stubOrder(enums.OrderStatusCourierAccepted)
	courier := uuid.New()
	order.CourierID = &courier
	h := newHarness(t, order)

	res, err := h.svc.RejectCourierAssignment(context.Background(), RejectCourierInput{TenantID: order.TenantID, OrderID: order.ID, Reason: "pneu furado"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order.Status != enums.OrderStatusWaitingCourier || res.Order.CourierID != nil {
		t.Fatalf("expected unassigned waiting order, got %+v", res.Order)
	}
	if update := h.repo.updates[0]; update["courier_id"] != nil {
		t.Fatalf("courier must be cleared, got %v", update)
	}
	if len(h.couriers.released) != 1 || h.couriers.released[0] != courier {
		t.Fatalf("expected courier release, got %v", h.couriers.released)
	}
	if len(h.audit.entries) != 1 || h.audit.entries[0].Action != audit.ActionCourierRejected {
		t.Fatalf("expected a rejection audit entry, got %v", h.audit.actions())
	}
}

func TestRejectCourierRequiresAssignment(t *testing.T) {
	h := newHarness(t, stubOrder(enums.OrderStatusReady))
	_, err := h.svc.RejectCourierAssignment(context.Background(), RejectCourierInput{TenantID: h.repo.order.TenantID, OrderID: h.repo.order.ID})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestPlaceValidatesInput(t *testing.T) {
	h := newHarness(t, nil)
	base := PlaceInput{
		TenantID:      uuid.New(),
		CustomerName:  "Ana",
		Mode:          enums.FulfillmentDelivery,
		Total:         decimal.RequireFromString("30"),
		PaymentMethod: enums.PaymentMethodPix,
	}

	cases := map[string]func(*PlaceInput){
		"missing tenant":          func(in *PlaceInput) { in.TenantID = uuid.Nil },
		"blank name":              func(in *PlaceInput) { in.CustomerName = "  " },
		"bad mode":                func(in *PlaceInput) { in.Mode = "drone" },
		"bad payment method":      func(in *PlaceInput) { in.PaymentMethod = "barter" },
		"refund at checkout":      func(in *PlaceInput) { in.PaymentStatus = enums.PaymentStatusRefundRequired },
		"negative total":          func(in *PlaceInput) { in.Total = decimal.NewFromInt(-1) },
		"points without customer": func(in *PlaceInput) { in.LoyaltyPointsUsed = 10 },
	}
	for name, mutate := range cases {
		in := base
		mutate(&in)
		if _, err := h.svc.Place(context.Background(), in); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	order, err := h.svc.Place(context.Background(), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != enums.OrderStatusNew || order.PaymentStatus != enums.PaymentStatusUnpaid || order.Version != 1 {
		t.Fatalf("unexpected placed order %+v", order)
	}
	if len(h.outbox.events) != 1 || h.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected an order created event, got %+v", h.outbox.events)
	}
	if len(h.audit.entries) != 1 || h.audit.entries[0].Action != audit.ActionOrderCreated {
		t.Fatalf("expected an order created audit entry")
	}
}
