package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	"github.com/ooprato/ooprato-backend/pkg/outbox"
	"github.com/ooprato/ooprato-backend/pkg/outbox/payloads"
)

// Policy says what a failing side effect does to the transition.
type Policy int

const (
	// PolicyFatal effects roll the transition back when they fail.
	PolicyFatal Policy = iota
	// PolicyLogged effects run in a savepoint; failures are logged and counted.
	PolicyLogged
)

func (p Policy) String() string {
	if p == PolicyLogged {
		return "logged"
	}
	return "fatal"
}

// Side effect names, also used as metric labels.
const (
	EffectStatusEvent       = "status_event"
	EffectCancelEvent       = "cancel_event"
	EffectLoyaltyRevert     = "loyalty_revert"
	EffectLoyaltyEarn       = "loyalty_earn"
	EffectReferralPayout    = "referral_payout"
	EffectCourierOnDelivery = "courier_on_delivery"
	EffectCourierRelease    = "courier_release"
	EffectNotification      = "notification"
)

// EffectOutcome records how one side effect ended.
type EffectOutcome struct {
	Name   string
	Policy Policy
	Err    error
}

type effect struct {
	name   string
	policy Policy
	run    func(ctx context.Context, tx *gorm.DB, st *transitionState) error
}

// transitionState is shared by the effects of one applied transition.
type transitionState struct {
	order          *models.Order
	from           enums.OrderStatus
	actorID        *uuid.UUID
	reason         string
	at             time.Time
	refundRequired bool
	// releaseCourierID is the courier to hand back once the order lets go.
	releaseCourierID *uuid.UUID
	pointsReverted   int
	earned           bool
	referralPaid     bool
}

// effectsFor declares what the order's new status triggers, in dependency order.
func (s *Service) effectsFor(st *transitionState) []effect {
	var effects []effect
	switch st.order.Status {
	case enums.OrderStatusCancelled:
		effects = append(effects,
			effect{name: EffectLoyaltyRevert, policy: PolicyLogged, run: s.revertRedeemedPoints},
			effect{name: EffectCancelEvent, policy: PolicyFatal, run: s.emitCancelled},
		)
	case enums.OrderStatusDelivered:
		effects = append(effects,
			effect{name: EffectLoyaltyEarn, policy: PolicyFatal, run: s.earnPoints},
			effect{name: EffectReferralPayout, policy: PolicyLogged, run: s.payReferral},
		)
	case enums.OrderStatusCourierAccepted:
		effects = append(effects, effect{name: EffectCourierOnDelivery, policy: PolicyFatal, run: s.markCourierOnDelivery})
	}
	if st.releaseCourierID != nil {
		effects = append(effects, effect{name: EffectCourierRelease, policy: PolicyLogged, run: s.releaseCourier})
	}
	return append(effects, effect{name: EffectStatusEvent, policy: PolicyFatal, run: s.emitStatusChanged})
}

// runEffects stops at the first fatal failure and returns it.
func (s *Service) runEffects(ctx context.Context, tx *gorm.DB, st *transitionState, effects []effect) ([]EffectOutcome, error) {
	outcomes := make([]EffectOutcome, 0, len(effects))
	for _, eff := range effects {
		var err error
		if eff.policy == PolicyLogged && tx != nil {
			err = tx.Transaction(func(sp *gorm.DB) error {
				return eff.run(ctx, sp, st)
			})
		} else {
			err = eff.run(ctx, tx, st)
		}
		outcomes = append(outcomes, EffectOutcome{Name: eff.name, Policy: eff.policy, Err: err})
		if err == nil {
			continue
		}
		if eff.policy == PolicyFatal {
			return outcomes, err
		}
		s.logg.Error(s.logg.WithField(ctx, "effect", eff.name), "order side effect failed", err)
		s.countFailure(eff.name)
	}
	return outcomes, nil
}

func (s *Service) revertRedeemedPoints(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	order := st.order
	if order.LoyaltyPointsUsed <= 0 || order.CustomerID == nil {
		return nil
	}
	done, err := s.ledger.HasEntryForOrder(ctx, tx, order.ID, enums.LoyaltyEntryRevert)
	if err != nil || done {
		return err
	}
	balance, err := s.ledger.Revert(ctx, tx, loyalty.Entry{
		TenantID:   order.TenantID,
		CustomerID: *order.CustomerID,
		Points:     order.LoyaltyPointsUsed,
		Reason:     fmt.Sprintf("order #%d cancelled", order.OrderNumber),
		OrderID:    &order.ID,
	})
	if err != nil {
		return err
	}
	st.pointsReverted = balance.Applied
	return nil
}

func (s *Service) earnPoints(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	order := st.order
	if order.CustomerID == nil || order.LoyaltyPointsEarned != nil {
		return nil
	}
	points, err := s.ledger.PointsForOrder(ctx, tx, order.TenantID, *order.CustomerID, order.Total)
	if err != nil {
		return err
	}
	marked, err := s.repo.WithTx(tx).MarkPointsEarned(ctx, order.ID, points)
	if err != nil {
		return fmt.Errorf("mark points earned: %w", err)
	}
	if !marked {
		return nil
	}
	order.LoyaltyPointsEarned = &points

	already, err := s.ledger.HasEntryForOrder(ctx, tx, order.ID, enums.LoyaltyEntryEarn)
	if err != nil {
		return err
	}
	if !already && points > 0 {
		if _, err := s.ledger.Award(ctx, tx, loyalty.Entry{
			TenantID:   order.TenantID,
			CustomerID: *order.CustomerID,
			Points:     points,
			Reason:     fmt.Sprintf("order #%d delivered", order.OrderNumber),
			OrderID:    &order.ID,
		}); err != nil {
			return err
		}
	}
	st.earned = true
	return nil
}

func (s *Service) payReferral(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	order := st.order
	if !st.earned || order.CustomerID == nil {
		return nil
	}
	paid, err := s.ledger.PayReferral(ctx, tx, loyalty.ReferralInput{
		TenantID:   order.TenantID,
		CustomerID: *order.CustomerID,
		OrderID:    order.ID,
		OrderTotal: order.Total,
	})
	if err != nil {
		return err
	}
	st.referralPaid = paid
	return nil
}

func (s *Service) markCourierOnDelivery(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	if st.order.CourierID == nil {
		return nil
	}
	return s.couriers.MarkOnDelivery(ctx, tx, st.order.TenantID, *st.order.CourierID)
}

func (s *Service) releaseCourier(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	_, err := s.couriers.ReleaseIfIdle(ctx, tx, st.order.TenantID, *st.releaseCourierID, st.order.ID)
	return err
}

func (s *Service) emitStatusChanged(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	order := st.order
	_, err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:      enums.EventOrderStatusChanged,
		AggregateType:  enums.AggregateOrder,
		AggregateID:    order.ID,
		IdempotencyKey: StatusEventKey(order.ID, order.Status),
		Actor:          actorRef(st.actorID, order.TenantID),
		OccurredAt:     st.at,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			TenantID:    order.TenantID,
			OrderNumber: order.OrderNumber,
			From:        st.from,
			To:          order.Status,
			CourierID:   order.CourierID,
			ChangedAt:   st.at,
		},
	})
	if err != nil {
		return fmt.Errorf("emit status event: %w", err)
	}
	return nil
}

func (s *Service) emitCancelled(ctx context.Context, tx *gorm.DB, st *transitionState) error {
	order := st.order
	paymentStatus := order.PaymentStatus
	if st.refundRequired {
		paymentStatus = enums.PaymentStatusPaid
	}
	_, err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:      enums.EventOrderCancelled,
		AggregateType:  enums.AggregateOrder,
		AggregateID:    order.ID,
		IdempotencyKey: CancelEventKey(order.ID),
		Actor:          actorRef(st.actorID, order.TenantID),
		OccurredAt:     st.at,
		Data: payloads.OrderCancelledEvent{
			OrderID:        order.ID,
			TenantID:       order.TenantID,
			OrderNumber:    order.OrderNumber,
			PaymentStatus:  paymentStatus,
			PaymentMethod:  order.PaymentMethod,
			RefundRequired: st.refundRequired,
			Total:          order.Total,
			DeliveryFee:    order.DeliveryFee,
			Reason:         st.reason,
			CancelledAt:    st.at,
		},
	})
	if err != nil {
		return fmt.Errorf("emit cancellation event: %w", err)
	}
	return nil
}

// CancelEventKey is the integration event key the refund processor consumes.
func CancelEventKey(orderID uuid.UUID) string {
	return fmt.Sprintf("order.cancelled.%s", orderID)
}

// StatusEventKey identifies the status change event of an order.
func StatusEventKey(orderID uuid.UUID, status enums.OrderStatus) string {
	return fmt.Sprintf("order.status.%s.%s", orderID, status)
}

func actorRef(actorID *uuid.UUID, tenantID uuid.UUID) *outbox.ActorRef {
	if actorID == nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *actorID, TenantID: tenantID}
}
