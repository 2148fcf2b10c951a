package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ooprato/ooprato-backend/internal/whatsapp"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const (
	dispatchConsumer      = "order-notifications"
	defaultChannelTimeout = 8 * time.Second
)

// Skip reasons reported by the dispatcher itself.
const (
	SkipNoCustomer        = "no_customer"
	SkipNoCourier         = "no_courier"
	SkipDuplicate         = "duplicate"
	SkipDedupeUnavailable = "dedupe_unavailable"
)

// Dispatch result labels.
const (
	resultDelivered = "delivered"
	resultFailed    = "failed"
	resultSkipped   = "skipped"
	resultDuplicate = "duplicate"
)

var dedupeNamespace = uuid.MustParse("8a4f2d6c-3b1e-5c7a-9d0f-6e2b4a8c1d35")

// Event asks for notifications about order having reached Kind.
type Event struct {
	Order models.Order
	Kind  enums.NotificationEvent
}

// ChannelResult is the outcome of one fan-out leg.
type ChannelResult struct {
	Channel   enums.NotificationChannel
	Attempted bool
	Delivered bool
	Skipped   string
	Err       error
}

// Report collects every channel outcome. Err combines the channel errors.
type Report struct {
	Results []ChannelResult
	Err     error
}

// Result returns the outcome for channel.
func (r Report) Result(channel enums.NotificationChannel) (ChannelResult, bool) {
	for _, res := range r.Results {
		if res.Channel == channel {
			return res, true
		}
	}
	return ChannelResult{}, false
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type whatsappNotifier interface {
	Notify(ctx context.Context, msg whatsapp.Message) whatsapp.Result
}

type dedupeStore interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type dispatchMetrics interface {
	IncDispatch(channel, result string)
}

// DispatcherParams wires the dispatcher.
type DispatcherParams struct {
	InApp    notificationWriter
	WhatsApp whatsappNotifier
	Dedupe   dedupeStore
	Metrics  dispatchMetrics
	Timeout  time.Duration
	Logger   *logger.Logger
}

// Dispatcher fans an order event out to every applicable channel. Channels
// run concurrently; a failing channel never stops the others.
type Dispatcher struct {
	inApp    notificationWriter
	whatsapp whatsappNotifier
	dedupe   dedupeStore
	metrics  dispatchMetrics
	timeout  time.Duration
	logg     *logger.Logger
}

type channel struct {
	name enums.NotificationChannel
	// skip returns a reason when the channel does not apply to the event.
	skip func(Event) string
	// send reports whether a delivery was attempted.
	send func(ctx context.Context, event Event) (attempted bool, skipReason string, err error)
}

// NewDispatcher validates the collaborators.
func NewDispatcher(p DispatcherParams) (*Dispatcher, error) {
	if p.InApp == nil {
		return nil, fmt.Errorf("in-app notification writer required")
	}
	if p.WhatsApp == nil {
		return nil, fmt.Errorf("whatsapp notifier required")
	}
	if p.Dedupe == nil {
		return nil, fmt.Errorf("dedupe store required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultChannelTimeout
	}
	return &Dispatcher{
		inApp:    p.InApp,
		whatsapp: p.WhatsApp,
		dedupe:   p.Dedupe,
		metrics:  p.Metrics,
		timeout:  p.Timeout,
		logg:     p.Logger,
	}, nil
}

// Dispatch delivers the event at most once per channel and never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) Report {
	channels := d.channels()
	results := make([]ChannelResult, len(channels))

	var g errgroup.Group
	for i, ch := range channels {
		g.Go(func() error {
			results[i] = d.run(ctx, event, ch)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	for _, res := range results {
		report.Err = multierr.Append(report.Err, res.Err)
	}
	return report
}

func (d *Dispatcher) channels() []channel {
	return []channel{
		{
			name: enums.ChannelCustomerInApp,
			skip: func(e Event) string {
				if e.Order.CustomerID == nil {
					return SkipNoCustomer
				}
				return ""
			},
			send: d.sendCustomerInApp,
		},
		{
			name: enums.ChannelWhatsApp,
			skip: func(Event) string { return "" },
			send: d.sendWhatsApp,
		},
		{
			name: enums.ChannelCourierInApp,
			skip: func(e Event) string {
				if e.Order.CourierID == nil {
					return SkipNoCourier
				}
				return ""
			},
			send: d.sendCourierInApp,
		},
	}
}

func (d *Dispatcher) run(ctx context.Context, event Event, ch channel) (result ChannelResult) {
	result.Channel = ch.name
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"order_id":     event.Order.ID.String(),
		"order_number": event.Order.OrderNumber,
		"channel":      string(ch.name),
		"event":        string(event.Kind),
	})
	defer func() {
		if r := recover(); r != nil {
			result.Attempted = true
			result.Delivered = false
			result.Err = fmt.Errorf("notification channel %s panicked: %v", ch.name, r)
			d.logg.Error(logCtx, "notification channel panicked", result.Err)
			d.count(ch.name, resultFailed)
		}
	}()

	if reason := ch.skip(event); reason != "" {
		result.Skipped = reason
		d.count(ch.name, resultSkipped)
		return result
	}

	dedupeID := DedupeID(event.Order.ID, event.Kind, ch.name)
	already, err := d.dedupe.CheckAndMarkProcessed(ctx, dispatchConsumer, dedupeID)
	if err != nil {
		result.Skipped = SkipDedupeUnavailable
		result.Err = fmt.Errorf("dedupe check: %w", err)
		d.logg.Error(logCtx, "notification dedupe unavailable, channel skipped", err)
		d.count(ch.name, resultSkipped)
		return result
	}
	if already {
		result.Skipped = SkipDuplicate
		d.logg.Info(logCtx, "notification already dispatched")
		d.count(ch.name, resultDuplicate)
		return result
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	attempted, skipReason, err := ch.send(sendCtx, event)
	result.Attempted = attempted
	result.Skipped = skipReason
	result.Err = err

	if !attempted {
		// Nothing went out, so a later dispatch may still try this channel.
		if delErr := d.dedupe.Delete(context.WithoutCancel(ctx), dispatchConsumer, dedupeID); delErr != nil {
			d.logg.Error(logCtx, "release notification dedupe key", delErr)
		}
	}

	switch {
	case attempted && err == nil:
		result.Delivered = true
		d.count(ch.name, resultDelivered)
	case err != nil:
		d.logg.Error(logCtx, "notification channel failed", err)
		d.count(ch.name, resultFailed)
	default:
		d.count(ch.name, resultSkipped)
	}
	return result
}

func (d *Dispatcher) sendCustomerInApp(ctx context.Context, event Event) (bool, string, error) {
	c := customerContent(event.Order, event.Kind)
	notificationType := enums.NotificationTypeOrderUpdate
	if event.Kind == enums.NotificationEventDelivered && event.Order.LoyaltyPointsEarned != nil && *event.Order.LoyaltyPointsEarned > 0 {
		notificationType = enums.NotificationTypeLoyaltyActivity
	}
	return true, "", d.writeInApp(ctx, event, *event.Order.CustomerID, notificationType, c)
}

func (d *Dispatcher) sendCourierInApp(ctx context.Context, event Event) (bool, string, error) {
	c := courierContent(event.Order, event.Kind)
	return true, "", d.writeInApp(ctx, event, *event.Order.CourierID, enums.NotificationTypeDeliveryUpdate, c)
}

func (d *Dispatcher) writeInApp(ctx context.Context, event Event, recipientID uuid.UUID, notificationType enums.NotificationType, c content) error {
	orderID := event.Order.ID
	return d.inApp.Create(ctx, &models.Notification{
		ID:          uuid.New(),
		TenantID:    event.Order.TenantID,
		RecipientID: recipientID,
		OrderID:     &orderID,
		Type:        notificationType,
		Title:       c.title,
		Message:     c.message,
	})
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, event Event) (bool, string, error) {
	res := d.whatsapp.Notify(ctx, whatsapp.Message{Order: event.Order, Event: event.Kind})
	return res.Attempted, res.SkipReason, res.Err
}

func (d *Dispatcher) count(channel enums.NotificationChannel, result string) {
	if d.metrics != nil {
		d.metrics.IncDispatch(string(channel), result)
	}
}

// DedupeID is stable per order, event kind and channel.
func DedupeID(orderID uuid.UUID, kind enums.NotificationEvent, channel enums.NotificationChannel) uuid.UUID {
	return uuid.NewSHA1(dedupeNamespace, []byte(orderID.String()+"|"+string(kind)+"|"+string(channel)))
}
