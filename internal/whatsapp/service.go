package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	"github.com/ooprato/ooprato-backend/pkg/evolution"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

// Skip reasons reported when no send was attempted.
const (
	SkipAutoMessagesDisabled = "auto_messages_disabled"
	SkipNoInstance           = "no_instance"
	SkipTransportDisabled    = "transport_disabled"
	SkipNoTemplate           = "no_template"
	SkipNoPhone              = "no_phone"
	SkipUnsupportedEvent     = "unsupported_event"
)

const maxLoggedError = 500

// Sender is the chat transport.
type Sender interface {
	SendText(ctx context.Context, instance, phone, body string) (*evolution.SendResult, error)
}

// Message asks for the customer message describing event on order.
type Message struct {
	Order models.Order
	Event enums.NotificationEvent
}

// Result describes one Notify call. Err is set for failed attempts and for
// lookups that failed before an attempt.
type Result struct {
	Attempted   bool
	Sent        bool
	SkipReason  string
	TemplateKey string
	Phone       string
	LogID       uuid.UUID
	Err         error
}

// Notifier renders and sends customer WhatsApp messages, keeping one
// whatsapp_message_logs row per attempt.
type Notifier struct {
	repo   *Repository
	sender Sender
	logg   *logger.Logger
}

// NewNotifier wires the notifier. A nil sender disables sending; every
// message is then skipped.
func NewNotifier(repo *Repository, sender Sender, logg *logger.Logger) (*Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("whatsapp repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Notifier{repo: repo, sender: sender, logg: logg}, nil
}

// Notify never returns an error; the outcome is in Result.
func (n *Notifier) Notify(ctx context.Context, msg Message) Result {
	order := msg.Order
	key, ok := TemplateKeyFor(msg.Event)
	if !ok {
		return n.skip(ctx, order, "", SkipUnsupportedEvent)
	}

	tenant, err := n.repo.FindTenant(ctx, order.TenantID)
	if err != nil {
		return n.fail(ctx, order, key, fmt.Errorf("load tenant: %w", err))
	}
	if tenant.WhatsAppAutoMessages != nil && !*tenant.WhatsAppAutoMessages {
		return n.skip(ctx, order, key, SkipAutoMessagesDisabled)
	}
	instance := ""
	if tenant.WhatsAppInstance != nil {
		instance = strings.TrimSpace(*tenant.WhatsAppInstance)
	}
	if instance == "" {
		return n.skip(ctx, order, key, SkipNoInstance)
	}
	if n.sender == nil {
		return n.skip(ctx, order, key, SkipTransportDisabled)
	}

	tpl, err := n.repo.FindActiveTemplate(ctx, order.TenantID, key)
	if err != nil {
		return n.fail(ctx, order, key, fmt.Errorf("load template: %w", err))
	}
	if tpl == nil {
		return n.skip(ctx, order, key, SkipNoTemplate)
	}

	phone, err := n.ResolvePhone(ctx, order)
	if err != nil {
		return n.fail(ctx, order, key, fmt.Errorf("resolve phone: %w", err))
	}
	if phone == "" {
		return n.skip(ctx, order, key, SkipNoPhone)
	}

	orderID := order.ID
	logRow := &models.WhatsAppMessageLog{
		ID:          uuid.New(),
		TenantID:    order.TenantID,
		OrderID:     &orderID,
		Phone:       phone,
		TemplateKey: key,
		Body:        Render(tpl.Body, OrderVariables(*tenant, order)),
		Status:      enums.MessageStatusPending,
	}
	if err := n.repo.CreateLog(ctx, logRow); err != nil {
		return n.fail(ctx, order, key, fmt.Errorf("create message log: %w", err))
	}

	result := Result{Attempted: true, TemplateKey: key, Phone: phone, LogID: logRow.ID}
	_, sendErr := n.sender.SendText(ctx, instance, phone, logRow.Body)

	status := enums.MessageStatusSent
	var errMessage *string
	if sendErr != nil {
		status = enums.MessageStatusFailed
		text := truncateUTF8(sendErr.Error(), maxLoggedError)
		errMessage = &text
		result.Err = sendErr
	} else {
		result.Sent = true
	}

	// Finish the row even when ctx has expired.
	if err := n.repo.FinishLog(context.WithoutCancel(ctx), logRow.ID, status, errMessage); err != nil {
		n.logg.Error(n.logCtx(ctx, order, key), "finish whatsapp message log", err)
	}
	if sendErr != nil {
		n.logg.Error(n.logCtx(ctx, order, key), "whatsapp send failed", sendErr)
	}
	return result
}

// ResolvePhone tries the order snapshot, then the customer record, then the
// customer's default address. It returns "" when none has digits.
func (n *Notifier) ResolvePhone(ctx context.Context, order models.Order) (string, error) {
	if phone := normalized(order.CustomerPhone); phone != "" {
		return phone, nil
	}
	if order.CustomerID == nil {
		return "", nil
	}
	customer, err := n.repo.FindCustomer(ctx, order.TenantID, *order.CustomerID)
	if err != nil {
		return "", err
	}
	if customer != nil {
		if phone := normalized(customer.Phone); phone != "" {
			return phone, nil
		}
	}
	address, err := n.repo.FindDefaultAddress(ctx, order.TenantID, *order.CustomerID)
	if err != nil {
		return "", err
	}
	if address != nil {
		return normalized(address.Phone), nil
	}
	return "", nil
}

func (n *Notifier) skip(ctx context.Context, order models.Order, key, reason string) Result {
	logCtx := n.logg.WithField(n.logCtx(ctx, order, key), "skip_reason", reason)
	n.logg.Info(logCtx, "whatsapp message skipped")
	return Result{SkipReason: reason, TemplateKey: key}
}

func (n *Notifier) fail(ctx context.Context, order models.Order, key string, err error) Result {
	n.logg.Error(n.logCtx(ctx, order, key), "whatsapp message not attempted", err)
	return Result{TemplateKey: key, Err: err}
}

func (n *Notifier) logCtx(ctx context.Context, order models.Order, key string) context.Context {
	return n.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"channel":      string(enums.ChannelWhatsApp),
		"template_key": key,
	})
}

func normalized(phone *string) string {
	if phone == nil {
		return ""
	}
	return evolution.NormalizePhone(*phone)
}

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
