package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

// Actions recorded by the order lifecycle.
const (
	ActionOrderCreated        = "order.created"
	ActionOrderStatusChanged  = "order.status_changed"
	ActionOrderCancelled      = "order.cancelled"
	ActionCourierAssigned     = "order.courier_assigned"
	ActionCourierRejected     = "order.courier_rejected"
	ActionCourierAvailability = "courier.availability_changed"
	ActionLoyaltyAdjusted     = "loyalty.adjusted"
)

const (
	SubjectOrder    = "order"
	SubjectCourier  = "courier"
	SubjectCustomer = "customer"
)

const (
	failureEffectName  = "audit"
	maxUserAgentLength = 512
)

// Entry describes one audited change. A nil ActorID marks a system action.
type Entry struct {
	TenantID    uuid.UUID
	ActorID     *uuid.UUID
	Action      string
	SubjectType string
	SubjectID   uuid.UUID
	Metadata    map[string]any
}

type writer interface {
	Insert(ctx context.Context, row *models.AuditLog) error
}

type failureCounter interface {
	IncSideEffectFailure(effect string)
}

// Trail appends audit rows. Record never fails from the caller's view.
type Trail struct {
	repo    writer
	logg    *logger.Logger
	metrics failureCounter
}

// NewTrail wires the audit trail.
func NewTrail(repo writer, logg *logger.Logger, metrics failureCounter) (*Trail, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Trail{repo: repo, logg: logg, metrics: metrics}, nil
}

// Record writes the entry and reports whether it was stored. Failures are
// logged and counted, never returned.
func (t *Trail) Record(ctx context.Context, entry Entry) bool {
	row, err := buildRow(ctx, entry)
	if err == nil {
		err = t.repo.Insert(ctx, row)
	}
	if err == nil {
		return true
	}

	logCtx := t.logg.WithFields(ctx, map[string]any{
		"effect":       failureEffectName,
		"action":       entry.Action,
		"subject_type": entry.SubjectType,
		"subject_id":   entry.SubjectID.String(),
		"tenant_id":    entry.TenantID.String(),
	})
	t.logg.Error(logCtx, "audit write failed", err)
	if t.metrics != nil {
		t.metrics.IncSideEffectFailure(failureEffectName)
	}
	return false
}

func buildRow(ctx context.Context, entry Entry) (*models.AuditLog, error) {
	if entry.TenantID == uuid.Nil {
		return nil, fmt.Errorf("audit tenant id required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return nil, fmt.Errorf("audit action required")
	}
	row := &models.AuditLog{
		ID:          uuid.New(),
		TenantID:    entry.TenantID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
	}
	if len(entry.Metadata) > 0 {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode audit metadata: %w", err)
		}
		row.Metadata = payload
	}
	if meta, ok := RequestMetaFromContext(ctx); ok {
		if ip := strings.TrimSpace(meta.IPAddress); ip != "" {
			row.IPAddress = &ip
		}
		if ua := strings.TrimSpace(meta.UserAgent); ua != "" {
			if len(ua) > maxUserAgentLength {
				ua = ua[:maxUserAgentLength]
			}
			row.UserAgent = &ua
		}
	}
	return row, nil
}
