package loyalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/internal/audit"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const maxAdjustReason = 280

// AdjustInput is a manual correction made by restaurant staff. Positive
// points are credited as earn, negative points are clawed back as revert.
type AdjustInput struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Points     int
	Reason     string
	ActorID    *uuid.UUID
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) bool
}

// Desk applies staff adjustments on top of the ledger.
type Desk struct {
	ledger *Ledger
	audit  auditRecorder
	logg   *logger.Logger
}

func NewDesk(ledger *Ledger, trail auditRecorder, logg *logger.Logger) (*Desk, error) {
	if ledger == nil {
		return nil, fmt.Errorf("loyalty ledger required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit trail required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Desk{ledger: ledger, audit: trail, logg: logg}, nil
}

// Adjust moves the balance by in.Points in its own transaction and audits
// the applied delta.
func (d *Desk) Adjust(ctx context.Context, in AdjustInput) (*Balance, error) {
	reason := strings.TrimSpace(in.Reason)
	switch {
	case in.Points == 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment points must be non-zero")
	case reason == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason required")
	case len(reason) > maxAdjustReason:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason too long").
			WithDetails(map[string]any{"max": maxAdjustReason})
	}

	entry := Entry{TenantID: in.TenantID, CustomerID: in.CustomerID, Points: in.Points, Reason: reason}
	var (
		balance *Balance
		err     error
	)
	if in.Points > 0 {
		balance, err = d.ledger.Award(ctx, nil, entry)
	} else {
		balance, err = d.ledger.Revert(ctx, nil, entry)
	}
	if err != nil {
		return nil, err
	}

	d.audit.Record(ctx, audit.Entry{
		TenantID:    in.TenantID,
		ActorID:     in.ActorID,
		Action:      audit.ActionLoyaltyAdjusted,
		SubjectType: audit.SubjectCustomer,
		SubjectID:   in.CustomerID,
		Metadata: map[string]any{
			"requested": in.Points,
			"applied":   balance.Applied,
			"balance":   balance.Points,
			"tier":      balance.Tier,
			"reason":    reason,
		},
	})
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"customer_id": in.CustomerID.String(),
		"applied":     balance.Applied,
	})
	d.logg.Info(logCtx, "loyalty balance adjusted")
	return balance, nil
}
