package loyalty

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ooprato/ooprato-backend/internal/audit"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

type recordingTrail struct {
	entries []audit.Entry
}

func (r *recordingTrail) Record(ctx context.Context, entry audit.Entry) bool {
	r.entries = append(r.entries, entry)
	return true
}

func TestDeskAdjustCreditsAndAudits(t *testing.T) {
	ledger, client, fx := newTestLedger(t, 100)
	trail := &recordingTrail{}
	desk, err := NewDesk(ledger, trail, logger.New(logger.Options{ServiceName: "loyalty-test", Output: io.Discard}))
	require.NoError(t, err)

	balance, err := desk.Adjust(context.Background(), AdjustInput{
		TenantID:   fx.Tenant.ID,
		CustomerID: fx.Customer.ID,
		Points:     25,
		Reason:     " pedido atrasado ",
	})
	require.NoError(t, err)
	require.Equal(t, 125, balance.Points)
	require.Equal(t, 125, requireLedgerMatchesBalance(t, client.DB(), fx.Customer.ID))

	require.Len(t, trail.entries, 1)
	entry := trail.entries[0]
	require.Equal(t, audit.ActionLoyaltyAdjusted, entry.Action)
	require.Equal(t, audit.SubjectCustomer, entry.SubjectType)
	require.Equal(t, fx.Customer.ID, entry.SubjectID)
	require.Equal(t, "pedido atrasado", entry.Metadata["reason"])
}

func TestDeskAdjustClawbackStopsAtZero(t *testing.T) {
	ledger, client, fx := newTestLedger(t, 40)
	trail := &recordingTrail{}
	desk, err := NewDesk(ledger, trail, logger.New(logger.Options{ServiceName: "loyalty-test", Output: io.Discard}))
	require.NoError(t, err)

	balance, err := desk.Adjust(context.Background(), AdjustInput{
		TenantID:   fx.Tenant.ID,
		CustomerID: fx.Customer.ID,
		Points:     -100,
		Reason:     "fraude",
	})
	require.NoError(t, err)
	require.Equal(t, 0, balance.Points)
	require.Equal(t, -40, balance.Applied)
	require.Equal(t, enums.LoyaltyTierBronze, balance.Tier)
	require.Equal(t, 0, requireLedgerMatchesBalance(t, client.DB(), fx.Customer.ID))
	require.Equal(t, -100, trail.entries[0].Metadata["requested"])
	require.Equal(t, -40, trail.entries[0].Metadata["applied"])
}

func TestDeskAdjustValidation(t *testing.T) {
	ledger, _, fx := newTestLedger(t, 0)
	trail := &recordingTrail{}
	desk, err := NewDesk(ledger, trail, logger.New(logger.Options{ServiceName: "loyalty-test", Output: io.Discard}))
	require.NoError(t, err)

	_, err = desk.Adjust(context.Background(), AdjustInput{TenantID: fx.Tenant.ID, CustomerID: fx.Customer.ID, Reason: "x"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = desk.Adjust(context.Background(), AdjustInput{TenantID: fx.Tenant.ID, CustomerID: fx.Customer.ID, Points: 5})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	require.Empty(t, trail.entries)
}
