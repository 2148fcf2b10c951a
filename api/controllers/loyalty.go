package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/api/middleware"
	"github.com/ooprato/ooprato-backend/api/responses"
	"github.com/ooprato/ooprato-backend/api/validators"
	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/pagination"
)

// LoyaltyReader exposes balances and ledger history.
type LoyaltyReader interface {
	Balance(ctx context.Context, tenantID, customerID uuid.UUID) (*loyalty.Balance, error)
	History(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]models.LoyaltyPointsHistory, error)
}

// LoyaltyAdjuster applies staff corrections.
type LoyaltyAdjuster interface {
	Adjust(ctx context.Context, in loyalty.AdjustInput) (*loyalty.Balance, error)
}

type adjustRequest struct {
	Points int    `json:"points" validate:"required"`
	Reason string `json:"reason" validate:"required,max=280"`
}

func LoyaltyBalance(svc LoyaltyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		customerID, err := validators.PathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.Balance(r.Context(), middleware.TenantIDFromContext(r.Context()), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// LoyaltyHistory returns the newest ledger rows for the customer.
func LoyaltyHistory(svc LoyaltyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		customerID, err := validators.PathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.History(r.Context(), middleware.TenantIDFromContext(r.Context()), customerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdjustLoyalty credits or claws back points by hand.
func AdjustLoyalty(svc LoyaltyAdjuster, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		customerID, err := validators.PathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.Adjust(r.Context(), loyalty.AdjustInput{
			TenantID:   middleware.TenantIDFromContext(r.Context()),
			CustomerID: customerID,
			Points:     req.Points,
			Reason:     validators.SanitizeString(req.Reason, 280),
			ActorID:    middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}
