package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/api/middleware"
	"github.com/ooprato/ooprato-backend/api/responses"
	"github.com/ooprato/ooprato-backend/api/validators"
	"github.com/ooprato/ooprato-backend/internal/couriers"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/pagination"
)

// CourierService is the courier surface the HTTP layer drives.
type CourierService interface {
	SetAvailability(ctx context.Context, in couriers.SetAvailabilityInput) (*models.CourierAvailability, error)
	Availability(ctx context.Context, tenantID, courierID uuid.UUID) (*models.CourierAvailability, error)
	ListAvailableOrders(ctx context.Context, tenantID uuid.UUID, limit int) ([]couriers.OrderSummary, error)
	ListAssignedOrders(ctx context.Context, tenantID, courierID uuid.UUID) ([]couriers.OrderSummary, error)
}

type availabilityRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetCourierAvailability updates the acting courier's own status.
func SetCourierAvailability(svc CourierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "courier service unavailable"))
			return
		}
		courierID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required"))
			return
		}
		var req availabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseCourierStatus(strings.TrimSpace(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid courier status"))
			return
		}
		row, err := svc.SetAvailability(r.Context(), couriers.SetAvailabilityInput{
			TenantID:  middleware.TenantIDFromContext(r.Context()),
			CourierID: courierID,
			Status:    status,
			ActorID:   &courierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func CourierAvailability(svc CourierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "courier service unavailable"))
			return
		}
		courierID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required"))
			return
		}
		row, err := svc.Availability(r.Context(), middleware.TenantIDFromContext(r.Context()), courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AvailableOrders lists delivery orders waiting for a courier.
func AvailableOrders(svc CourierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "courier service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListAvailableOrders(r.Context(), middleware.TenantIDFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AssignedOrders lists the acting courier's open orders.
func AssignedOrders(svc CourierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "courier service unavailable"))
			return
		}
		courierID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required"))
			return
		}
		items, err := svc.ListAssignedOrders(r.Context(), middleware.TenantIDFromContext(r.Context()), courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
