package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/api/middleware"
	"github.com/ooprato/ooprato-backend/api/responses"
	"github.com/ooprato/ooprato-backend/api/validators"
	"github.com/ooprato/ooprato-backend/internal/notifications"
	internalorders "github.com/ooprato/ooprato-backend/internal/orders"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/pagination"
)

const maxReasonLength = 280

// Service is the order surface the HTTP layer drives.
type Service interface {
	Place(ctx context.Context, in internalorders.PlaceInput) (*models.Order, error)
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params internalorders.ListParams) (*internalorders.OrderList, error)
	Transition(ctx context.Context, in internalorders.TransitionInput) (*internalorders.Result, error)
	AssignCourier(ctx context.Context, in internalorders.AssignCourierInput) (*internalorders.Result, error)
	RejectCourierAssignment(ctx context.Context, in internalorders.RejectCourierInput) (*internalorders.Result, error)
}

type placeRequest struct {
	CustomerID         *string          `json:"customer_id" validate:"omitempty,uuid"`
	CustomerName       string           `json:"customer_name" validate:"required,max=120"`
	CustomerPhone      *string          `json:"customer_phone" validate:"omitempty,max=32"`
	Mode               string           `json:"mode" validate:"required,oneof=delivery pickup table"`
	Total              decimal.Decimal  `json:"total"`
	DeliveryFee        decimal.Decimal  `json:"delivery_fee"`
	PaymentStatus      string           `json:"payment_status" validate:"omitempty,oneof=unpaid paid"`
	PaymentMethod      string           `json:"payment_method" validate:"required"`
	LoyaltyPointsUsed  int              `json:"loyalty_points_used" validate:"min=0"`
	PreparationMinutes *int             `json:"preparation_minutes" validate:"omitempty,min=1,max=480"`
	DeliveryDistanceKm *decimal.Decimal `json:"delivery_distance_km"`
}

type transitionRequest struct {
	Status          string `json:"status" validate:"required"`
	Reason          string `json:"reason" validate:"max=280"`
	ExpectedVersion *int   `json:"expected_version" validate:"omitempty,min=1"`
}

type assignRequest struct {
	CourierID string `json:"courier_id" validate:"required,uuid"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=280"`
}

// ResultResponse is the public shape of a state machine call.
type ResultResponse struct {
	Order          models.Order      `json:"order"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Applied        bool              `json:"applied"`
	FailedEffects  []string          `json:"failed_effects,omitempty"`
	Notifications  map[string]string `json:"notifications,omitempty"`
}

func toResultResponse(res *internalorders.Result) ResultResponse {
	out := ResultResponse{Order: res.Order, PreviousStatus: res.From, Applied: res.Applied}
	for _, failed := range res.Failed() {
		out.FailedEffects = append(out.FailedEffects, failed.Name)
	}
	if res.Notification != nil {
		out.Notifications = make(map[string]string, len(res.Notification.Results))
		for _, ch := range res.Notification.Results {
			out.Notifications[string(ch.Channel)] = channelOutcome(ch)
		}
	}
	return out
}

func channelOutcome(ch notifications.ChannelResult) string {
	switch {
	case ch.Delivered:
		return "delivered"
	case ch.Skipped != "":
		return "skipped:" + ch.Skipped
	case ch.Err != nil:
		return "failed"
	default:
		return "not_attempted"
	}
}

// Place creates a new order for the tenant.
func Place(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		var req placeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.OptionalUUID(req.CustomerID, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Place(r.Context(), internalorders.PlaceInput{
			TenantID:           middleware.TenantIDFromContext(r.Context()),
			ActorID:            middleware.ActorFromContext(r.Context()),
			CustomerID:         customerID,
			CustomerName:       validators.SanitizeString(req.CustomerName, 120),
			CustomerPhone:      req.CustomerPhone,
			Mode:               enums.FulfillmentMode(req.Mode),
			Total:              req.Total,
			DeliveryFee:        req.DeliveryFee,
			PaymentStatus:      enums.PaymentStatus(req.PaymentStatus),
			PaymentMethod:      enums.PaymentMethod(req.PaymentMethod),
			LoyaltyPointsUsed:  req.LoyaltyPointsUsed,
			PreparationMinutes: req.PreparationMinutes,
			DeliveryDistanceKm: req.DeliveryDistanceKm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, order)
	}
}

// Detail returns one order of the tenant.
func Detail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), middleware.TenantIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List pages through the tenant's orders, optionally filtered by status.
func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalorders.ListParams{
			TenantID: middleware.TenantIDFromContext(r.Context()),
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.OrderStatus(raw)
			params.Status = &status
		}
		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Transition moves an order to the requested status.
func Transition(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			TenantID:        middleware.TenantIDFromContext(r.Context()),
			OrderID:         orderID,
			Target:          enums.OrderStatus(strings.TrimSpace(req.Status)),
			ActorID:         middleware.ActorFromContext(r.Context()),
			Reason:          validators.SanitizeString(req.Reason, maxReasonLength),
			ExpectedVersion: req.ExpectedVersion,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toResultResponse(res))
	}
}

// AssignCourier attaches a courier to a delivery order.
func AssignCourier(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req assignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID, err := uuid.Parse(req.CourierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid courier id"))
			return
		}
		res, err := svc.AssignCourier(r.Context(), internalorders.AssignCourierInput{
			TenantID:  middleware.TenantIDFromContext(r.Context()),
			OrderID:   orderID,
			CourierID: courierID,
			ActorID:   middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toResultResponse(res))
	}
}

// RejectCourier detaches the current courier so the order can be reassigned.
func RejectCourier(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rejectRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		res, err := svc.RejectCourierAssignment(r.Context(), internalorders.RejectCourierInput{
			TenantID: middleware.TenantIDFromContext(r.Context()),
			OrderID:  orderID,
			ActorID:  middleware.ActorFromContext(r.Context()),
			Reason:   validators.SanitizeString(req.Reason, maxReasonLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toResultResponse(res))
	}
}
