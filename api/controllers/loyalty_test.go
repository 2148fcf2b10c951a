package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/internal/loyalty"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
)

type stubLoyalty struct {
	balanceFn func(ctx context.Context, tenantID, customerID uuid.UUID) (*loyalty.Balance, error)
	adjustFn  func(ctx context.Context, in loyalty.AdjustInput) (*loyalty.Balance, error)
}

func (s *stubLoyalty) Balance(ctx context.Context, tenantID, customerID uuid.UUID) (*loyalty.Balance, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, tenantID, customerID)
	}
	return &loyalty.Balance{CustomerID: customerID}, nil
}

func (s *stubLoyalty) History(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]models.LoyaltyPointsHistory, error) {
	return []models.LoyaltyPointsHistory{}, nil
}

func (s *stubLoyalty) Adjust(ctx context.Context, in loyalty.AdjustInput) (*loyalty.Balance, error) {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, in)
	}
	return &loyalty.Balance{CustomerID: in.CustomerID, Applied: in.Points}, nil
}

func TestLoyaltyBalanceReturnsTier(t *testing.T) {
	customerID := uuid.New()
	svc := &stubLoyalty{
		balanceFn: func(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Balance, error) {
			return &loyalty.Balance{CustomerID: id, Points: 120, LifetimePoints: 600, Tier: enums.LoyaltyTierSilver}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+customerID.String()+"/loyalty", nil)
	req = addRouteParam(withIdentity(req, uuid.New(), uuid.Nil), "customerId", customerID.String())
	resp := httptest.NewRecorder()
	LoyaltyBalance(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data loyalty.Balance `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Data.Points != 120 || envelope.Data.Tier != enums.LoyaltyTierSilver {
		t.Fatalf("unexpected balance %+v", envelope.Data)
	}
}

func TestLoyaltyBalanceNotFound(t *testing.T) {
	svc := &stubLoyalty{
		balanceFn: func(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Balance, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		},
	}
	id := uuid.NewString()
	req := addRouteParam(withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New(), uuid.Nil), "customerId", id)
	resp := httptest.NewRecorder()
	LoyaltyBalance(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdjustLoyaltyForwardsActor(t *testing.T) {
	userID := uuid.New()
	customerID := uuid.New()
	svc := &stubLoyalty{
		adjustFn: func(ctx context.Context, in loyalty.AdjustInput) (*loyalty.Balance, error) {
			if in.CustomerID != customerID || in.Points != -40 || in.Reason != "duplicate order" {
				t.Fatalf("unexpected input %+v", in)
			}
			if in.ActorID == nil || *in.ActorID != userID {
				t.Fatal("expected actor id")
			}
			return &loyalty.Balance{CustomerID: customerID, Applied: -40}, nil
		},
	}
	body := bytes.NewBufferString(`{"points":-40,"reason":" duplicate order "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/"+customerID.String()+"/loyalty/adjustments", body)
	req = addRouteParam(withIdentity(req, uuid.New(), userID), "customerId", customerID.String())
	resp := httptest.NewRecorder()
	AdjustLoyalty(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdjustLoyaltyRequiresReason(t *testing.T) {
	customerID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"points":10}`))
	req = addRouteParam(withIdentity(req, uuid.New(), uuid.New()), "customerId", customerID)
	resp := httptest.NewRecorder()
	AdjustLoyalty(&stubLoyalty{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
