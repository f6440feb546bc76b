package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	deliverysvc "github.com/nearbuy-labs/nearbuy-backend/internal/delivery"
	ordersvc "github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
)

type stubDeliveryService struct {
	available []deliverysvc.AvailableOrderDTO
	err       error
	lastInput deliverysvc.ListInput
}

func (s *stubDeliveryService) ListAvailable(_ context.Context, _ uuid.UUID, input deliverysvc.ListInput) ([]deliverysvc.AvailableOrderDTO, error) {
	s.lastInput = input
	return s.available, s.err
}

func (s *stubDeliveryService) Claim(_ context.Context, _, _ uuid.UUID) (*ordersvc.DTO, error) {
	return nil, s.err
}

func annotated(id uuid.UUID, distanceKm *float64) deliverysvc.AvailableOrderDTO {
	return deliverysvc.AvailableOrderDTO{
		DTO:              ordersvc.DTO{ID: id, Status: enums.OrderStatusReadyToShip},
		PickupDistanceKm: distanceKm,
	}
}

func TestDeliveriesAvailableSortsByPickupDistance(t *testing.T) {
	farID := uuid.New()
	nearID := uuid.New()
	unknownID := uuid.New()
	far := 42.5
	near := 3.1
	svc := &stubDeliveryService{available: []deliverysvc.AvailableOrderDTO{
		annotated(farID, &far),
		annotated(unknownID, nil),
		annotated(nearID, &near),
	}}
	handler := DeliveriesAvailable(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet,
		"/api/v1/deliveries/available?lat=18.52&lon=73.85", "", enums.RoleDeliveryPartner))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var envelope struct {
		Data struct {
			Orders []deliverysvc.AvailableOrderDTO `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	got := envelope.Data.Orders
	if len(got) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(got))
	}
	if got[0].ID != nearID || got[1].ID != farID || got[2].ID != unknownID {
		t.Fatalf("expected nearest first and unknown distances last, got %v %v %v",
			got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestDeliveriesAvailableKeepsServiceOrderWithoutLocation(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	svc := &stubDeliveryService{available: []deliverysvc.AvailableOrderDTO{
		annotated(first, nil),
		annotated(second, nil),
	}}
	handler := DeliveriesAvailable(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/deliveries/available", "", enums.RoleDeliveryPartner))

	var envelope struct {
		Data struct {
			Orders []deliverysvc.AvailableOrderDTO `json:"orders"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	got := envelope.Data.Orders
	if len(got) != 2 || got[0].ID != first || got[1].ID != second {
		t.Fatalf("expected service order preserved, got %+v", got)
	}
	if svc.lastInput.Location != nil {
		t.Fatalf("expected no location forwarded, got %+v", svc.lastInput.Location)
	}
}
