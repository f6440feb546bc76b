package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/nearbuy-labs/nearbuy-backend/internal/orders"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/pagination"
)

type stubOrderService struct {
	dto         *ordersvc.DTO
	err         error
	transitions []ordersvc.TransitionInput
}

func (s *stubOrderService) Get(_ context.Context, _ ordersvc.Actor, _ uuid.UUID) (*ordersvc.DTO, error) {
	return s.dto, s.err
}

func (s *stubOrderService) Transition(_ context.Context, input ordersvc.TransitionInput) (*ordersvc.DTO, error) {
	s.transitions = append(s.transitions, input)
	return s.dto, s.err
}

func (s *stubOrderService) ListForBuyer(_ context.Context, _ uuid.UUID, _ pagination.Params, _ ordersvc.ListFilters) ([]ordersvc.DTO, string, error) {
	if s.dto == nil {
		return nil, "", s.err
	}
	return []ordersvc.DTO{*s.dto}, "cursor-next", s.err
}

func (s *stubOrderService) ListForSeller(_ context.Context, _ uuid.UUID, _ pagination.Params, _ ordersvc.ListFilters) ([]ordersvc.DTO, string, error) {
	return nil, "", s.err
}

func (s *stubOrderService) ListForPartner(_ context.Context, _ uuid.UUID, _ pagination.Params, _ ordersvc.ListFilters) ([]ordersvc.DTO, string, error) {
	return nil, "", s.err
}

func withChiParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestOrderTransitionParsesTarget(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{dto: &ordersvc.DTO{ID: orderID, Status: enums.OrderStatusConfirmed}}
	handler := OrderTransition(svc, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status",
		`{"status":"confirmed","notes":"packing tonight"}`, enums.RoleRetailer)
	req = withChiParam(req, "orderID", orderID.String())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(svc.transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(svc.transitions))
	}
	got := svc.transitions[0]
	if got.OrderID != orderID || got.Target != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected transition input: %+v", got)
	}
	if got.Notes == nil || *got.Notes != "packing tonight" {
		t.Fatalf("notes not carried: %+v", got.Notes)
	}
}

func TestOrderTransitionRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrderService{}
	handler := OrderTransition(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status",
		`{"status":"teleported"}`, enums.RoleRetailer)
	req = withChiParam(req, "orderID", orderID.String())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(svc.transitions) != 0 {
		t.Fatal("invalid status must not reach the service")
	}
}

func TestOrdersForBuyerReturnsCursor(t *testing.T) {
	svc := &stubOrderService{dto: &ordersvc.DTO{ID: uuid.New(), Status: enums.OrderStatusPending}}
	handler := OrdersForBuyer(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders/me?limit=10", "", enums.RoleCustomer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var envelope struct {
		Data orderListResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.NextCursor != "cursor-next" {
		t.Fatalf("unexpected list payload: %+v", envelope.Data)
	}
}

func TestOrdersForSellerRequiresSellerRole(t *testing.T) {
	svc := &stubOrderService{}
	handler := OrdersForSeller(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders/seller", "", enums.RoleCustomer))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
