package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/api/middleware"
	cartsvc "github.com/nearbuy-labs/nearbuy-backend/internal/cart"
	"github.com/nearbuy-labs/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

type stubCartService struct {
	dto       *cartsvc.DTO
	err       error
	lastClass enums.BuyerClass
	addCalls  int
}

func (s *stubCartService) Get(_ context.Context, _ uuid.UUID, class enums.BuyerClass) (*cartsvc.DTO, error) {
	s.lastClass = class
	return s.dto, s.err
}

func (s *stubCartService) AddItem(_ context.Context, _ uuid.UUID, class enums.BuyerClass, _ uuid.UUID, _ int) (*cartsvc.DTO, error) {
	s.lastClass = class
	s.addCalls++
	return s.dto, s.err
}

func (s *stubCartService) UpdateItem(_ context.Context, _ uuid.UUID, class enums.BuyerClass, _ uuid.UUID, _ int) (*cartsvc.DTO, error) {
	s.lastClass = class
	return s.dto, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _ uuid.UUID, class enums.BuyerClass, _ uuid.UUID) (*cartsvc.DTO, error) {
	s.lastClass = class
	return s.dto, s.err
}

func (s *stubCartService) Clear(_ context.Context, _ uuid.UUID) error {
	return s.err
}

func authedRequest(method, target string, body string, role enums.Role) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestCartGetPricesForActiveRole(t *testing.T) {
	svc := &stubCartService{dto: &cartsvc.DTO{
		CartID:   uuid.New(),
		Items:    []cartsvc.ItemDTO{},
		Subtotal: decimal.Zero,
	}}
	handler := CartGet(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart", "", enums.RoleRetailer))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if svc.lastClass != enums.BuyerClassRetailer {
		t.Fatalf("buyer class = %q, want %q", svc.lastClass, enums.BuyerClassRetailer)
	}

	var envelope struct {
		Data cartsvc.DTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CartID != svc.dto.CartID {
		t.Fatalf("cart id = %s, want %s", envelope.Data.CartID, svc.dto.CartID)
	}
}

func TestCartRejectsNonBuyerRole(t *testing.T) {
	svc := &stubCartService{}
	handler := CartGet(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart", "", enums.RoleDeliveryPartner))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCartAddItemRejectsBadPayload(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAddItem(svc, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing product", `{"quantity":2}`},
		{"zero quantity", `{"product_id":"` + uuid.NewString() + `","quantity":0}`},
		{"not json", `quantity=2`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", tc.body, enums.RoleCustomer))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if svc.addCalls != 0 {
				t.Fatalf("service called %d times, want 0", svc.addCalls)
			}
		})
	}
}

func TestCartAddItemPropagatesDomainError(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "only 1 left")}
	handler := CartAddItem(svc, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":5}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body, enums.RoleCustomer))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("code = %q, want %q", envelope.Error.Code, pkgerrors.CodeInsufficientStock)
	}
	if envelope.Error.Message != "only 1 left" {
		t.Fatalf("message = %q, want service message", envelope.Error.Message)
	}
}
