package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avdeev/go_storefront/internal/cartsync"
	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

// --- Mock ---

type cartStoreMock struct {
	mu     sync.Mutex
	lines  map[string]map[int64]int32
	failed bool
}

func newCartStoreMock() *cartStoreMock {
	return &cartStoreMock{lines: make(map[string]map[int64]int32)}
}

func (m *cartStoreMock) userLines(userID string) map[int64]int32 {
	if m.lines[userID] == nil {
		m.lines[userID] = make(map[int64]int32)
	}
	return m.lines[userID]
}

func (m *cartStoreMock) GetLines(_ context.Context, userID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CartLine
	for id, qty := range m.userLines(userID) {
		out = append(out, domain.CartLine{UserID: userID, ProductID: id, Quantity: qty})
	}
	return out, nil
}

func (m *cartStoreMock) AddLine(_ context.Context, userID string, productID int64, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return fmt.Errorf("storage down")
	}
	m.userLines(userID)[productID] += quantity
	return nil
}

func (m *cartStoreMock) UpdateQuantity(_ context.Context, userID string, productID int64, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return fmt.Errorf("storage down")
	}
	if _, ok := m.userLines(userID)[productID]; !ok {
		return cartsync.ErrLineNotFound
	}
	m.userLines(userID)[productID] = quantity
	return nil
}

func (m *cartStoreMock) RemoveLine(_ context.Context, userID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return fmt.Errorf("storage down")
	}
	delete(m.userLines(userID), productID)
	return nil
}

func (m *cartStoreMock) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return fmt.Errorf("storage down")
	}
	delete(m.lines, userID)
	return nil
}

// --- helpers ---

func withUser(r *http.Request) *http.Request {
	user := domain.User{ID: "user-1", Email: "buyer@example.com"}
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newCartHandler(store cartsync.Store) *CartHandler {
	return NewCartHandler(cartsync.NewRegistry(store), 5*time.Second)
}

// --- GetCart tests ---

func TestGetCart_Success(t *testing.T) {
	store := newCartStoreMock()
	store.userLines("user-1")[7] = 2
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/api/v1/cart", nil))

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.UserID != "user-1" {
		t.Errorf("expected user 'user-1', got '%s'", response.UserID)
	}
	if len(response.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(response.Lines))
	}
	if response.Lines[0].ProductID != 7 || response.Lines[0].Quantity != 2 {
		t.Errorf("line mismatch: %+v", response.Lines[0])
	}
}

func TestGetCart_EmptyCartIsArrayNotNull(t *testing.T) {
	handler := newCartHandler(newCartStoreMock())

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("GET", "/api/v1/cart", nil))

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), `"lines":null`) {
		t.Error("expected empty JSON array [], got null")
	}
}

func TestGetCart_Unauthorized(t *testing.T) {
	handler := newCartHandler(newCartStoreMock())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/cart", nil)
	// No user in context

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
}

// --- AddItem tests ---

func TestAddItem_Success(t *testing.T) {
	store := newCartStoreMock()
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`{"product_id":7}`)))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Errorf("expected %d, got %d", http.StatusCreated, recorder.Code)
	}
	if store.userLines("user-1")[7] != 1 {
		t.Errorf("expected durable quantity 1, got %d", store.userLines("user-1")[7])
	}
}

func TestAddItem_InvalidBody(t *testing.T) {
	handler := newCartHandler(newCartStoreMock())

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`not json`)))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_NonPositiveProductID(t *testing.T) {
	handler := newCartHandler(newCartStoreMock())

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`{"product_id":0}`)))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_StorageFailure(t *testing.T) {
	store := newCartStoreMock()
	store.failed = true
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(`{"product_id":7}`)))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("expected %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
}

// --- UpdateQuantity tests ---

func TestUpdateQuantity_Success(t *testing.T) {
	store := newCartStoreMock()
	store.userLines("user-1")[7] = 1
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withURLParam(
		withUser(httptest.NewRequest("PUT", "/api/v1/cart/items/7", strings.NewReader(`{"quantity":4}`))),
		"product_id", "7")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if store.userLines("user-1")[7] != 4 {
		t.Errorf("expected durable quantity 4, got %d", store.userLines("user-1")[7])
	}
}

func TestUpdateQuantity_ZeroQuantityRejected(t *testing.T) {
	store := newCartStoreMock()
	store.userLines("user-1")[7] = 1
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withURLParam(
		withUser(httptest.NewRequest("PUT", "/api/v1/cart/items/7", strings.NewReader(`{"quantity":0}`))),
		"product_id", "7")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestUpdateQuantity_BadProductID(t *testing.T) {
	handler := newCartHandler(newCartStoreMock())

	recorder := httptest.NewRecorder()
	request := withURLParam(
		withUser(httptest.NewRequest("PUT", "/api/v1/cart/items/abc", strings.NewReader(`{"quantity":4}`))),
		"product_id", "abc")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

// --- RemoveItem tests ---

func TestRemoveItem_Success(t *testing.T) {
	store := newCartStoreMock()
	store.userLines("user-1")[7] = 1
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withURLParam(
		withUser(httptest.NewRequest("DELETE", "/api/v1/cart/items/7", nil)),
		"product_id", "7")

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if _, ok := store.userLines("user-1")[7]; ok {
		t.Error("expected durable line to be removed")
	}
}

func TestRemoveItem_NotInCart(t *testing.T) {
	handler := newCartHandler(newCartStoreMock())

	recorder := httptest.NewRecorder()
	request := withURLParam(
		withUser(httptest.NewRequest("DELETE", "/api/v1/cart/items/7", nil)),
		"product_id", "7")

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

// --- ClearCart tests ---

func TestClearCart_Success(t *testing.T) {
	store := newCartStoreMock()
	store.userLines("user-1")[7] = 1
	store.userLines("user-1")[8] = 2
	handler := newCartHandler(store)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest("DELETE", "/api/v1/cart", nil))

	handler.ClearCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if len(store.lines["user-1"]) != 0 {
		t.Errorf("expected empty durable cart, got %d lines", len(store.lines["user-1"]))
	}
}
