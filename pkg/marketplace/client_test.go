package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
)

const productsJSON = `{
	"status_code": 200,
	"response_message": "OK",
	"response_body": {
		"product_data": [
			{"product_id": 3, "product_name": "Widget", "product_type_name": "Physical Product", "selling_price": 199.5, "short_description": "A widget", "quantity": "12", "pin_codes": [560001, "110001"]},
			{"product_id": "7", "product_name": "Haircut", "product_type_name": "Service Product", "selling_price": "499", "service_details": "45 minutes", "pin_codes": ["560001"]},
			{"product_id": 9, "product_name": "Veggie Box", "product_type_name": "Subscription Product", "subscription_plan": "weekly", "pin_codes": ["400001"]},
			{"product_id": null, "product_name": "Broken"}
		]
	}
}`

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		CatalogURL: srv.URL,
		CartURL:    srv.URL + "/",
		Token:      "secret",
		Timeout:    2 * time.Second,
	}, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pbs/rest/v3/products" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		_, _ = io.WriteString(w, productsJSON)
	}))

	products, err := c.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}

	qty := 12
	want := []contractx.Product{
		{ID: "3", Name: "Widget", Type: contractx.ProductTypePhysical, SellingPrice: "199.5", ShortDescription: "A widget", Quantity: &qty, PinCodes: []string{"560001", "110001"}},
		{ID: "7", Name: "Haircut", Type: contractx.ProductTypeService, SellingPrice: "499", ServiceDetails: "45 minutes", PinCodes: []string{"560001"}},
		{ID: "9", Name: "Veggie Box", Type: contractx.ProductTypeSubscription, SubscriptionPlan: "weekly", PinCodes: []string{"400001"}},
	}
	if diff := cmp.Diff(want, products); diff != "" {
		t.Fatalf("ListProducts() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatePincode(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, productsJSON)
	}))

	ok, categories, err := c.ValidatePincode(context.Background(), "560001")
	if err != nil {
		t.Fatalf("ValidatePincode() error = %v", err)
	}
	if !ok {
		t.Fatal("expected 560001 to be serviceable")
	}
	if diff := cmp.Diff([]string{"Physical Product", "Service Product"}, categories); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}

	ok, categories, err = c.ValidatePincode(context.Background(), "999999")
	if err != nil || ok || len(categories) != 0 {
		t.Fatalf("ValidatePincode(999999) = %v, %v, %v", ok, categories, err)
	}
}

func TestProductCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, productsJSON)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{CatalogURL: srv.URL, CartURL: srv.URL, Token: "secret", ProductCacheTTL: time.Minute}, WithClock(clock))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	first, err := c.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	first[0].Name = "mutated"

	second, err := c.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("catalog hits = %d, want 1", hits.Load())
	}
	if second[0].Name != "Widget" {
		t.Fatal("cache shares slices with callers")
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.ListProducts(context.Background()); err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("catalog hits after expiry = %d, want 2", hits.Load())
	}
}

func TestListProductsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code int
		body string
	}{
		{name: "server error", code: http.StatusBadGateway, body: "upstream down"},
		{name: "bad json", code: http.StatusOK, body: "<html>"},
		{name: "missing body", code: http.StatusOK, body: `{"status_code":200}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			}))
			_, err := c.ListProducts(context.Background())
			if !errors.Is(err, contractx.ErrCatalogUnavailable) {
				t.Fatalf("ListProducts() error = %v, want ErrCatalogUnavailable", err)
			}
			if !errors.Is(err, contractx.ErrCollaboratorUnavailable) {
				t.Fatalf("ListProducts() error = %v, want ErrCollaboratorUnavailable", err)
			}
		})
	}
}

func TestGetSlots(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pbs/rest/v3/slots" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("date") != "2025-01-15" || r.URL.Query().Get("product_id") != "7" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"response_body":{"slots":[
			{"day_time_name":"Morning","day_time_slots":[
				{"slot_start_time":"09:00","slot_end_time":"09:45","slot_duration":45,"slot_status":"available"},
				{"slot_start_time":"10:00","slot_end_time":null,"slot_duration":"45","slot_status":"available"}
			]},
			{"day_time_name":"Evening","day_time_slots":[
				{"slot_start_time":"18:00","slot_end_time":"18:45","slot_duration":"45","slot_status":"booked"}
			]}
		]}}`)
	}))

	slots, err := c.GetSlots(context.Background(), "2025-01-15", "7")
	if err != nil {
		t.Fatalf("GetSlots() error = %v", err)
	}
	want := []contractx.Slot{
		{PeriodLabel: "Morning", StartTime: "09:00", EndTime: "09:45", DurationMinutes: 45, Status: "available"},
		{PeriodLabel: "Morning", StartTime: "10:00", DurationMinutes: 45, Status: "available"},
		{PeriodLabel: "Evening", StartTime: "18:00", EndTime: "18:45", DurationMinutes: 45, Status: "booked"},
	}
	if diff := cmp.Diff(want, slots); diff != "" {
		t.Fatalf("GetSlots() mismatch (-want +got):\n%s", diff)
	}
	if slots[1].Complete() {
		t.Fatal("slot without end time must be incomplete")
	}
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cfs/rest/v3/list-orders-with-order-items" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"response_body":{"Orders":[
			{"id":42,"product_type_display_name":"Physical Product","order_status":"Delivered","date_of_order":"2025-01-10T08:30:00Z","currency_symbol":"₹","total_amount":199},
			{"id":"43","product_type_display_name":"Service Product","order_status":"Pending","date_of_order":"2025-01-11"}
		]}}`)
	}))

	orders, err := c.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	want := []contractx.Order{
		{ID: "42", ProductLabel: "Physical Product", Status: "Delivered", Date: "2025-01-10T08:30:00Z", Amount: "₹ 199"},
		{ID: "43", ProductLabel: "Service Product", Status: "Pending", Date: "2025-01-11"},
	}
	if diff := cmp.Diff(want, orders); diff != "" {
		t.Fatalf("ListOrders() mismatch (-want +got):\n%s", diff)
	}
}

func TestListOrdersUnavailable(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	if _, err := c.ListOrders(context.Background()); !errors.Is(err, contractx.ErrOrdersUnavailable) {
		t.Fatalf("ListOrders() error = %v, want ErrOrdersUnavailable", err)
	}
}

func TestAddItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    contractx.CartResult
		wantErr error
	}{
		{
			name:   "added",
			status: http.StatusOK,
			body:   `{"status_code":"200","response_message":"Item added successfully"}`,
			want:   contractx.CartResult{Success: true, Message: "Item added successfully"},
		},
		{
			name:   "conflict status",
			status: http.StatusConflict,
			body:   `{"status_code":"409","response_message":"Product already in cart"}`,
			want:   contractx.CartResult{Conflict: true, Message: "Product already in cart"},
		},
		{
			name:   "conflict in body only",
			status: http.StatusOK,
			body:   `{"status_code":409,"response_message":"Product already in cart"}`,
			want:   contractx.CartResult{Conflict: true, Message: "Product already in cart"},
		},
		{
			name:   "rejected",
			status: http.StatusBadRequest,
			body:   `{"status_code":"400","response_message":"Out of stock"}`,
			want:   contractx.CartResult{Message: "Out of stock"},
		},
		{
			name:   "unexpected message",
			status: http.StatusOK,
			body:   `{"response_message":"Cart locked"}`,
			want:   contractx.CartResult{Message: "Cart locked"},
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: contractx.ErrCartUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got cartRequest
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/cfs/rest/v3/customer-cart" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("content type = %q", ct)
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			res, err := c.AddItem(context.Background(), "3", 2)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddItem() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddItem() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, res); diff != "" {
				t.Fatalf("AddItem() mismatch (-want +got):\n%s", diff)
			}
			wantReq := cartRequest{CustomerCart: []cartLine{{Product: 3, CartQuantity: 2}}}
			if diff := cmp.Diff(wantReq, got); diff != "" {
				t.Fatalf("request body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	if _, err := c.AddItem(context.Background(), "abc", 1); !errors.Is(err, contractx.ErrInputFormat) {
		t.Fatalf("AddItem(abc) error = %v", err)
	}
	if _, err := c.AddItem(context.Background(), "3", 0); !errors.Is(err, contractx.ErrInputFormat) {
		t.Fatalf("AddItem(qty 0) error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	good := Config{CatalogURL: "http://catalog", CartURL: "http://cart", Token: "t"}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	bad := []Config{
		{CatalogURL: "not a url", CartURL: "http://cart", Token: "t"},
		{CatalogURL: "http://catalog", CartURL: "http://cart"},
		{CatalogURL: "http://catalog", CartURL: "http://cart", Token: "t", RequestsPerSecond: -1},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
			t.Errorf("case %d: Validate() error = %v, want ErrValidation", i, err)
		}
	}
}

func TestFlexString(t *testing.T) {
	t.Parallel()

	var v struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
		C flexString `json:"c"`
		D flexString `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":12,"b":" x ","c":null,"d":true}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.A != "12" || v.B != "x" || v.C != "" || v.D != "true" {
		t.Fatalf("decoded = %+v", v)
	}
	if n, ok := flexString("45.0").Int(); !ok || n != 45 {
		t.Fatalf("Int(45.0) = %d, %v", n, ok)
	}
	if _, ok := flexString("4.5").Int(); ok {
		t.Fatal("Int(4.5) should fail")
	}
}
