package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"challenge-checkout/api"
	"challenge-checkout/core/catalog"
	"challenge-checkout/core/checkout"
	"challenge-checkout/core/commerce"
	"challenge-checkout/core/commerce/commercetest"
	"challenge-checkout/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *commercetest.Server) {
	t.Helper()

	backend := commercetest.NewSeeded()
	t.Cleanup(backend.Close)

	factory := func() (checkout.Backend, error) {
		return commerce.NewClient(config.CommerceConfig{
			BaseURL:           backend.URL(),
			TimeoutSeconds:    5,
			RequestsPerSecond: 100,
			Burst:             100,
		})
	}
	srv := httptest.NewServer(api.NewServerWithFactory("test", catalog.Default(), factory))
	t.Cleanup(srv.Close)
	return srv, backend
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var created api.CreateSessionResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/sessions", nil, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d, want 201", resp.StatusCode)
	}
	if created.SessionID == "" {
		t.Fatal("create session returned empty session id")
	}
	return created.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	sel := api.SelectionRequest{
		ChallengeType:   "one-step",
		ChallengeAmount: "10k",
		Platform:        "mt5",
		Addons:          []string{"ea-support"},
		PaymentMethod:   "stripe",
		Billing: api.BillingRequest{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+1000000",
			Country:   "GB",
		},
	}
	resp := doJSON(t, http.MethodPut, srv.URL+"/sessions/"+id+"/selection", sel, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("selection status = %d, want 200", resp.StatusCode)
	}

	var state api.SessionState
	doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"?wait=true", nil, &state)
	if state.Syncing {
		t.Error("state reports syncing after wait=true")
	}
	if got := state.Summary.Total.StringFixed(2); got != "124.00" {
		t.Errorf("total = %s, want 124.00", got)
	}
	if len(state.Summary.Items) != 2 {
		t.Errorf("summary has %d items, want 2", len(state.Summary.Items))
	}
	if state.Rules == nil {
		t.Error("rules missing after wait=true")
	}

	doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/coupon", api.CouponRequest{Code: "SAVE10"}, &state)
	if got := state.Summary.Discount.StringFixed(2); got != "12.40" {
		t.Errorf("discount = %s, want 12.40", got)
	}
	if got := state.Summary.Total.StringFixed(2); got != "111.60" {
		t.Errorf("discounted total = %s, want 111.60", got)
	}

	doJSON(t, http.MethodDelete, srv.URL+"/sessions/"+id+"/coupon", nil, &state)
	if !state.Summary.Discount.IsZero() {
		t.Errorf("discount after removal = %s, want 0", state.Summary.Discount)
	}

	var checkoutResp api.CheckoutResponse
	resp = doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/checkout", nil, &checkoutResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout status = %d, want 200", resp.StatusCode)
	}
	if checkoutResp.OrderID == 0 {
		t.Error("checkout returned no order id")
	}
	if checkoutResp.RedirectURL == "" {
		t.Error("checkout returned no redirect url")
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodGet, srv.URL+"/sessions/nope", nil, &errResp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if errResp.Error.Code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", errResp.Error.Code)
	}
}

func TestInvalidSelectionIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	sel := api.SelectionRequest{ChallengeType: "three-step", ChallengeAmount: "10k"}
	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPut, srv.URL+"/sessions/"+id+"/selection", sel, &errResp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if errResp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q, want VALIDATION_ERROR", errResp.Error.Code)
	}
}

func TestInvalidCouponIsBusinessError(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	doJSON(t, http.MethodPut, srv.URL+"/sessions/"+id+"/selection", api.SelectionRequest{
		ChallengeType:   "one-step",
		ChallengeAmount: "10k",
	}, nil)
	doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"?wait=true", nil, nil)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/coupon", api.CouponRequest{Code: "BOGUS"}, &errResp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if errResp.Error.Message == "" {
		t.Error("business error lost the backend message")
	}
}

func TestBackendFailureIsBadGateway(t *testing.T) {
	srv, backend := newTestServer(t)
	id := createSession(t, srv)

	doJSON(t, http.MethodPut, srv.URL+"/sessions/"+id+"/selection", api.SelectionRequest{
		ChallengeType:   "one-step",
		ChallengeAmount: "10k",
	}, nil)
	doJSON(t, http.MethodGet, srv.URL+"/sessions/"+id+"?wait=true", nil, nil)

	backend.FailNext(commercetest.OpApplyCoupon, http.StatusInternalServerError)
	resp := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/coupon", api.CouponRequest{Code: "SAVE10"}, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestCheckoutWithoutBillingIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	doJSON(t, http.MethodPut, srv.URL+"/sessions/"+id+"/selection", api.SelectionRequest{
		ChallengeType:   "one-step",
		ChallengeAmount: "10k",
	}, nil)

	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/sessions/"+id+"/checkout", nil, &errResp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)
	first := createSession(t, srv)
	second := createSession(t, srv)

	doJSON(t, http.MethodPut, srv.URL+"/sessions/"+first+"/selection", api.SelectionRequest{
		ChallengeType:   "one-step",
		ChallengeAmount: "10k",
	}, nil)
	doJSON(t, http.MethodGet, srv.URL+"/sessions/"+first+"?wait=true", nil, nil)

	var state api.SessionState
	doJSON(t, http.MethodGet, srv.URL+"/sessions/"+second+"?wait=true", nil, &state)
	if !state.Summary.Total.IsZero() {
		t.Errorf("second session total = %s, want 0", state.Summary.Total)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var cat api.CatalogResponse
	resp := doJSON(t, http.MethodGet, srv.URL+"/catalog", nil, &cat)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(cat.Challenges) != 8 {
		t.Errorf("catalog has %d challenges, want 8", len(cat.Challenges))
	}
	if len(cat.Addons) != 3 {
		t.Errorf("catalog has %d addons, want 3", len(cat.Addons))
	}
	if len(cat.Gateways) == 0 {
		t.Error("catalog has no payment gateways")
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv, _ := newTestServer(t)

	var health map[string]string
	doJSON(t, http.MethodGet, srv.URL+"/health", nil, &health)
	if health["status"] != "ok" {
		t.Errorf("health status = %q, want ok", health["status"])
	}

	var version map[string]string
	doJSON(t, http.MethodGet, srv.URL+"/version", nil, &version)
	if version["version"] != "test" {
		t.Errorf("version = %q, want test", version["version"])
	}
}
