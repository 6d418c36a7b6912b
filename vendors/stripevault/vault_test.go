package stripevault

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"loyaltystay/clock"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/vendors"

	"github.com/stripe/stripe-go/v82"
)

var company = vendors.CompanyDetails{CompanyID: 3, ServiceKey: ServiceKey, Credentials: map[string]string{"secret_key": "sk_test_123"}}

type route func(w http.ResponseWriter, r *http.Request)

func newVault(t *testing.T, routes map[string]route) *Vault {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("authorization = %q", got)
		}
		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	return NewWithBackends(&stripe.Backends{API: b, Connect: b, Uploads: b}, clock.NewFixed(now))
}

func card(id string, month, year int) route {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"object":"payment_method","type":"card","card":{"brand":"visa","last4":"4242","exp_month":%d,"exp_year":%d}}`, id, month, year)
	}
}

func failure(status int, typ, code, msg string) route {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"type":%q,"code":%q,"message":%q}}`, typ, code, msg)
	}
}

func TestVaultToken(t *testing.T) {
	v := newVault(t, map[string]route{
		"GET /v1/payment_methods/pm_ok":      card("pm_ok", 5, 2026),
		"GET /v1/payment_methods/pm_old":     card("pm_old", 4, 2026),
		"GET /v1/payment_methods/pm_decline": failure(http.StatusPaymentRequired, "card_error", "card_declined", "Your card was declined."),
		"GET /v1/payment_methods/pm_broken":  failure(http.StatusInternalServerError, "api_error", "", "Something went wrong"),
	})
	ctx := context.Background()

	got, err := v.VaultToken(ctx, company, vendors.VaultRequest{UserID: 9, Token: "pm_ok"})
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	if got.Token != "pm_ok" || got.Last4 != "4242" || got.CardBrand != "visa" || got.ExpirationYear != 2026 || got.SystemProvider != ServiceKey {
		t.Fatalf("vaulted card = %+v", got)
	}

	for _, token := range []string{"pm_old", "pm_decline"} {
		if _, err := v.VaultToken(ctx, company, vendors.VaultRequest{Token: token}); !stderrors.Is(err, vendors.ErrPaymentDeclined) {
			t.Errorf("VaultToken(%s) error = %v, want declined", token, err)
		}
	}
	if _, err := v.VaultToken(ctx, company, vendors.VaultRequest{Token: "pm_broken"}); !errors.IsCode(err, errors.ErrCodeIntegration) {
		t.Errorf("api failure error = %v, want INTEGRATION_ERROR", err)
	}
}

func TestVaultWithoutSecretKey(t *testing.T) {
	v := New(clock.NewFixed(time.Now()))
	_, err := v.VaultToken(context.Background(), vendors.CompanyDetails{CompanyID: 4}, vendors.VaultRequest{Token: "pm_ok"})
	if !errors.IsCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("error = %v, want SERVICE_UNAVAILABLE", err)
	}
}

func TestIsPaymentMethodValid(t *testing.T) {
	v := newVault(t, map[string]route{
		"GET /v1/payment_methods/pm_ok":   card("pm_ok", 12, 2027),
		"GET /v1/payment_methods/pm_old":  card("pm_old", 12, 2025),
		"GET /v1/payment_methods/pm_gone": failure(http.StatusNotFound, "invalid_request_error", "resource_missing", "No such PaymentMethod"),
	})
	cases := map[string]bool{"pm_ok": true, "pm_old": false, "pm_gone": false}
	for token, want := range cases {
		got, err := v.IsPaymentMethodValid(context.Background(), company, &models.UserPaymentMethod{Token: token})
		if err != nil {
			t.Fatalf("IsPaymentMethodValid(%s): %v", token, err)
		}
		if got != want {
			t.Errorf("IsPaymentMethodValid(%s) = %v, want %v", token, got, want)
		}
	}
}

func TestAppendPaymentMethodTagsReservation(t *testing.T) {
	var form url.Values
	v := newVault(t, map[string]route{
		"POST /v1/payment_methods/pm_ok": func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			form, _ = url.ParseQuery(string(body))
			card("pm_ok", 5, 2030)(w, r)
		},
	})
	res := &models.Reservation{ID: 42, ItineraryID: "itin-7", ExternalConfirmationID: "CONF1"}
	if err := v.AppendPaymentMethod(context.Background(), company, res, &models.UserPaymentMethod{Token: "pm_ok"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if form.Get("metadata[reservation_id]") != "42" || form.Get("metadata[itinerary_id]") != "itin-7" || form.Get("metadata[confirmation_id]") != "CONF1" {
		t.Fatalf("metadata sent = %v", form)
	}
}
