package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-marketplace-backend/internal/domain"
)

func newPayPalServer(t *testing.T, orders http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/checkout/orders", orders)
	mux.HandleFunc("/v2/checkout/orders/", orders)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *PayPalClient {
	return NewPayPalClient(context.Background(), PayPalConfig{ClientID: "client", ClientSecret: "secret", BaseURL: srv.URL + "/"})
}

func TestPayPalClient_CreateOrder(t *testing.T) {
	var got createOrderRequest
	srv := newPayPalServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"CREATED","links":[
			{"href":"https://api.test/v2/checkout/orders/ORDER-1","rel":"self","method":"GET"},
			{"href":"https://www.paypal.test/checkoutnow?token=ORDER-1","rel":"approve","method":"GET"}]}`))
	})

	order, err := newClient(srv).CreateOrder(context.Background(), domain.OrderRequest{
		Amount:      decimal.RequireFromString("1000"),
		Currency:    "USD",
		Description: "Rent",
		ReferenceID: "pay-1",
		ReturnURL:   "http://app.test/ok",
		CancelURL:   "http://app.test/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.OrderID)
	assert.Equal(t, "https://www.paypal.test/checkoutnow?token=ORDER-1", order.ApprovalURL)

	assert.Equal(t, "CAPTURE", got.Intent)
	require.Len(t, got.PurchaseUnits, 1)
	assert.Equal(t, "1000.00", got.PurchaseUnits[0].Amount.Value)
	assert.Equal(t, "USD", got.PurchaseUnits[0].Amount.CurrencyCode)
	assert.Equal(t, "http://app.test/ok", got.ApplicationContext.ReturnURL)
}

func TestPayPalClient_CaptureOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := newPayPalServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/checkout/orders/ORDER-1/capture", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"COMPLETED",
				"payer":{"email_address":"payer@example.com"},
				"purchase_units":[{"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED","amount":{"currency_code":"USD","value":"1000.00"}}]}}]}`))
		})

		conf, err := newClient(srv).CaptureOrder(context.Background(), "ORDER-1")
		require.NoError(t, err)
		assert.Equal(t, "CAP-1", conf.CaptureID)
		assert.True(t, conf.CapturedAmount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, "payer@example.com", conf.PayerEmail)
	})

	t.Run("Already captured", func(t *testing.T) {
		srv := newPayPalServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_ALREADY_CAPTURED","description":"Order already captured."}]}`))
		})

		_, err := newClient(srv).CaptureOrder(context.Background(), "ORDER-1")
		assert.True(t, errors.Is(err, domain.ErrOrderAlreadyCaptured))
	})

	t.Run("Server error is retryable", func(t *testing.T) {
		srv := newPayPalServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"name":"INTERNAL_SERVER_ERROR","message":"try later"}`))
		})

		_, err := newClient(srv).CaptureOrder(context.Background(), "ORDER-1")
		assert.True(t, domain.IsRetryable(err))
	})

	t.Run("No captures", func(t *testing.T) {
		srv := newPayPalServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"ORDER-1","status":"COMPLETED","purchase_units":[]}`))
		})

		_, err := newClient(srv).CaptureOrder(context.Background(), "ORDER-1")
		assert.Equal(t, domain.CodeInfrastructure, domain.CodeOf(err))
	})
}
