package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("key", "secret", "http://unused")

	good := sign("secret", "order_abc", "pay_123")
	require.True(t, c.VerifySignature("order_abc", "pay_123", good))

	require.False(t, c.VerifySignature("order_abc", "pay_123", good+"00"))
	require.False(t, c.VerifySignature("order_abc", "pay_999", good))
	require.False(t, c.VerifySignature("order_abc", "pay_123", sign("wrong", "order_abc", "pay_123")))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(2500), body["amount"])
		require.Equal(t, "INR", body["currency"])
		require.Equal(t, "42", body["receipt"])

		json.NewEncoder(w).Encode(Order{
			ID:       "order_live",
			Amount:   2500,
			Currency: "INR",
			Receipt:  "42",
			Status:   "created",
		})
	}))
	defer srv.Close()

	c := NewClient("key", "secret", srv.URL)

	ord, err := c.CreateOrder(context.Background(), 2500, "42")
	require.NoError(t, err)
	require.Equal(t, "order_live", ord.ID)
	require.Equal(t, int64(2500), ord.Amount)
	require.Equal(t, "42", ord.Receipt)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"BAD_REQUEST_ERROR"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("key", "secret", srv.URL)

	_, err := c.CreateOrder(context.Background(), 100, "1")
	require.Error(t, err)
}
