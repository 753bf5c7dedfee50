package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Order is the gateway-side payment session created for a checkout.
// Receipt carries our order id back through the confirmation flow.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client talks to a Razorpay-compatible orders API with basic auth and
// verifies the HMAC the gateway signs confirmations with.
type Client struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(keyID, keySecret, baseURL string) *Client {
	return &Client{
		KeyID:      keyID,
		KeySecret:  keySecret,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateOrder opens a payment session for amount (smallest currency
// unit) keyed by receipt. The returned session id is what the client
// side completes the payment against.
func (c *Client) CreateOrder(ctx context.Context, amount int64, receipt string) (*Order, error) {
	payload := map[string]any{
		"amount":   amount,
		"currency": "INR",
		"receipt":  receipt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payment: marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("payment: build request: %w", err)
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: create order: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("payment: create order: %s: %s", res.Status, body)
	}

	var order Order
	if err := json.NewDecoder(res.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("payment: decode order: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the gateway's HMAC-SHA256 over
// "<gateway order id>|<payment id>" against the shared key secret.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
