package gateway

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
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/config"
	pkgerrors "github.com/nearbuy-labs/nearbuy-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.razorpay.com/v1"
	responseBodyReadLimit int64 = 2048
)

var paiseFactor = decimal.NewFromInt(100)

// Client wraps the Razorpay Orders API used to collect checkout payments.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured gateway base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the payment gateway client from config.
func NewClient(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway credentials are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       defaultBaseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// OrderIntent is a gateway order awaiting payment on the client side.
type OrderIntent struct {
	GatewayOrderID string
	Amount         decimal.Decimal
	Currency       string
	Receipt        string
	KeyID          string
}

// CreateOrderIntent registers an order with the gateway. Amount is in currency
// units (rupees); the gateway API itself works in minor units (paise).
func (c *Client) CreateOrderIntent(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*OrderIntent, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway client not configured")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	payload, err := json.Marshal(map[string]any{
		"amount":   amount.Mul(paiseFactor).IntPart(),
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "marshal gateway order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("orders"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "build gateway order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "execute gateway order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "gateway order request failed")
	}

	var apiResp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "decode gateway order response")
	}
	if apiResp.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentGateway, "gateway order response missing id")
	}

	return &OrderIntent{
		GatewayOrderID: apiResp.ID,
		Amount:         decimal.NewFromInt(apiResp.Amount).Div(paiseFactor),
		Currency:       apiResp.Currency,
		Receipt:        apiResp.Receipt,
		KeyID:          c.keyID,
	}, nil
}

// VerifyPaymentSignature checks the checkout callback signature
// (HMAC-SHA256 of "<order_id>|<payment_id>" under the key secret).
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if c == nil || gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	return verifyHMAC(c.keySecret, gatewayOrderID+"|"+gatewayPaymentID, signature)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the raw body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c == nil || c.webhookSecret == "" || signature == "" {
		return false
	}
	return verifyHMAC(c.webhookSecret, string(body), signature)
}

func verifyHMAC(secret, message, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
