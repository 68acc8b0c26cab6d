// Package payment provides a client for the Stripe payment provider.
// Only payment-intent creation is used; the card flow itself happens
// client-side against the returned client secret.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.stripe.com"

	// Currency and payment method are fixed platform-wide.
	currency          = "usd"
	paymentMethodType = "card"

	clientTimeout         = 30 * time.Second
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
)

// ErrUpstream indicates the payment provider rejected or failed the call.
var ErrUpstream = errors.New("payment provider error")

// Client encapsulates HTTP interaction with the payment provider.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// Intent is the subset of the provider's payment-intent object the
// platform cares about.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// NewClient creates a payment client authenticated with the given
// secret key.
func NewClient(secretKey string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// NewClientWithBaseURL creates a client pointed at a non-default
// provider address. Used in tests.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	c := NewClient(secretKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// CreateIntent creates a payment intent for the given amount in major
// currency units. The provider expects minor units, so the amount is
// scaled by 100 on the wire.
func (c *Client) CreateIntent(ctx context.Context, amount int64) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount*100, 10))
	form.Set("currency", currency)
	form.Set("payment_method_types[]", paymentMethodType)

	endpoint := c.baseURL + "/v1/payment_intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, decodeError(resp))
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: response missing client secret", ErrUpstream)
	}

	return &intent, nil
}

// errorResponse mirrors the provider's error envelope.
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError extracts a readable message from a provider error body.
func decodeError(resp *http.Response) string {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Error.Message)
	}
	return fmt.Sprintf("unexpected status: %d", resp.StatusCode)
}
