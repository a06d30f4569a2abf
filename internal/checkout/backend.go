package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// PrepareOrderRequest is the backend preparar-orden payload.
type PrepareOrderRequest struct {
	OrderNumber string          `json:"numeroOrden"`
	NationalID  string          `json:"cedula"`
	Amount      decimal.Decimal `json:"monto"`
	Currency    string          `json:"moneda"`
	FirstName   string          `json:"nombre,omitempty"`
	LastName    string          `json:"apellido,omitempty"`
	Email       string          `json:"email,omitempty"`
	Country     string          `json:"pais,omitempty"`
	StateNonce  string          `json:"stateNonce,omitempty"`
}

// PreparedOrder is the backend's answer: the result-lookup token and its
// expiry hint.
type PreparedOrder struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiraUtc"`
}

// Backend is the session's view of our own server: the SDK access-token
// exchange and order preparation.
type Backend interface {
	SDKToken(ctx context.Context) (string, error)
	PrepareOrder(ctx context.Context, req PrepareOrderRequest) (*PreparedOrder, error)
}

// HTTPBackend implements Backend over the server's HTTP API.
type HTTPBackend struct {
	base *url.URL
	http *http.Client
}

// NewHTTPBackend creates an HTTPBackend for the given server base URL.
func NewHTTPBackend(baseURL string, timeout time.Duration) (*HTTPBackend, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("checkout: invalid backend url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPBackend{base: base, http: &http.Client{Timeout: timeout}}, nil
}

// SDKToken fetches a short-lived SDK access token. Both access_token and
// token spellings of the response are accepted.
func (b *HTTPBackend) SDKToken(ctx context.Context) (string, error) {
	body, err := b.post(ctx, "/api/tilopay/sdk-token", nil)
	if err != nil {
		return "", err
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("checkout: parsing sdk token: %w", err)
	}
	if parsed.AccessToken != "" {
		return parsed.AccessToken, nil
	}
	return parsed.Token, nil
}

// PrepareOrder registers the order ahead of SDK invocation and returns the
// result-lookup token for the redirect URL.
func (b *HTTPBackend) PrepareOrder(ctx context.Context, req PrepareOrderRequest) (*PreparedOrder, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	body, err := b.post(ctx, "/api/transaccion/preparar-orden", payload)
	if err != nil {
		return nil, err
	}

	var prepared PreparedOrder
	if err := json.Unmarshal(body, &prepared); err != nil {
		return nil, fmt.Errorf("checkout: parsing prepared order: %w", err)
	}
	return &prepared, nil
}

func (b *HTTPBackend) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	endpoint := b.base.JoinPath(path).String()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout: %s returned %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}
