// Package tilopay talks to the upstream Tilopay gateway API. The embedded
// browser SDK is vendor-controlled; the backend only exchanges its stored
// API credentials for the short-lived SDK access token the browser needs.
package tilopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the gateway credentials and the token endpoint.
type Config struct {
	APIUser     string
	APIPassword string
	APIKey      string
	// SDKTokenURL is the loginSdk endpoint, e.g.
	// https://app.tilopay.com/api/v1/loginSdk
	SDKTokenURL string
	Timeout     time.Duration
}

// ErrMissingCredentials is returned when any of ApiUser/ApiPassword/ApiKey
// is absent from configuration.
var ErrMissingCredentials = errors.New("tilopay: missing ApiUser/ApiPassword/ApiKey")

// ErrMissingTokenURL is returned when the SdkTokenUrl is not configured.
var ErrMissingTokenURL = errors.New("tilopay: missing SdkTokenUrl")

// Client exchanges credentials with the gateway over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// SDKTokenResult carries the upstream response. StatusCode and Body are the
// verbatim upstream values so the handler can proxy them for diagnostics;
// AccessToken is parsed out only on success.
type SDKTokenResult struct {
	StatusCode  int
	Body        []byte
	AccessToken string
}

// SDKToken exchanges the configured credentials for a short-lived SDK
// access token. A non-2xx upstream status is not an error here; it is
// reported through StatusCode/Body for the caller to proxy.
func (c *Client) SDKToken(ctx context.Context) (*SDKTokenResult, error) {
	if c.cfg.APIUser == "" || c.cfg.APIPassword == "" || c.cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	if c.cfg.SDKTokenURL == "" {
		return nil, ErrMissingTokenURL
	}

	payload, err := json.Marshal(map[string]string{
		"apiuser":  c.cfg.APIUser,
		"password": c.cfg.APIPassword,
		"key":      c.cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SDKTokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tilopay: sdk token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tilopay: reading sdk token response: %w", err)
	}

	result := &SDKTokenResult{StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.AccessToken = parseAccessToken(body)
	}
	return result, nil
}

// parseAccessToken accepts either of the field spellings the gateway has
// used: access_token or token.
func parseAccessToken(body []byte) string {
	var parsed struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.AccessToken != "" {
		return parsed.AccessToken
	}
	return parsed.Token
}

// ConfigStatus reports OK/MISSING per configuration key, for the
// diagnostics endpoint. The token URL is echoed when present.
func (c *Client) ConfigStatus() map[string]string {
	status := func(v string) string {
		if v == "" {
			return "MISSING"
		}
		return "OK"
	}
	urlStatus := c.cfg.SDKTokenURL
	if urlStatus == "" {
		urlStatus = "MISSING"
	}
	return map[string]string{
		"apiUser":     status(c.cfg.APIUser),
		"apiPassword": status(c.cfg.APIPassword),
		"apiKey":      status(c.cfg.APIKey),
		"sdkTokenUrl": urlStatus,
	}
}
