package netclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
	"github.com/nerrad567/nodex-core/internal/registry"
)

// RegisterResult is the server's response to a successful registration.
type RegisterResult struct {
	DeviceID     string                `json:"deviceId"`
	Message      string                `json:"message"`
	NetworkStats registry.NetworkStats `json:"networkStats"`
}

// lifecycleResult is the server's response to unregister/reactivate.
type lifecycleResult struct {
	Message      string                `json:"message"`
	NetworkStats registry.NetworkStats `json:"networkStats"`
}

// apiError mirrors the server's structured error body.
type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegistrationClient calls the server's registration API.
//
// All methods honour the context and the configured request timeout,
// whichever is shorter.
type RegistrationClient struct {
	baseURL string
	client  *http.Client
}

// NewRegistrationClient creates a registration client from config.
func NewRegistrationClient(cfg config.ClientConfig) *RegistrationClient {
	return &RegistrationClient{
		baseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.GetRequestTimeout(),
		},
	}
}

// Register creates a device of the given type on the server.
func (c *RegistrationClient) Register(ctx context.Context, deviceType string) (*RegisterResult, error) {
	var result RegisterResult
	err := c.post(ctx, "/devices/register", map[string]string{"deviceType": deviceType}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Unregister removes a device on the server. The device is tombstoned
// and can be restored with Reactivate.
func (c *RegistrationClient) Unregister(ctx context.Context, deviceID string) (registry.NetworkStats, error) {
	var result lifecycleResult
	err := c.post(ctx, "/devices/unregister", map[string]string{"deviceId": deviceID}, &result)
	if err != nil {
		return registry.NetworkStats{}, err
	}
	return result.NetworkStats, nil
}

// Reactivate restores a previously unregistered device on the server.
func (c *RegistrationClient) Reactivate(ctx context.Context, deviceID string) (registry.NetworkStats, error) {
	var result lifecycleResult
	err := c.post(ctx, "/devices/reactivate", map[string]string{"deviceId": deviceID}, &result)
	if err != nil {
		return registry.NetworkStats{}, err
	}
	return result.NetworkStats, nil
}

// post sends a JSON request and decodes the response into out.
// Non-2xx responses are turned into errors wrapping ErrRequestFailed,
// carrying the server's error code and message when available.
func (c *RegistrationClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-side close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%w: %s (%s)", ErrRequestFailed, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
