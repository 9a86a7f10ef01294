// Package customerdirectory resolves customer profiles from the customer service over HTTP.
package customerdirectory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bancario/account-service/internal/config"
	"github.com/bancario/account-service/internal/domain/customer"
	"github.com/bancario/account-service/internal/domain/shared"
)

// Client implements customer.Directory against GET {base}/customers/{id}
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(logger *slog.Logger, cfg *config.CustomerDirectoryConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger,
	}
}

// GetCustomerByID returns customer.ErrCustomerNotFound on 404. Any other
// non-2xx status or transport failure is returned as a plain error.
func (c *Client) GetCustomerByID(ctx context.Context, id string) (*customer.Profile, error) {
	endpoint := fmt.Sprintf("%s/customers/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build customer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if correlationID := shared.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(shared.CorrelationIDHeader, correlationID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Customer service request failed",
			"customer_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to call customer service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, customer.ErrCustomerNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Customer service returned an error",
			"customer_id", id,
			"status", resp.StatusCode,
			"body", string(body))
		return nil, fmt.Errorf("customer service returned status %d", resp.StatusCode)
	}

	var profile customer.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode customer profile: %w", err)
	}
	if profile.ID == "" {
		profile.ID = id
	}

	return &profile, nil
}
