// Package registry looks up authoritative corporate-structure data from a
// filings registry (e.g. SEC EDGAR style APIs).
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/httpclient"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// Subsidiary is one entry from a subsidiary exhibit
type Subsidiary struct {
	Name         string   `json:"name"`
	Jurisdiction string   `json:"jurisdiction"`
	OwnershipPct *float64 `json:"ownership_pct,omitempty"`
}

// Client fetches registry data through the run's HTTP client
type Client struct {
	client  *httpclient.Client
	logger  *zap.Logger
	baseURL string
}

// NewClient creates a registry client
func NewClient(client *httpclient.Client, logger *zap.Logger, baseURL string) *Client {
	return &Client{
		client:  client,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetSubsidiaries returns the subsidiary list filed under a registry ID.
// A missing or restricted filing (404/403) is an ordinary data-not-found
// condition and returns an empty list; transient failures are retried by the
// HTTP client before surfacing here.
func (c *Client) GetSubsidiaries(ctx context.Context, registryID string) ([]Subsidiary, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Client.GetSubsidiaries")
	defer span.End()

	if registryID == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/api/registry/%s/subsidiaries", c.baseURL, registryID)
	resp, err := c.client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("registry lookup failed: %w", err)
	}
	if resp.IsNotFound() {
		c.logger.Debug("no subsidiary filing for registry id", zap.String("registry_id", registryID))
		return nil, nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("registry lookup returned status %d", resp.StatusCode)
	}

	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("registry response was not JSON: %w", err)
	}

	items, err := jmespath.Search("subsidiaries", body)
	if err != nil || items == nil {
		// Some registries nest the exhibit one level down
		items, _ = jmespath.Search("filing.subsidiaries", body)
	}

	rows, ok := items.([]any)
	if !ok {
		return nil, nil
	}

	subsidiaries := make([]Subsidiary, 0, len(rows))
	for _, row := range rows {
		fields, ok := row.(map[string]any)
		if !ok {
			continue
		}
		sub := Subsidiary{}
		if name, ok := fields["name"].(string); ok {
			sub.Name = strings.TrimSpace(name)
		}
		if sub.Name == "" {
			continue
		}
		if jurisdiction, ok := fields["jurisdiction"].(string); ok {
			sub.Jurisdiction = strings.TrimSpace(jurisdiction)
		}
		if pct, ok := fields["ownership_pct"].(float64); ok {
			sub.OwnershipPct = &pct
		}
		subsidiaries = append(subsidiaries, sub)
	}

	return subsidiaries, nil
}

// GetLatestFilingText returns the plain text of the most recent filing of the
// given form type, or "" when the registry has none.
func (c *Client) GetLatestFilingText(ctx context.Context, registryID, formType string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Client.GetLatestFilingText")
	defer span.End()

	if registryID == "" {
		return "", nil
	}

	url := fmt.Sprintf("%s/api/registry/%s/filings/latest?form=%s", c.baseURL, registryID, formType)
	resp, err := c.client.Get(ctx, url, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", fmt.Errorf("filing fetch failed: %w", err)
	}
	if resp.IsNotFound() {
		return "", nil
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("filing fetch returned status %d", resp.StatusCode)
	}

	return string(resp.Body), nil
}
