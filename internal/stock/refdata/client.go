// Package refdata provides the read-only client for the external reference
// data service. The stock service resolves facilities, programs, approved
// orderables and lots through it, batched once per stock event.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/stockflow-backend/pkg/logger"
)

// Client is the reference data read interface consumed by the stock event
// context builder. Implementations must treat all calls as read-only.
type Client interface {
	// Facility returns the facility with the given id, or nil when unknown.
	Facility(ctx context.Context, id uuid.UUID) (*Facility, error)
	// Program returns the program with the given id, or nil when unknown.
	Program(ctx context.Context, id uuid.UUID) (*Program, error)
	// ApprovedOrderables returns every orderable approved for the
	// facility and program pair.
	ApprovedOrderables(ctx context.Context, facilityID, programID uuid.UUID) ([]*Orderable, error)
	// LotsByIDs batch-fetches lots; unknown ids are simply absent from
	// the result.
	LotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Lot, error)
}

// HTTPClient talks to the reference data service over its JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

// NewHTTPClient creates a reference data client with a per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithComponent("refdata"),
	}
}

// Facility fetches a single facility. A 404 maps to (nil, nil).
func (c *HTTPClient) Facility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	var facility Facility
	found, err := c.getJSON(ctx, "/api/v1/facilities/"+id.String(), nil, &facility)
	if err != nil || !found {
		return nil, err
	}
	return &facility, nil
}

// Program fetches a single program. A 404 maps to (nil, nil).
func (c *HTTPClient) Program(ctx context.Context, id uuid.UUID) (*Program, error) {
	var program Program
	found, err := c.getJSON(ctx, "/api/v1/programs/"+id.String(), nil, &program)
	if err != nil || !found {
		return nil, err
	}
	return &program, nil
}

// ApprovedOrderables fetches all orderables approved for a facility/program.
func (c *HTTPClient) ApprovedOrderables(ctx context.Context, facilityID, programID uuid.UUID) ([]*Orderable, error) {
	query := url.Values{}
	query.Set("facility_id", facilityID.String())
	query.Set("program_id", programID.String())

	var orderables []*Orderable
	if _, err := c.getJSON(ctx, "/api/v1/orderables/approved", query, &orderables); err != nil {
		return nil, err
	}
	return orderables, nil
}

// LotsByIDs batch-fetches lots by id.
func (c *HTTPClient) LotsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Lot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := url.Values{}
	query.Set("id", strings.Join(raw, ","))

	var lots []*Lot
	if _, err := c.getJSON(ctx, "/api/v1/lots", query, &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// getJSON performs a GET and decodes the enveloped JSON payload. It returns
// false without error on a 404 so callers can distinguish "absent" from
// "failed".
func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) (bool, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build reference data request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("reference data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("reference data request %s returned status %d", path, resp.StatusCode)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return false, fmt.Errorf("failed to decode reference data response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return false, fmt.Errorf("failed to decode reference data payload: %w", err)
	}
	return true, nil
}
