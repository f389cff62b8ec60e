// Package rotaclient is the operator-side implementation of the rota
// persistence boundary, speaking JSON over HTTP to the rota API. It maps
// transport-level failures onto the boundary error taxonomy so callers can
// branch on error kind instead of status codes.
package rotaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/db"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to the rota API server
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a rota API client for the given base URL
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
}

// errorBody is the API's JSON error envelope
type errorBody struct {
	Error      string                `json:"error"`
	Resource   string                `json:"resource,omitempty"`
	ID         string                `json:"id,omitempty"`
	Violations []model.RuleViolation `json:"violations,omitempty"`
	Warnings   []model.RuleViolation `json:"warnings,omitempty"`
}

// doJSON performs one request. A failure to reach the server or read the
// response becomes a TransportError: the true outcome is unknown and the
// caller must reload rather than guess.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &db.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &db.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		return nil
	}

	var apiErr errorBody
	if err := json.Unmarshal(data, &apiErr); err != nil {
		apiErr = errorBody{Error: string(data)}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &db.NotFoundError{Resource: apiErr.Resource, ID: apiErr.ID}
	case http.StatusUnprocessableEntity:
		return &db.ValidationError{Violations: apiErr.Violations, Warnings: apiErr.Warnings}
	case http.StatusGatewayTimeout, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &db.TransportError{Op: op, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)}
	default:
		return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, apiErr.Error)
	}
}

// GetWeeklySchedule fetches the schedule for the week containing weekStart
func (c *Client) GetWeeklySchedule(ctx context.Context, packageID string, weekStart model.Date) (*model.WeeklySchedule, error) {
	var schedule model.WeeklySchedule
	path := fmt.Sprintf("/api/v1/packages/%s/weekly-schedule?weekStart=%s", packageID, weekStart)
	if err := c.doJSON(ctx, "getWeeklySchedule", http.MethodGet, path, nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ValidateEntry asks the server to rule-check a candidate without committing
func (c *Client) ValidateEntry(ctx context.Context, candidate model.ShiftEntry) (*model.ValidationResult, error) {
	var result model.ValidationResult
	if err := c.doJSON(ctx, "validateEntry", http.MethodPost, "/api/v1/rota-entries/validate", candidate, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateEntry commits a candidate placement
func (c *Client) CreateEntry(ctx context.Context, candidate model.ShiftEntry) (*db.CreateEntryResult, error) {
	var result db.CreateEntryResult
	if err := c.doJSON(ctx, "createEntry", http.MethodPost, "/api/v1/rota-entries", candidate, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ConfirmEntry flips an entry's confirmation flag
func (c *Client) ConfirmEntry(ctx context.Context, entryID string) (*model.ShiftEntry, error) {
	var entry model.ShiftEntry
	path := fmt.Sprintf("/api/v1/rota-entries/%s/confirm", entryID)
	if err := c.doJSON(ctx, "confirmEntry", http.MethodPatch, path, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes one entry
func (c *Client) DeleteEntry(ctx context.Context, entryID string) error {
	path := fmt.Sprintf("/api/v1/rota-entries/%s", entryID)
	return c.doJSON(ctx, "deleteEntry", http.MethodDelete, path, nil, nil)
}

// batchDeleteRequest is the wire shape for batch deletion
type batchDeleteRequest struct {
	EntryIDs []string `json:"entryIds"`
}

// BatchDeleteEntries deletes several entries and reports per-id outcomes
func (c *Client) BatchDeleteEntries(ctx context.Context, entryIDs []string) (*db.BatchDeleteResult, error) {
	var result db.BatchDeleteResult
	if err := c.doJSON(ctx, "batchDeleteEntries", http.MethodPost, "/api/v1/rota-entries/batch-delete",
		batchDeleteRequest{EntryIDs: entryIDs}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPackage fetches one care package
func (c *Client) GetPackage(ctx context.Context, packageID string) (*model.CarePackage, error) {
	var pkg model.CarePackage
	if err := c.doJSON(ctx, "getPackage", http.MethodGet, "/api/v1/packages/"+packageID, nil, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ListPackages fetches all care packages
func (c *Client) ListPackages(ctx context.Context) ([]model.CarePackage, error) {
	var packages []model.CarePackage
	if err := c.doJSON(ctx, "listPackages", http.MethodGet, "/api/v1/packages", nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}
