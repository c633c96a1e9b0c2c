package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bucketToParam maps MCP bucket values to the REST API bucket parameter.
func bucketToParam(bucket string) string {
	switch bucket {
	case "1 day":
		return "day"
	case "1 month":
		return "month"
	default:
		return "week"
	}
}

// getJSON fetches path and decodes the response body into v. A 404 is
// reported as storage.ErrNotFound.
func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := c.getJSON(ctx, "/api/v1/program", nil, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (c *HTTPClient) GetPrescription(ctx context.Context, id int) (*models.Prescription, error) {
	var rx models.Prescription
	if err := c.getJSON(ctx, "/api/v1/prescriptions/"+strconv.Itoa(id), nil, &rx); err != nil {
		return nil, err
	}
	return &rx, nil
}

func (c *HTTPClient) LastPerformance(ctx context.Context, prescriptionID int, exclude uuid.UUID) ([]models.SetLog, error) {
	params := url.Values{}
	if exclude != uuid.Nil {
		params.Set("exclude_session", exclude.String())
	}
	var sets []models.SetLog
	if err := c.getJSON(ctx, "/api/v1/prescriptions/"+strconv.Itoa(prescriptionID)+"/last", params, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) ListBaselines(ctx context.Context, prescriptionID, phaseReps int) ([]models.Baseline, error) {
	params := url.Values{}
	params.Set("phase", strconv.Itoa(phaseReps))
	var baselines []models.Baseline
	if err := c.getJSON(ctx, "/api/v1/prescriptions/"+strconv.Itoa(prescriptionID)+"/baselines", params, &baselines); err != nil {
		return nil, err
	}
	return baselines, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	if err := c.getJSON(ctx, "/api/v1/sessions/"+id.String(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	var sessions []models.Session
	if err := c.getJSON(ctx, "/api/v1/sessions", timeParams(start, end), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	params := timeParams(start, end)
	params.Set("bucket", bucketToParam(bucket))
	var periods []storage.TrainingSummaryPeriod
	if err := c.getJSON(ctx, "/api/v1/summary", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}
