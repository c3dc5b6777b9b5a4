package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors for the failure categories callers branch on. Anything
// else coming out of the client is a wrapped transport or decode error.
var (
	// ErrUnauthorized means the service rejected the configured credentials.
	ErrUnauthorized = errors.New("reasoner: credentials rejected")
	// ErrUnavailable covers non-2xx statuses that are not auth or rate-limit
	// failures. The upstream body is logged, never returned to callers.
	ErrUnavailable = errors.New("reasoner: service unavailable")
)

// RateLimitError carries the upstream's own message so it can be passed
// through to the caller verbatim.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "reasoner: rate limited"
	}
	return e.Message
}

// Finding is one clinical finding on the wire. ChoiceID is the presence
// state: present, absent, or unknown.
type Finding struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ChoiceID string `json:"choice_id"`
}

// Condition is one ranked diagnosis candidate on the wire.
type Condition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// TriageResult is the urgency classification returned by the triage
// capability. Level is passed through as-is; the domain layer owns the
// mapping to its own enum.
type TriageResult struct {
	Level     string `json:"triage_level"`
	RootCause string `json:"root_cause,omitempty"`
}

// Client is the surface the orchestration pipeline depends on, so tests can
// substitute a stub without a live reasoning service.
type Client interface {
	Parse(ctx context.Context, text string, age int, sex string) ([]Finding, error)
	Diagnose(ctx context.Context, evidence []Finding, age int, sex string, enableTriage bool) ([]Condition, error)
	Triage(ctx context.Context, evidence []Finding, age int, sex string) (TriageResult, error)
	Ping(ctx context.Context) error
}

// HTTPClient talks to the remote clinical reasoning service over HTTP.
// Every request carries the two static credential headers the service
// authenticates with.
type HTTPClient struct {
	baseURL string
	appID   string
	appKey  string
	httpc   *http.Client
	logger  zerolog.Logger
}

func NewHTTPClient(baseURL, appID, appKey string, timeout time.Duration, logger zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		appKey:  appKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type ageValue struct {
	Value int `json:"value"`
}

type parseRequest struct {
	Text string   `json:"text"`
	Age  ageValue `json:"age"`
	Sex  string   `json:"sex"`
}

type parseResponse struct {
	Mentions []Finding `json:"mentions"`
}

// Parse runs evidence extraction over free text.
func (c *HTTPClient) Parse(ctx context.Context, text string, age int, sex string) ([]Finding, error) {
	var out parseResponse
	req := parseRequest{Text: text, Age: ageValue{Value: age}, Sex: sex}
	if err := c.post(ctx, "/parse", req, &out); err != nil {
		return nil, err
	}
	return out.Mentions, nil
}

type evidenceItem struct {
	ID       string `json:"id"`
	ChoiceID string `json:"choice_id"`
}

type diagnosisRequest struct {
	Sex          string         `json:"sex"`
	Age          ageValue       `json:"age"`
	Evidence     []evidenceItem `json:"evidence"`
	EnableTriage bool           `json:"enable_triage,omitempty"`
}

type diagnosisResponse struct {
	Conditions []Condition `json:"conditions"`
}

// Diagnose ranks candidate conditions for the given evidence set.
func (c *HTTPClient) Diagnose(ctx context.Context, evidence []Finding, age int, sex string, enableTriage bool) ([]Condition, error) {
	var out diagnosisResponse
	req := diagnosisRequest{
		Sex:          sex,
		Age:          ageValue{Value: age},
		Evidence:     toEvidenceItems(evidence),
		EnableTriage: enableTriage,
	}
	if err := c.post(ctx, "/diagnosis", req, &out); err != nil {
		return nil, err
	}
	return out.Conditions, nil
}

// Triage classifies the urgency of the given evidence set.
func (c *HTTPClient) Triage(ctx context.Context, evidence []Finding, age int, sex string) (TriageResult, error) {
	var out TriageResult
	req := diagnosisRequest{
		Sex:      sex,
		Age:      ageValue{Value: age},
		Evidence: toEvidenceItems(evidence),
	}
	if err := c.post(ctx, "/triage", req, &out); err != nil {
		return TriageResult{}, err
	}
	return out, nil
}

// Ping verifies the service is reachable and the credentials are accepted.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("reasoner: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("reasoner: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	return c.checkStatus(resp)
}

func toEvidenceItems(findings []Finding) []evidenceItem {
	items := make([]evidenceItem, 0, len(findings))
	for _, f := range findings {
		items = append(items, evidenceItem{ID: f.ID, ChoiceID: f.ChoiceID})
	}
	return items
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("reasoner: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("reasoner: build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("reasoner: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		io.Copy(io.Discard, resp.Body)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("reasoner: decode response: %w", err)
	}
	return nil
}

// checkStatus maps upstream statuses onto the client's error taxonomy.
// Rate-limit bodies are retained so the caller can see the upstream's own
// message; everything else is captured for logs only.
func (c *HTTPClient) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Error().Int("status", resp.StatusCode).Msg("reasoner rejected credentials")
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		msg := readBodyMessage(resp.Body)
		c.logger.Warn().Str("upstream_message", msg).Msg("reasoner rate limited")
		return &RateLimitError{Message: msg}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("reasoner request failed")
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}

// readBodyMessage pulls a human-readable message out of an error body,
// accepting either {"message": "..."} or plain text.
func readBodyMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var wrapped struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Message != "" {
		return wrapped.Message
	}
	return strings.TrimSpace(string(body))
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("App-Id", c.appID)
	req.Header.Set("App-Key", c.appKey)
	req.Header.Set("Accept", "application/json")
}
