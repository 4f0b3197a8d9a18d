package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/entrhq/surf/pkg/retry"
)

const (
	// DefaultBaseURL is the default solving service endpoint.
	DefaultBaseURL = "https://api.capsolver.com"

	// DefaultPollInterval is the fixed wait between task status queries.
	DefaultPollInterval = 3 * time.Second

	// DefaultMaxPollAttempts bounds the polling loop. Combined with the
	// default interval this allows roughly a minute for the service to
	// produce a solution.
	DefaultMaxPollAttempts = 20

	submitPath = "/createTask"
	pollPath   = "/getTaskResult"
)

// Client submits solving tasks and polls them to completion.
//
// Polling is a fixed-interval bounded wait: up to maxPollAttempts status
// queries spaced pollInterval apart. It is deliberately distinct from the
// exponential-backoff retry executor, which the client only uses to absorb
// transient network failures on individual poll round-trips.
type Client struct {
	httpClient      *http.Client
	apiKey          string
	baseURL         string
	pollInterval    time.Duration
	maxPollAttempts int

	// sleep is a test seam; nil uses a context-aware timer.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different service endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPollInterval sets the wait between status queries.
func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// WithMaxPollAttempts sets the polling budget.
func WithMaxPollAttempts(attempts int) ClientOption {
	return func(c *Client) {
		c.maxPollAttempts = attempts
	}
}

// NewClient creates a solving service client.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("captcha client: api key is required")
	}

	c := &Client{
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		apiKey:          apiKey,
		baseURL:         DefaultBaseURL,
		pollInterval:    DefaultPollInterval,
		maxPollAttempts: DefaultMaxPollAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.pollInterval <= 0 {
		return nil, fmt.Errorf("captcha client: poll interval must be positive")
	}
	if c.maxPollAttempts < 1 {
		return nil, fmt.Errorf("captcha client: max poll attempts must be >= 1")
	}
	return c, nil
}

// submitRequest/submitResponse and pollRequest/pollResponse mirror the
// service wire format.
type submitRequest struct {
	ClientKey string   `json:"clientKey"`
	Task      TaskSpec `json:"task"`
}

type submitResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           string `json:"taskId"`
}

type pollRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    string `json:"taskId"`
}

type pollSolution struct {
	Token              string `json:"token"`
	GRecaptchaResponse string `json:"gRecaptchaResponse"`
}

type pollResponse struct {
	ErrorID          int           `json:"errorId"`
	ErrorDescription string        `json:"errorDescription"`
	Status           string        `json:"status"`
	Solution         *pollSolution `json:"solution"`
}

// Submit creates a solving task and returns its opaque id. A submission is
// a single call: service errors and malformed responses surface immediately
// and are never retried here. Callers that want resilience wrap Submit with
// the retry executor themselves.
func (c *Client) Submit(ctx context.Context, spec TaskSpec) (string, error) {
	var resp submitResponse
	if err := c.post(ctx, submitPath, submitRequest{ClientKey: c.apiKey, Task: spec}, &resp); err != nil {
		return "", err
	}

	if resp.ErrorID != 0 {
		return "", &ServiceError{Code: resp.ErrorID, Message: resp.ErrorDescription}
	}
	if resp.TaskID == "" {
		return "", &ServiceError{Message: "submit response missing taskId"}
	}
	return resp.TaskID, nil
}

// Poll queries the task status until it leaves pending, the polling budget
// runs out, or ctx is cancelled. A failed status surfaces a ServiceError
// immediately; polling never retries a failed task.
func (c *Client) Poll(ctx context.Context, taskID string) (string, error) {
	task := &Task{ID: taskID, Status: StatusPending}

	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		if err := c.queryStatus(ctx, task); err != nil {
			return "", err
		}

		switch task.Status {
		case StatusReady:
			return task.Solution, nil
		case StatusFailed:
			return "", &ServiceError{Message: fmt.Sprintf("task %s failed", task.ID)}
		}

		if attempt < c.maxPollAttempts {
			if err := c.wait(ctx); err != nil {
				return "", err
			}
		}
	}

	return "", &TimeoutError{TaskID: taskID, Attempts: c.maxPollAttempts}
}

// Solve submits the task and polls it to completion, returning the solved
// token.
func (c *Client) Solve(ctx context.Context, spec TaskSpec) (string, error) {
	taskID, err := c.Submit(ctx, spec)
	if err != nil {
		return "", err
	}
	return c.Poll(ctx, taskID)
}

// queryStatus performs one status round-trip and applies the response to
// the task. The HTTP call itself is wrapped by the retry executor so a
// transient network blip does not consume a polling slot.
func (c *Client) queryStatus(ctx context.Context, task *Task) error {
	resp, err := retry.Do(ctx, pollNetworkConfig(), "captcha status query", func(ctx context.Context) (pollResponse, error) {
		var r pollResponse
		if postErr := c.post(ctx, pollPath, pollRequest{ClientKey: c.apiKey, TaskID: task.ID}, &r); postErr != nil {
			return pollResponse{}, postErr
		}
		return r, nil
	})
	if err != nil {
		return err
	}

	if resp.ErrorID != 0 {
		return &ServiceError{Code: resp.ErrorID, Message: resp.ErrorDescription}
	}

	switch resp.Status {
	case "ready":
		task.Status = StatusReady
		if resp.Solution != nil {
			if resp.Solution.Token != "" {
				task.Solution = resp.Solution.Token
			} else {
				task.Solution = resp.Solution.GRecaptchaResponse
			}
		}
		if task.Solution == "" {
			return &ServiceError{Message: fmt.Sprintf("task %s ready but solution missing", task.ID)}
		}
	case "failed":
		task.Status = StatusFailed
	case "pending", "processing", "idle":
		task.Status = StatusPending
	default:
		return &ServiceError{Message: fmt.Sprintf("unknown task status %q", resp.Status)}
	}
	return nil
}

// pollNetworkConfig absorbs transient transport failures on a single status
// query. Small on purpose: the outer polling loop owns the real wait budget.
func pollNetworkConfig() retry.Config {
	return retry.Config{
		MaxAttempts:       2,
		InitialDelay:      250 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffFactor:     2,
		TimeoutPerAttempt: 10 * time.Second,
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("captcha request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("captcha request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("captcha request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("captcha response read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &ServiceError{Code: resp.StatusCode, Message: fmt.Sprintf("unexpected HTTP status %s", resp.Status)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ServiceError{Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.sleep != nil {
		return c.sleep(ctx, c.pollInterval)
	}

	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
