package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/me/schedsim/pkg/model"
)

// Client is an HTTP client for the SchedSim API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a SchedSim API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

// maxResponseBytes bounds the size of a response body.
const maxResponseBytes = 16 << 20

// apiResponse is the parsed envelope.
type apiResponse struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Error     *model.APIError `json:"error"`
}

// do performs an HTTP request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		c.Logger.Debug("HTTP request body", "body", string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Logger.Debug("HTTP request", "method", method, "url", url)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return c.decode(resp, out)
}

// decode unwraps the response envelope. API errors are returned as
// *model.APIError so callers can inspect the code.
func (c *Client) decode(resp *http.Response, out any) error {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.Logger.Debug("HTTP response",
		"status", resp.StatusCode,
		"request_id", resp.Header.Get("X-Request-ID"),
		"bytes", len(respBody),
	)

	var env apiResponse
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("parse response (status %d): %w\nbody: %s", resp.StatusCode, err, string(respBody))
	}
	if env.Status == "error" && env.Error != nil {
		return env.Error
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parse data: %w", err)
	}
	return nil
}

// AddProcess registers p and returns the full process list.
func (c *Client) AddProcess(ctx context.Context, p model.Process) ([]model.Process, error) {
	var resp model.AddProcessResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/processes", p, &resp); err != nil {
		return nil, err
	}
	return resp.Processes, nil
}

// ListProcesses returns the registered processes in insertion order.
func (c *Client) ListProcesses(ctx context.Context) ([]model.Process, error) {
	processes := []model.Process{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/processes", nil, &processes); err != nil {
		return nil, err
	}
	return processes, nil
}

// Reset clears the registry.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var resp model.ResetResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/processes", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Run simulates req on the server.
func (c *Client) Run(ctx context.Context, req model.RunRequest) (*model.Result, error) {
	var res model.Result
	if err := c.do(ctx, http.MethodPost, "/api/v1/run", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Algorithms lists the algorithms the server supports.
func (c *Client) Algorithms(ctx context.Context) ([]model.AlgorithmInfo, error) {
	var algs []model.AlgorithmInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/algorithms", nil, &algs); err != nil {
		return nil, err
	}
	return algs, nil
}
