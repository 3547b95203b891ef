// Package huggingface provides adapters for the Hugging Face Inference API:
// extractive question answering and token classification. The same Client
// backs the feature-extraction embedding adapter.
package huggingface

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

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api-inference.huggingface.co/models"
	DefaultHubURL  = "https://huggingface.co/api/models"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration shared by all Hugging Face adapters.
type Config struct {
	// Token is the Hugging Face access token. Anonymous requests are
	// accepted at a low rate.
	Token string

	// BaseURL is the inference endpoint prefix (default: DefaultBaseURL).
	BaseURL string

	// HubURL is the model metadata endpoint prefix used by Ping.
	HubURL string

	// Model is the model repository id.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Client sends inference requests for one model.
type Client struct {
	http    *http.Client
	baseURL string
	hubURL  string
	token   string
	model   string
}

// errorResponse is the API error format, e.g. while a model is loading.
type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewClient creates a new inference client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("huggingface: model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HubURL == "" {
		cfg.HubURL = DefaultHubURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		hubURL:  strings.TrimSuffix(cfg.HubURL, "/"),
		token:   cfg.Token,
		model:   cfg.Model,
	}, nil
}

// Model returns the model repository id.
func (c *Client) Model() string {
	return c.model
}

// Infer posts payload to the model endpoint and decodes the result into out.
func (c *Client) Infer(ctx context.Context, payload, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/"+c.model,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorise(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Ping checks the model exists on the hub without running inference.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.hubURL+"/"+c.model, http.NoBody)
	if err != nil {
		return fmt.Errorf("huggingface: failed to create ping request: %w", err)
	}
	c.authorise(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("huggingface: ping failed: %w", statusError(resp.StatusCode, body))
	}
	return nil
}

func (c *Client) authorise(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// statusError turns a non-200 response into an error, mapping 429 onto
// domain.ErrRateLimited.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
		if apiErr.EstimatedTime > 0 {
			msg = fmt.Sprintf("%s (ready in ~%.0fs)", msg, apiErr.EstimatedTime)
		}
	}

	if status == http.StatusTooManyRequests {
		return fmt.Errorf("huggingface: %w: %s", domain.ErrRateLimited, msg)
	}
	return fmt.Errorf("huggingface error (status %d): %w", status, errors.New(msg))
}
