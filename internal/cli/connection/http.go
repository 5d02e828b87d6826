package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/ledgermesh-go/internal/infra/buildinfo"
)

// Options configures an HTTPClient.
type Options struct {
	// Server is host:port or a full http(s) URL.
	Server string

	// TLS switches a bare host:port to https and configures verification.
	TLS *tls.Config

	Timeout time.Duration
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// APIError is an error envelope returned by the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   any
	RequestID string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if d, ok := e.Details.(string); ok && d != "" {
		msg += ": " + d
	}
	return msg
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   any             `json:"details"`
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(opts Options) *HTTPClient {
	baseURL := strings.TrimRight(opts.Server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if opts.TLS != nil {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLS != nil {
		transport.TLSClientConfig = opts.TLS
	}

	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the envelope data into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a request and decodes the envelope data into out, which may be
// nil. Non-2xx answers are returned as *APIError.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ledgermesh-cli/"+buildinfo.Version)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return parseResponse(resp, out)
}

func parseResponse(resp *http.Response, out any) error {
	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		// Some endpoints answer a failure with a data payload (readiness).
		if decodeErr == nil && out != nil && len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, out)
		}
		if decodeErr != nil || env.Code == "" || env.Code == "OK" {
			return &APIError{
				Status:    resp.StatusCode,
				Code:      fmt.Sprintf("HTTP-%d", resp.StatusCode),
				Message:   http.StatusText(resp.StatusCode),
				RequestID: env.RequestID,
			}
		}
		return &APIError{
			Status:    resp.StatusCode,
			Code:      env.Code,
			Message:   env.Message,
			Details:   env.Details,
			RequestID: env.RequestID,
		}
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}
