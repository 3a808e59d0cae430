package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 10 * time.Second
	maxGetURLLen   = 8000
	maxBodyBytes   = 16 << 20
)

var tracer = otel.Tracer("github.com/HowestAILab/AIUPD8-Website/internal/cms")

// SanityConfig locates a Sanity dataset.
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	Timeout    time.Duration
}

// Client runs GROQ queries against the Sanity HTTP query API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient builds a Client for cfg. Authenticated requests never use the
// CDN host since Sanity does not cache them there.
func NewClient(cfg SanityConfig) (*Client, error) {
	project := strings.TrimSpace(cfg.ProjectID)
	if project == "" {
		return nil, errors.New("cms: sanity project id is required")
	}
	dataset := strings.TrimSpace(cfg.Dataset)
	if dataset == "" {
		dataset = "production"
	}
	version := strings.TrimPrefix(strings.TrimSpace(cfg.APIVersion), "v")
	if version == "" {
		version = "2024-01-01"
	}
	host := "api"
	if cfg.UseCDN && cfg.Token == "" {
		host = "apicdn"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: fmt.Sprintf("https://%s.%s.sanity.io/v%s/data/query/%s", project, host, version, url.PathEscape(dataset)),
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithEndpoint points the client at another query URL, mainly for tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = strings.TrimRight(endpoint, "/")
	return c
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

// Query runs groq with params bound as $name and returns the raw result.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "sanity.query", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := c.newRequest(ctx, groq, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("http.request.method", req.Method), attribute.String("server.address", req.URL.Host))

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}

	var payload queryResponse
	decodeErr := json.Unmarshal(body, &payload)
	if resp.StatusCode >= 400 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && payload.Error != nil && payload.Error.Description != "" {
			msg = payload.Error.Description
		}
		span.SetStatus(codes.Error, msg)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		span.SetStatus(codes.Error, decodeErr.Error())
		return nil, fmt.Errorf("%w: decode: %w", ErrUpstream, decodeErr)
	}
	return payload.Result, nil
}

func (c *Client) newRequest(ctx context.Context, groq string, params map[string]any) (*http.Request, error) {
	q := url.Values{}
	q.Set("query", groq)
	for name, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cms: encode param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}

	target := c.endpoint + "?" + q.Encode()
	var req *http.Request
	var err error
	if len(target) <= maxGetURLLen {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		body, marshalErr := json.Marshal(map[string]any{"query": groq, "params": params})
		if marshalErr != nil {
			return nil, fmt.Errorf("cms: encode query: %w", marshalErr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("cms: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
