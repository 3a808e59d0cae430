package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	temperature    = 0.1
	maxErrorBody   = 512
)

var tracer = otel.Tracer("github.com/HowestAILab/AIUPD8-Website/internal/translate")

var languageNames = map[i18n.Locale]string{
	i18n.NL: "Dutch",
	i18n.EN: "English",
}

// OpenAIConfig locates an OpenAI compatible chat completions API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient translates batches of strings with one chat completion call.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: base,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *OpenAIClient) WithHTTPClient(h *http.Client) *OpenAIClient {
	c.http = h
	return c
}

func (c *OpenAIClient) Configured() bool { return c != nil && c.apiKey != "" }

func (c *OpenAIClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// TranslateBatch sends texts as numbered paragraphs and expects a JSON object
// keyed by the same numbers. Entries missing from the reply keep the source.
func (c *OpenAIClient) TranslateBatch(ctx context.Context, texts []string, from, to i18n.Locale) ([]string, error) {
	if len(texts) == 0 || from == to {
		return texts, nil
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	ctx, span := tracer.Start(ctx, "openai.chat.completions", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.request.model", c.model),
		attribute.Int("translate.segments", len(texts)),
	)

	numbered := make([]string, len(texts))
	for i, t := range texts {
		numbered[i] = fmt.Sprintf("%d. %s", i, t)
	}
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: fmt.Sprintf("Translate from %s to %s. Return a JSON object with numeric string keys. Output ONLY valid JSON.", languageNames[from], languageNames[to]),
			},
			{Role: "user", Content: strings.Join(numbered, "\n\n")},
		},
		Temperature:    temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		span.SetStatus(codes.Error, "invalid json reply")
		return nil, fmt.Errorf("translate: decode model reply: %w", err)
	}
	out := make([]string, len(texts))
	for i, orig := range texts {
		if v, ok := parsed[strconv.Itoa(i)].(string); ok {
			out[i] = v
		} else {
			out[i] = orig
		}
	}
	return out, nil
}

func (c *OpenAIClient) complete(ctx context.Context, payload chatRequest) (string, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d body %s", ErrUpstream, resp.StatusCode, truncate(string(body), maxErrorBody))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: response missing choices", ErrUpstream)
	}
	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	if content == "" {
		content = "{}"
	}
	return content, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
