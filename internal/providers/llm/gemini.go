// Package llm provides the Gemini text generation client used by the
// project builder and chat responder.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// TextGenerator produces model output for a prompt. Implemented by
// GeminiClient; handlers and services depend on this interface so tests can
// stub the model.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

// Options configures the Gemini client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiClient(opts Options) (*GeminiClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &GeminiClient{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
	}, nil
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateText sends a text-only prompt and returns the model output with
// any surrounding code fence stripped.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}}}
	return c.generate(ctx, req)
}

// GenerateWithImage sends a prompt plus an inline image.
func (c *GeminiClient) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("llm: empty image payload")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	req := generateRequest{Contents: []generateContent{{Parts: []generatePart{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: image}},
	}}}}
	return c.generate(ctx, req)
}

func (c *GeminiClient) generate(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure generateResponse
		if json.Unmarshal(raw, &failure) == nil && failure.Error != nil {
			return "", fmt.Errorf("%w: model returned %d: %s", domain.ErrProviderFailure, resp.StatusCode, failure.Error.Message)
		}
		return "", fmt.Errorf("%w: model returned %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	text := extractText(parsed)
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", domain.ErrProviderFailure)
	}
	return TrimCodeFence(text), nil
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
}

func extractText(resp generateResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// TrimCodeFence removes one surrounding markdown code fence, with or
// without a language tag. Models wrap whole responses in fences even when
// asked not to.
func TrimCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	if strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return trimmed
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

var _ TextGenerator = (*GeminiClient)(nil)
