// Package gemini constructs the Gemini API transport used by the image
// invoker. It is a thin layer over google.golang.org/genai that adds logging
// and keeps SDK construction out of the handlers.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"imageeditor/internal/imagegen"
	"imageeditor/internal/infra"
)

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client forwards generateContent calls to the Gemini API.
type Client struct {
	models *genai.Models
	logger *infra.Logger
}

var _ imagegen.ContentGenerator = (*Client)(nil)

// NewClient builds a Gemini API client. The SDK does not dial on
// construction, so this succeeds without network access.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(base, "/") + "/"
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		models: client.Models,
		logger: infra.OrDiscard(opts.Logger),
	}, nil
}

// GenerateContent calls models.generateContent.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, contents, config)
	log := infra.LoggerFrom(ctx, c.logger)
	if err != nil {
		log.Debug().
			Err(err).
			Str("model", model).
			Bool("with_config", config != nil).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("gemini: generateContent failed")
		return nil, fmt.Errorf("gemini generateContent: %w", err)
	}

	candidates := 0
	if resp != nil {
		candidates = len(resp.Candidates)
	}
	log.Debug().
		Str("model", model).
		Bool("with_config", config != nil).
		Int("candidates", candidates).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("gemini: generateContent completed")
	return resp, nil
}
