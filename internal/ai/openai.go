package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/cache"
	"github.com/jobpulse/jobpulse-go/internal/logging"
)

// OpenAI implements Service against the OpenAI chat-completions and
// embeddings REST APIs via plain HTTP — no SDK dependency is required.
// It is safe for concurrent use.
type OpenAI struct {
	// baseURL is the API base, normally "https://api.openai.com/v1".
	baseURL string
	// apiKey is the Bearer token.
	apiKey string
	// chatModel is the completions model used for classification and
	// extraction (e.g. "gpt-4o-mini").
	chatModel string
	// embedModel is the embeddings model (e.g. "text-embedding-3-small").
	embedModel string
	// dimensions is the embedding vector length (0 = model default).
	dimensions int
	// cache stores embeddings keyed by content hash; nil disables caching.
	cache cache.Cache
	// cacheTTL is the embedding cache entry lifetime.
	cacheTTL time.Duration
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAI service.
type OpenAIConfig struct {
	// BaseURL is the API base URL. Defaults to "https://api.openai.com/v1".
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// ChatModel is the completions model name. Defaults to "gpt-4o-mini".
	ChatModel string
	// EmbedModel is the embeddings model name.
	// Defaults to "text-embedding-3-small".
	EmbedModel string
	// Dimensions is the desired embedding length (0 = model default).
	Dimensions int
	// Cache is the embedding cache; nil disables caching.
	Cache cache.Cache
	// CacheTTL is the embedding cache TTL. Defaults to 7 days.
	CacheTTL time.Duration
	// HTTPTimeout is the per-request timeout. Defaults to 60s.
	HTTPTimeout time.Duration
}

// NewOpenAI constructs an OpenAI service from the given config.
func NewOpenAI(cfg *OpenAIConfig) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}

	return &OpenAI{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		dimensions: cfg.Dimensions,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// chatRequest is the JSON body sent to /chat/completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

// chatMessage is one turn in a chat-completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the JSON body returned from /chat/completions.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// embedRequest is the JSON body sent to /embeddings.
type embedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embedResponse is the JSON body returned from /embeddings.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// apiError is the error envelope OpenAI returns on non-2xx responses.
type apiError struct {
	Message string `json:"message"`
}

// ClassifySpam asks the chat model for a true/false spam verdict at
// temperature zero. Any transport or decode failure wraps
// ErrClassification so callers can treat it as retryable.
func (o *OpenAI) ClassifySpam(ctx context.Context, text string) (bool, error) {
	reply, err := o.complete(ctx, spamPrompt+text, 0)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	return strings.EqualFold(strings.TrimSpace(reply), "true"), nil
}

// ExtractFields asks the chat model for the structured posting fields
// and decodes the JSON object out of the reply. Failures wrap
// ErrExtraction (retryable).
func (o *OpenAI) ExtractFields(ctx context.Context, text string) (Fields, error) {
	reply, err := o.complete(ctx, extractPrompt+text, 0.1)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	var f Fields
	if err := json.Unmarshal([]byte(extractJSON(reply)), &f); err != nil {
		return Fields{}, fmt.Errorf("%w: decode reply: %w", ErrExtraction, err)
	}
	return f, nil
}

// Embed returns the embedding for text, consulting the content-hash
// cache first. A cache read/write failure is logged and ignored — the
// cache is an optimization, never a correctness dependency.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embeddingKey(text)
	log := logging.FromContext(ctx)

	if o.cache != nil {
		raw, found, err := o.cache.Get(ctx, key)
		if err != nil {
			log.Warn("embedding cache read failed", slog.String("error", err.Error()))
		} else if found {
			var emb []float32
			if err := json.Unmarshal(raw, &emb); err == nil {
				return emb, nil
			}
			log.Warn("embedding cache entry corrupt, refetching", slog.String("key", key))
		}
	}

	emb, err := o.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		if raw, err := json.Marshal(emb); err == nil {
			if err := o.cache.Set(ctx, key, raw, o.cacheTTL); err != nil {
				log.Warn("embedding cache write failed", slog.String("error", err.Error()))
			}
		}
	}

	return emb, nil
}

// complete sends a single-user-message chat completion and returns the
// assistant reply text.
func (o *OpenAI) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	body := chatRequest{
		Model:       o.chatModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}

	var result chatResponse
	if err := o.post(ctx, "/chat/completions", body, &result, func() *apiError { return result.Error }); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in chat response")
	}
	return result.Choices[0].Message.Content, nil
}

// embed calls the embeddings endpoint for a single input text.
func (o *OpenAI) embed(ctx context.Context, text string) ([]float32, error) {
	body := embedRequest{Input: []string{text}, Model: o.embedModel}
	if o.dimensions > 0 {
		body.Dimensions = o.dimensions
	}

	var result embedResponse
	if err := o.post(ctx, "/embeddings", body, &result, func() *apiError { return result.Error }); err != nil {
		return nil, err
	}
	if len(result.Data) != 1 {
		return nil, fmt.Errorf("openai: expected 1 embedding, got %d", len(result.Data))
	}
	return result.Data[0].Embedding, nil
}

// post marshals body, POSTs it to path, and decodes the response into
// out. apiErr extracts the provider error envelope for non-2xx statuses.
func (o *OpenAI) post(ctx context.Context, path string, body, out any, apiErr func() *apiError) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if e := apiErr(); e != nil {
			msg = e.Message
		}
		return fmt.Errorf("openai: %s", msg)
	}

	return nil
}

// extractJSON returns the first top-level JSON object embedded in text.
// Chat models occasionally wrap the object in prose or code fences.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// embeddingKey derives the cache key for a text: a sha256 content hash,
// stable across processes and hosts.
func embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%x", sum[:])
}
