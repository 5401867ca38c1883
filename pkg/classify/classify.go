// Package classify models external classification (LLM-backed) calls as a
// capability interface. These calls are the least reliable dependency in the
// pipeline, so every call site must carry an explicit fallback: a nil result
// and malformed JSON are treated identically.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/httpclient"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// Classifier answers a free-text prompt with a JSON document. A nil result
// with a nil error means the classifier had nothing usable to say; callers
// fall back to their documented default.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (json.RawMessage, error)
}

// Decode unmarshals a classification result into v. It returns false, and
// leaves v untouched beyond partial decoding, when the result is nil, JSON
// null, or malformed; callers branch to their fallback on false.
func Decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// Config holds classification service settings
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds a single classification call; zero means the shared
	// client's timeout applies. Chat completions routinely run longer than
	// ordinary page fetches.
	Timeout time.Duration
}

// HTTPClassifier calls a chat-completions style endpoint and extracts the
// JSON document from the model's reply.
type HTTPClassifier struct {
	client *httpclient.Client
	logger *zap.Logger
	cfg    Config
}

// NewHTTPClassifier creates a classifier over the run's HTTP client
func NewHTTPClassifier(client *httpclient.Client, logger *zap.Logger, cfg Config) *HTTPClassifier {
	return &HTTPClassifier{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Classify sends the prompt and returns the JSON document embedded in the
// reply. Transport failures surface as errors; an unusable reply returns
// (nil, nil) so call sites take their fallback without special-casing.
func (c *HTTPClassifier) Classify(ctx context.Context, prompt string) (json.RawMessage, error) {
	ctx, span := tracing.StartSpan(ctx, "classify.HTTPClassifier.Classify")
	defer span.End()

	if c.cfg.BaseURL == "" {
		return nil, nil
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "Respond with a single JSON document and nothing else."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("classification service returned non-200",
			zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var body any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.logger.Warn("classification response was not JSON", zap.Error(err))
		return nil, nil
	}

	content, err := jmespath.Search("choices[0].message.content", body)
	if err != nil {
		return nil, nil
	}
	text, ok := content.(string)
	if !ok || text == "" {
		return nil, nil
	}

	return ExtractJSON(text), nil
}

// ExtractJSON pulls the first JSON object or array out of a model reply,
// tolerating markdown code fences and surrounding prose. Returns nil when no
// valid JSON document is present.
func ExtractJSON(text string) json.RawMessage {
	text = strings.TrimSpace(text)
	if fenced, ok := strings.CutPrefix(text, "```json"); ok {
		text = fenced
	} else if fenced, ok := strings.CutPrefix(text, "```"); ok {
		text = fenced
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil
	}
	var end int
	if text[start] == '{' {
		end = strings.LastIndex(text, "}")
	} else {
		end = strings.LastIndex(text, "]")
	}
	if end <= start {
		return nil
	}

	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil
	}
	return json.RawMessage(candidate)
}
