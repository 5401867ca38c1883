package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/httpclient"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      json.RawMessage
		expected bool
	}{
		{name: "nil result", raw: nil, expected: false},
		{name: "empty result", raw: json.RawMessage(""), expected: false},
		{name: "json null", raw: json.RawMessage("null"), expected: false},
		{name: "json null with whitespace", raw: json.RawMessage("  null "), expected: false},
		{name: "malformed", raw: json.RawMessage(`{"a":`), expected: false},
		{name: "valid object", raw: json.RawMessage(`{"a": 1}`), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v map[string]any
			assert.Equal(t, tt.expected, Decode(tt.raw, &v))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "bare object",
			text:     `{"name": "Alice"}`,
			expected: `{"name": "Alice"}`,
		},
		{
			name:     "json code fence",
			text:     "```json\n{\"name\": \"Alice\"}\n```",
			expected: `{"name": "Alice"}`,
		},
		{
			name:     "plain code fence",
			text:     "```\n[1, 2, 3]\n```",
			expected: `[1, 2, 3]`,
		},
		{
			name:     "surrounding prose",
			text:     `Here is the result: {"name": "Alice"} Hope that helps!`,
			expected: `{"name": "Alice"}`,
		},
		{
			name:     "array reply",
			text:     `[{"name": "Alice"}, {"name": "Bob"}]`,
			expected: `[{"name": "Alice"}, {"name": "Bob"}]`,
		},
		{
			name:     "no json at all",
			text:     "I could not determine the structure.",
			expected: "",
		},
		{
			name:     "invalid json",
			text:     `{"name": }`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.text)
			if tt.expected == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func newHTTPClassifier(baseURL string) *HTTPClassifier {
	client := httpclient.NewClient(httpclient.DefaultConfig(), zap.NewNop(), nil, nil)
	return NewHTTPClassifier(client, zap.NewNop(), Config{BaseURL: baseURL, APIKey: "key", Model: "test-model"})
}

func TestHTTPClassifier_ExtractsReplyJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Write([]byte(chatReply("```json\n{\"division\": \"Finance\"}\n```")))
	}))
	defer server.Close()

	raw, err := newHTTPClassifier(server.URL).Classify(context.Background(), "classify this")
	require.NoError(t, err)

	var out map[string]string
	require.True(t, Decode(raw, &out))
	assert.Equal(t, "Finance", out["division"])
}

func TestHTTPClassifier_UnusableReplyIsNilNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
		},
		{
			name: "non-json body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("gateway error"))
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(chatReply("")))
			},
		},
		{
			name: "prose without json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(chatReply("I am not sure.")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			raw, err := newHTTPClassifier(server.URL).Classify(context.Background(), "classify this")
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestHTTPClassifier_TimeoutBoundsSlowCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(chatReply(`{"division": "Finance"}`)))
	}))
	defer server.Close()

	client := httpclient.NewClient(httpclient.DefaultConfig(), zap.NewNop(), nil, nil)
	c := NewHTTPClassifier(client, zap.NewNop(), Config{
		BaseURL: server.URL,
		APIKey:  "key",
		Model:   "test-model",
		Timeout: 50 * time.Millisecond,
	})

	start := time.Now()
	_, err := c.Classify(context.Background(), "classify this")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestHTTPClassifier_NoBaseURL(t *testing.T) {
	raw, err := newHTTPClassifier("").Classify(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Nil(t, raw)
}
