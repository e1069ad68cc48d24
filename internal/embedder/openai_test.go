package embedder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

type embeddingsServer struct {
	calls    atomic.Int32
	status   int // non-zero forces an error response
	message  string
	reverse  bool
	lastSize atomic.Int32

	mu      sync.Mutex
	lengths []int
}

func (s *embeddingsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	if !strings.HasSuffix(r.URL.Path, "/embeddings") {
		http.NotFound(w, r)
		return
	}

	if s.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": s.message, "type": "invalid_request_error"},
		})
		return
	}

	var req struct {
		Input      []string `json:"input"`
		Model      string   `json:"model"`
		Dimensions int      `json:"dimensions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.lastSize.Store(int32(len(req.Input)))
	s.mu.Lock()
	for _, in := range req.Input {
		s.lengths = append(s.lengths, utf8.RuneCountInString(in))
	}
	s.mu.Unlock()

	data := make([]map[string]any, 0, len(req.Input))
	for i, in := range req.Input {
		vec := make([]float64, testDim)
		vec[0] = float64(len(in))
		for j := 1; j < testDim; j++ {
			vec[j] = 0.5
		}
		data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vec})
	}
	if s.reverse {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  req.Model,
		"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
	})
}

func newTestProvider(t *testing.T, srv *httptest.Server, cache *Cache) *OpenAIProvider {
	t.Helper()

	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL + "/v1/",
		Dimension: testDim,
	}, cache)
	require.NoError(t, err)

	p.retry.BaseDelay = time.Millisecond
	p.retry.MaxDelay = time.Millisecond
	return p
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestOpenAIProvider_GenerateEmbedding(t *testing.T) {
	handler := &embeddingsServer{}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	p := newTestProvider(t, srv, nil)
	assert.Equal(t, ProviderOpenAI, p.Provider())
	assert.Equal(t, DefaultOpenAIModel, p.Model())
	assert.Equal(t, testDim, p.Dimension())

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	require.NoError(t, err)
	require.Len(t, emb.Vector, testDim)
	assert.Equal(t, float32(5), emb.Vector[0])
	assert.Equal(t, float32(0.5), emb.Vector[1])
	assert.Equal(t, ProviderOpenAI, emb.Provider)
}

func TestOpenAIProvider_Truncates(t *testing.T) {
	handler := &embeddingsServer{}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	p := newTestProvider(t, srv, nil)

	long := strings.Repeat("é", MaxInputChars+5000)
	_, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: long})
	require.NoError(t, err)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.lengths, 1)
	assert.Equal(t, MaxInputChars, handler.lengths[0])
}

func TestOpenAIProvider_BatchSplitsAndKeepsOrder(t *testing.T) {
	handler := &embeddingsServer{reverse: true}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	p := newTestProvider(t, srv, nil)

	texts := make([]string, MaxBatchSize+3)
	for i := range texts {
		texts[i] = strings.Repeat("x", i%50+1)
	}

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: texts})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, len(texts))
	assert.Equal(t, int32(2), handler.calls.Load())
	assert.Equal(t, int32(3), handler.lastSize.Load())

	for i, emb := range resp.Embeddings {
		require.NotNil(t, emb)
		assert.Equal(t, float32(len(texts[i])), emb.Vector[0], "embedding %d out of order", i)
	}
}

func TestOpenAIProvider_Cache(t *testing.T) {
	handler := &embeddingsServer{}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	p := newTestProvider(t, srv, NewCache(100))

	_, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "repeat"})
	require.NoError(t, err)
	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "repeat"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), handler.calls.Load())

	resp, err := p.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"repeat", "fresh"}})
	require.NoError(t, err)
	assert.Len(t, resp.Embeddings, 2)
	assert.Equal(t, int32(2), handler.calls.Load())
	assert.Equal(t, int32(1), handler.lastSize.Load(), "only the uncached text is sent")
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		message   string
		wantErr   error
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, "Incorrect API key provided", ErrAuthentication, 1},
		{"forbidden", http.StatusForbidden, "forbidden", ErrAuthentication, 1},
		{"too long", http.StatusBadRequest, "This model's maximum context length is 8192 tokens", ErrInputTooLong, 1},
		{"too many tokens", http.StatusBadRequest, "Too many tokens in input", ErrInputTooLong, 1},
		{"bad request mentioning tokens", http.StatusBadRequest, "Invalid 'encoding_format': token arrays unsupported", ErrProviderFailed, MaxRetries},
		{"server error", http.StatusInternalServerError, "boom", ErrProviderFailed, MaxRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &embeddingsServer{status: tt.status, message: tt.message}
			srv := httptest.NewServer(handler)
			defer srv.Close()

			p := newTestProvider(t, srv, nil)

			_, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, handler.calls.Load())
		})
	}
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	handler := &embeddingsServer{}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL + "/v1/",
		Dimension:         testDim,
		RequestsPerSecond: 0.001,
		Burst:             1,
	}, nil)
	require.NoError(t, err)

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "first"})
	require.NoError(t, err)

	// The bucket is empty; the next call can't get a token before the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.GenerateEmbedding(ctx, EmbeddingRequest{Text: "second"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), handler.calls.Load())
}

func TestTruncateInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"short", "abc", 3},
		{"exact", strings.Repeat("a", MaxInputChars), MaxInputChars},
		{"long", strings.Repeat("a", MaxInputChars+1), MaxInputChars},
		{"multi-byte under limit", strings.Repeat("ç", MaxInputChars-1), MaxInputChars - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utf8.RuneCountInString(TruncateInput(tt.in)))
		})
	}
}

func ExampleTruncateInput() {
	fmt.Println(len(TruncateInput(strings.Repeat("a", 30000))))
	// Output: 24000
}
