package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		BaseDelay: time.Second,
	}, zap.NewNop())
	t.Cleanup(c.httpClient.CloseIdleConnections)

	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return body
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	c, slept := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(completionBody("func Parse() {}"))
	}))

	out, err := c.Complete(context.Background(), "llama-3.1-8b-instant", "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "func Parse() {}", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "llama-3.1-8b-instant", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Empty(t, *slept)
}

func TestCompleteRetryAfterHint(t *testing.T) {
	calls := 0
	c, slept := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(completionBody("ok"))
	}))

	out, err := c.Complete(context.Background(), "m", "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls, "exactly two requests expected")

	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	assert.GreaterOrEqual(t, total, 2*time.Second, "must honor the Retry-After hint")
}

func TestCompleteExponentialBackoffWithoutHint(t *testing.T) {
	c, slept := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Complete(context.Background(), "m", "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	// base * 2^0, base * 2^1, base * 2^2
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *slept)
}

func TestCompleteOtherErrorsAreNotRetried(t *testing.T) {
	calls := 0
	c, slept := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.Complete(context.Background(), "m", "s", "u")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestCompleteNoChoices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))

	_, err := c.Complete(context.Background(), "m", "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion returned")
}

func TestCompleteMissingAPIKey(t *testing.T) {
	c := NewClient(Config{}, nil)
	_, err := c.Complete(context.Background(), "m", "s", "u")
	assert.Error(t, err)
}

func TestListModels(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"llama-3.1-8b-instant"},{"id":"gemma2-9b-it"}]}`))
	}))

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama-3.1-8b-instant", "gemma2-9b-it"}, models)
}

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		preferred []string
		want      string
	}{
		{
			name:      "first preferred wins",
			available: []string{"a", "llama-3.3-70b-versatile", "llama-3.1-8b-instant"},
			preferred: []string{"llama-3.1-8b-instant", "llama-3.3-70b-versatile"},
			want:      "llama-3.1-8b-instant",
		},
		{
			name:      "falls back to default",
			available: []string{"other", DefaultModel},
			preferred: []string{"absent"},
			want:      DefaultModel,
		},
		{
			name:      "falls back to first available",
			available: []string{"only-model"},
			preferred: []string{"absent"},
			want:      "only-model",
		},
		{
			name:      "nothing available",
			available: nil,
			preferred: []string{"absent"},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectModel(tt.available, tt.preferred))
		})
	}
}
