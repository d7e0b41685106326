package zenquotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Random(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ObelDashboard/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"q": "Do the work.", "a": "Someone Wise"}]`))
	}))
	defer srv.Close()

	client := NewClient()
	client.baseURL = srv.URL

	quote, err := client.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Do the work.", quote.Text)
	assert.Equal(t, "Someone Wise", quote.Author)
}

func TestClient_RandomEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient()
	client.baseURL = srv.URL

	quote, err := client.Random(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quote.Text)
}

func TestClient_RandomUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient()
	client.baseURL = srv.URL

	_, err := client.Random(context.Background())
	assert.Error(t, err)
}
