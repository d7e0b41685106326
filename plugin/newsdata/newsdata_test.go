package newsdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeArticle_Fallbacks(t *testing.T) {
	t.Run("id falls back to link then synthetic", func(t *testing.T) {
		a := normalizeArticle(&rawResult{Link: "https://example.com/x"}, "all", 4)
		assert.Equal(t, "https://example.com/x", a.ID)

		a = normalizeArticle(&rawResult{}, "all", 4)
		assert.Equal(t, "all-4", a.ID)
	})

	t.Run("description falls back to content", func(t *testing.T) {
		a := normalizeArticle(&rawResult{Content: "body text"}, "all", 0)
		assert.Equal(t, "body text", a.Description)
	})

	t.Run("source falls back to creator then unknown", func(t *testing.T) {
		a := normalizeArticle(&rawResult{Creator: []string{"jane"}}, "all", 0)
		assert.Equal(t, "jane", a.SourceName)

		a = normalizeArticle(&rawResult{}, "all", 0)
		assert.Equal(t, "Unknown source", a.SourceName)
	})
}

func TestClient_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "science,technology", r.URL.Query().Get("category"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalResults": 1, "results": [{"article_id": "a1", "title": "Go 2 announced", "link": "https://example.com"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	feed, err := client.Latest(context.Background(), "sci-tech")
	require.NoError(t, err)
	assert.Equal(t, "sci-tech", feed.Category)
	assert.Equal(t, 1, feed.TotalResults)
	require.Len(t, feed.Articles, 1)
	assert.Equal(t, "Go 2 announced", feed.Articles[0].Title)
}

func TestClient_LatestAllOmitsCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("category"))
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	_, err := client.Latest(context.Background(), "all")
	require.NoError(t, err)
}

func TestClient_LatestMissingKey(t *testing.T) {
	client := NewClient("")

	_, err := client.Latest(context.Background(), "all")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
