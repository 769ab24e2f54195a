package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch_Success(t *testing.T) {
	var got tavilyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(SearchResponse{
			Results: []SearchHit{
				{Title: "Acme Inc", URL: "https://acme.com", Content: "Official site"},
			},
		})
	}))
	defer server.Close()

	client := NewTavilyClient("test-key", 3).WithEndpoint(server.URL)
	resp, err := client.Search(context.Background(), "acme official website")
	require.NoError(t, err)

	assert.Equal(t, "test-key", got.APIKey)
	assert.Equal(t, "acme official website", got.Query)
	assert.Equal(t, 3, got.MaxResults)

	assert.Equal(t, "acme official website", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://acme.com", resp.Results[0].URL)
}

func TestTavilySearch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewTavilyClient("bad-key", 0).WithEndpoint(server.URL)
	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestTavilySearch_MissingAPIKey(t *testing.T) {
	client := NewTavilyClient("", 0)
	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")
}

func TestNewTavilyClient_DefaultMaxResults(t *testing.T) {
	client := NewTavilyClient("key", 0)
	assert.Equal(t, defaultMaxHits, client.maxResults)
}
