package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingsResponse(vectors ...[]float32) map[string]any {
	data := make([]map[string]any, 0, len(vectors))
	for i, v := range vectors {
		data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": v})
	}
	return map[string]any{"object": "list", "data": data}
}

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:11434/v1", "test-key", "all-minilm", 384, Options{})
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.ExpectedSize != 384 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 384", client.ExpectedSize)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantErr      bool
		wantCount    int
	}{
		{
			name:         "successful embedding",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(embeddingsResponse(make([]float32, 4), make([]float32, 4)))
			},
			wantCount: 2,
		},
		{
			name:         "empty input",
			texts:        []string{},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				t.Error("server should not be called for empty input")
			},
			wantErr: true,
		},
		{
			name:         "size mismatch",
			texts:        []string{"Hello"},
			expectedSize: 384,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(embeddingsResponse(make([]float32, 768)))
			},
			wantErr: true,
		},
		{
			name:         "count mismatch",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(embeddingsResponse(make([]float32, 4)))
			},
			wantErr: true,
		},
		{
			name:         "server error",
			texts:        []string{"Hello"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL+"/v1", "test-key", "all-minilm", tt.expectedSize, Options{})
			vecs, err := client.EmbedTexts(context.Background(), tt.texts)

			if tt.wantErr {
				if err == nil {
					t.Error("EmbedTexts() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("EmbedTexts() unexpected error: %v", err)
			}
			if len(vecs) != tt.wantCount {
				t.Errorf("EmbedTexts() returned %d vectors, want %d", len(vecs), tt.wantCount)
			}
		})
	}
}

func TestEmbeddingsClient_Embed_OrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{2, 2}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 1}},
			},
		})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL+"/v1", "test-key", "all-minilm", 2, Options{})
	vecs, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("EmbedTexts() order = %v", vecs)
	}

	single := NewEmbeddingsClient(server.URL+"/v1", "test-key", "all-minilm", 2, Options{})
	if _, err := single.Embed(context.Background(), "only one"); err == nil {
		t.Error("Embed() should fail when the server returns two vectors for one input")
	}
}
