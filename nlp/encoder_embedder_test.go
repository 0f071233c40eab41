package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingResponse(vectors ...[]float32) map[string]any {
	data := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		data[i] = map[string]any{"object": "embedding", "embedding": v, "index": i}
	}
	return map[string]any{"object": "list", "data": data}
}

func TestEncoderEmbedder_EmbedText(t *testing.T) {
	want := make([]float32, DefaultDimension)
	want[0] = 0.25
	want[383] = -0.5

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(embeddingResponse(want))
	}))
	defer srv.Close()

	e := NewEncoderEmbedder(Config{BaseURL: srv.URL})
	got, err := e.EmbedText(context.Background(), "promotion")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != DefaultDimension || got[0] != 0.25 || got[383] != -0.5 {
		t.Fatalf("unexpected vector: len=%d head=%v tail=%v", len(got), got[0], got[383])
	}
}

func TestEncoderEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse([]float32{1, 2, 3}))
	}))
	defer srv.Close()

	e := NewEncoderEmbedder(Config{BaseURL: srv.URL})
	if _, err := e.EmbedText(context.Background(), "promotion"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestEncoderEmbedder_EmptyTextSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty text")
	}))
	defer srv.Close()

	e := NewEncoderEmbedder(Config{BaseURL: srv.URL})
	v, err := e.EmbedText(context.Background(), "")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(v) != DefaultDimension {
		t.Fatalf("zero vector length = %d, want %d", len(v), DefaultDimension)
	}
}
