package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLexiconClassifier(t *testing.T) {
	c := NewLexiconClassifier()
	ctx := context.Background()

	cases := map[string]string{
		"I am thrilled about my promotion":  "joy",
		"I feel anxious about the exam":     "fear",
		"The weather report said rain":      "neutral",
		"I am furious and I hate all of it": "anger",
	}
	for text, want := range cases {
		got, err := c.Classify(ctx, text)
		if err != nil {
			t.Fatalf("classify %q: %v", text, err)
		}
		if got != want {
			t.Errorf("classify %q = %q, want %q", text, got, want)
		}
	}
}

func TestLexiconClassifier_EmptyText(t *testing.T) {
	c := NewLexiconClassifier()
	got, err := c.Classify(context.Background(), "")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != EmotionUnknown {
		t.Fatalf("empty text label = %q, want %q", got, EmotionUnknown)
	}
}

func TestHFClassifier_TopLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]map[string]any{{
			{"label": "sadness", "score": 0.12},
			{"label": "joy", "score": 0.83},
			{"label": "neutral", "score": 0.05},
		}})
	}))
	defer srv.Close()

	c := NewHFClassifier(ClassifierConfig{BaseURL: srv.URL})
	got, err := c.Classify(context.Background(), "promotion day")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != "joy" {
		t.Fatalf("label = %q, want joy", got)
	}
}

func TestHFClassifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHFClassifier(ClassifierConfig{BaseURL: srv.URL})
	if _, err := c.Classify(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on 503 response")
	}
}
