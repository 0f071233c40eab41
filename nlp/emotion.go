package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Sentinel labels used by callers when classification cannot run.
const (
	EmotionUnknown = "unknown"
	EmotionError   = "error"
)

var ErrClassifierUnavailable = errors.New("emotion classifier unavailable")

// Classifier maps text to its single highest-confidence emotion label.
type Classifier interface {
	// Classify returns the top emotion label for the raw (non-normalized) text.
	Classify(ctx context.Context, text string) (string, error)

	// Provider returns the provider name.
	Provider() string
}

// ClassifierConfig selects and configures an emotion provider.
type ClassifierConfig struct {
	Provider string // "hf", "lexicon" (fallback)
	APIKey   string
	BaseURL  string
	Model    string
}

// NewClassifier creates a classifier from config.
func NewClassifier(config ClassifierConfig) Classifier {
	switch config.Provider {
	case "hf":
		return NewHFClassifier(config)
	case "lexicon":
		fallthrough
	default:
		// fallback to keyword lexicon for offline/demo use
		return NewLexiconClassifier()
	}
}

// HFClassifier calls a HuggingFace-pipeline-style text-classification
// endpoint serving an emotion model such as
// j-hartmann/emotion-english-distilroberta-base.
type HFClassifier struct {
	config  ClassifierConfig
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type hfClassificationResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func NewHFClassifier(config ClassifierConfig) *HFClassifier {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("HF_INFERENCE_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api-inference.huggingface.co"
		}
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("HF_API_TOKEN")
	}

	model := config.Model
	if model == "" {
		model = "j-hartmann/emotion-english-distilroberta-base"
	}

	return &HFClassifier{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

func (c *HFClassifier) Classify(ctx context.Context, text string) (string, error) {
	if text == "" {
		return EmotionUnknown, nil
	}

	payload, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	// The pipeline returns nested results: [[{"label": "joy", "score": 0.98}, ...]]
	var nested [][]hfClassificationResult
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, &nested); err != nil {
		// Some deployments return a flat list instead
		var flat []hfClassificationResult
		if err := json.Unmarshal(body, &flat); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		nested = [][]hfClassificationResult{flat}
	}

	if len(nested) == 0 || len(nested[0]) == 0 {
		return "", fmt.Errorf("no classification data returned")
	}

	best := nested[0][0]
	for _, r := range nested[0][1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best.Label, nil
}

func (c *HFClassifier) Provider() string {
	return "hf"
}

// LexiconClassifier scores the Ekman emotion labels by keyword hits. It is
// NOT a real classifier, but gives deterministic labels without external
// services.
type LexiconClassifier struct{}

func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{}
}

var emotionLexicon = map[string][]string{
	"joy":      {"happy", "joy", "glad", "thrilled", "excited", "delighted", "love", "wonderful", "great", "amazing", "proud", "promotion", "celebrate"},
	"sadness":  {"sad", "unhappy", "depressed", "cry", "grief", "miss", "lonely", "lost", "disappointed", "heartbroken"},
	"anger":    {"angry", "mad", "furious", "hate", "annoyed", "rage", "irritated", "frustrated"},
	"fear":     {"afraid", "scared", "anxious", "worried", "nervous", "terrified", "panic", "dread"},
	"surprise": {"surprised", "shocked", "astonished", "unexpected", "sudden", "stunned"},
	"disgust":  {"disgusted", "gross", "awful", "horrible", "nasty", "revolting"},
}

func (c *LexiconClassifier) Classify(ctx context.Context, text string) (string, error) {
	if text == "" {
		return EmotionUnknown, nil
	}

	words := tokenize(strings.ToLower(text))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[w] = true
	}

	best := "neutral"
	bestHits := 0
	// iterate labels in fixed order for deterministic ties
	for _, label := range []string{"joy", "sadness", "anger", "fear", "surprise", "disgust"} {
		hits := 0
		for _, kw := range emotionLexicon[label] {
			if seen[kw] {
				hits++
			}
		}
		if hits > bestHits {
			best = label
			bestHits = hits
		}
	}
	return best, nil
}

func (c *LexiconClassifier) Provider() string {
	return "lexicon"
}
