package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EncoderEmbedder calls an OpenAI-compatible /v1/embeddings endpoint, e.g.
// a locally hosted sentence-transformers server (TEI, Infinity) exposing
// all-MiniLM-L6-v2.
type EncoderEmbedder struct {
	config    Config
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	dimension int
}

type EncoderEmbeddingRequest struct {
	Input          interface{} `json:"input"` // string or []string
	Model          string      `json:"model"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
	Dimensions     int         `json:"dimensions,omitempty"`
	User           string      `json:"user,omitempty"`
}

type EncoderEmbeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func NewEncoderEmbedder(config Config) *EncoderEmbedder {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	model := config.Model
	if model == "" {
		model = "all-MiniLM-L6-v2"
	}

	// all-MiniLM-L6-v2 produces 384-dim vectors
	dimension := config.Dimension
	if dimension == 0 {
		dimension = DefaultDimension
	}

	return &EncoderEmbedder{
		config:    config,
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   baseURL,
		apiKey:    config.APIKey,
		model:     model,
		dimension: dimension,
	}
}

func (e *EncoderEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, e.dimension), nil
	}

	req := EncoderEmbeddingRequest{
		Input: text,
		Model: e.model,
	}

	resp, err := e.makeRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	if got := len(resp.Data[0].Embedding); got != e.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingDimensionMismatch, e.dimension, got)
	}

	return resp.Data[0].Embedding, nil
}

func (e *EncoderEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Filter out empty texts
	var filtered []string
	for _, text := range texts {
		if text != "" {
			filtered = append(filtered, text)
		}
	}

	if len(filtered) == 0 {
		result := make([][]float32, len(texts))
		for i := range result {
			result[i] = make([]float32, e.dimension)
		}
		return result, nil
	}

	req := EncoderEmbeddingRequest{
		Input: filtered,
		Model: e.model,
	}

	resp, err := e.makeRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(filtered) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(filtered), len(resp.Data))
	}

	result := make([][]float32, len(texts))
	filteredIndex := 0
	for i, text := range texts {
		if text == "" {
			result[i] = make([]float32, e.dimension)
		} else {
			result[i] = resp.Data[filteredIndex].Embedding
			filteredIndex++
		}
	}

	return result, nil
}

func (e *EncoderEmbedder) makeRequest(ctx context.Context, req EncoderEmbeddingRequest) (*EncoderEmbeddingResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var embeddingResp EncoderEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &embeddingResp, nil
}

func (e *EncoderEmbedder) Dimension() int {
	return e.dimension
}

func (e *EncoderEmbedder) Provider() string {
	return "encoder"
}
