package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Provider names and defaults.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text"
	DefaultOpenAIBaseURL = "https://api.openai.com"
	DefaultOpenAIModel   = "text-embedding-3-small"
	LocalModel           = "hash-embeddings"

	OllamaDimension = 768
	OpenAIDimension = 1536
	LocalDimension  = 384

	// MaxBatchSize bounds one batched call; ingestion splits larger sets.
	MaxBatchSize = 100
)

// OllamaProvider embeds through a local Ollama daemon.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewOllamaProvider creates an Ollama-backed embedder.
func NewOllamaProvider(baseURL, model string, cache *Cache) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaProvider{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cache:      cache,
	}
}

func (o *OllamaProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return generateSingle(ctx, o, o.cache, req)
}

func (o *OllamaProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := validateBatch(req, MaxBatchSize); err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = o.model
	}

	embeddings, err := retryWithBackoff(ctx, func() ([]*Embedding, error) {
		return o.callAPI(ctx, req.Texts, model)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	cacheAll(o.cache, req.Texts, embeddings)
	return &BatchEmbeddingResponse{Embeddings: embeddings, Provider: ProviderOllama, Model: model}, nil
}

func (o *OllamaProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"model": model,
		"input": texts,
	}

	var apiResp struct {
		Model      string      `json:"model"`
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := postJSON(ctx, o.httpClient, o.baseURL+"/api/embed", "", reqBody, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Embeddings))
	}

	embeddings := make([]*Embedding, len(apiResp.Embeddings))
	for i, vector := range apiResp.Embeddings {
		embeddings[i] = &Embedding{
			Vector:    vector,
			Dimension: len(vector),
			Provider:  ProviderOllama,
			Model:     apiResp.Model,
		}
	}
	return embeddings, nil
}

func (o *OllamaProvider) Dimension() int   { return OllamaDimension }
func (o *OllamaProvider) Provider() string { return ProviderOllama }
func (o *OllamaProvider) Model() string    { return o.model }

func (o *OllamaProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// OpenAIProvider embeds through the OpenAI embeddings API.
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewOpenAIProvider creates an OpenAI-backed embedder. An API key is
// required.
func NewOpenAIProvider(baseURL, apiKey, model string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key not set", ErrInvalidInput)
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
	}, nil
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	return generateSingle(ctx, o, o.cache, req)
}

func (o *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := validateBatch(req, MaxBatchSize); err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = o.model
	}

	embeddings, err := retryWithBackoff(ctx, func() ([]*Embedding, error) {
		return o.callAPI(ctx, req.Texts, model)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	cacheAll(o.cache, req.Texts, embeddings)
	return &BatchEmbeddingResponse{Embeddings: embeddings, Provider: ProviderOpenAI, Model: model}, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string, model string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": model,
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}
	if err := postJSON(ctx, o.httpClient, o.baseURL+"/v1/embeddings", o.apiKey, reqBody, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(apiResp.Data))
	}

	embeddings := make([]*Embedding, len(apiResp.Data))
	for _, data := range apiResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  ProviderOpenAI,
			Model:     apiResp.Model,
		}
	}
	return embeddings, nil
}

func (o *OpenAIProvider) Dimension() int   { return OpenAIDimension }
func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }
func (o *OpenAIProvider) Model() string    { return o.model }

func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider produces deterministic offline vectors derived from content
// hashes. Identical texts always map to identical unit vectors, which makes
// the provider useful for dedup behavior in tests and for air-gapped use.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates the offline hash embedder.
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{cache: cache}
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	hash := ComputeHash(req.Text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    hashVector(req.Text, LocalDimension),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     LocalModel,
		Hash:      hash,
	}
	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if len(req.Texts) == 0 {
		return nil, ErrEmptyBatch
	}
	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return &BatchEmbeddingResponse{Embeddings: embeddings, Provider: ProviderLocal, Model: LocalModel}, nil
}

func (l *LocalProvider) Dimension() int   { return LocalDimension }
func (l *LocalProvider) Provider() string { return ProviderLocal }
func (l *LocalProvider) Model() string    { return LocalModel }
func (l *LocalProvider) Close() error     { return nil }

// hashVector expands repeated SHA-256 digests into dim floats and normalizes
// to unit length.
func hashVector(text string, dim int) []float32 {
	vector := make([]float32, dim)
	var counter uint32
	i := 0
	for i < dim {
		seed := make([]byte, len(text)+4)
		copy(seed, text)
		binary.LittleEndian.PutUint32(seed[len(text):], counter)
		digest := sha256.Sum256(seed)
		for j := 0; j+3 < len(digest) && i < dim; j += 4 {
			bits := binary.LittleEndian.Uint32(digest[j : j+4])
			// Map to [-1, 1)
			vector[i] = float32(int32(bits)) / float32(math.MaxInt32)
			i++
		}
		counter++
	}

	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

// generateSingle serves single requests through the batch path, sharing the
// cache and retry behavior.
func generateSingle(ctx context.Context, e Embedder, cache *Cache, req EmbeddingRequest) (*Embedding, error) {
	hash := ComputeHash(req.Text)
	if cache != nil {
		if emb, ok := cache.Get(hash); ok {
			return emb, nil
		}
	}

	resp, err := e.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}, Model: req.Model})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return resp.Embeddings[0], nil
}

// cacheAll stores a batch result keyed by content hash.
func cacheAll(cache *Cache, texts []string, embeddings []*Embedding) {
	if cache == nil {
		return
	}
	for i, emb := range embeddings {
		hash := ComputeHash(texts[i])
		emb.Hash = hash
		cache.Set(hash, emb)
	}
}

// postJSON posts a JSON body and decodes a JSON response. A non-empty apiKey
// is sent as a bearer token.
func postJSON(ctx context.Context, client *http.Client, url, apiKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
