package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ghostlib/ghost/pkg/types"
)

// DefaultQdrantTimeout bounds each REST call to the Qdrant server.
const DefaultQdrantTimeout = 15 * time.Second

// scrollPageSize is how many points we fetch per scroll request when
// enumerating documents.
const scrollPageSize = 256

// QdrantConfig configures the Qdrant REST backend.
type QdrantConfig struct {
	URL        string        `yaml:"url"`
	APIKey     string        `yaml:"api_key"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// QdrantStore is a minimal REST client to Qdrant. It assumes cosine
// distance and creates the collection if missing.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// NewQdrantStore builds a client from cfg, applying defaults for the
// collection name and timeout.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "ghost"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultQdrantTimeout
	}
	return &QdrantStore{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// EnsureReady creates the collection if it does not exist. Qdrant returns
// 200 when the collection already exists with the same schema.
func (s *QdrantStore) EnsureReady(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

// Upsert writes points with wait=true so a subsequent search sees them.
func (s *QdrantStore) Upsert(ctx context.Context, points []types.Point) error {
	if len(points) == 0 {
		return nil
	}
	wire := make([]map[string]any, len(points))
	for i, point := range points {
		wire[i] = map[string]any{
			"id":      point.ID,
			"vector":  point.Vector,
			"payload": point.Payload,
		}
	}
	body := map[string]any{"points": wire}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

// Search runs a cosine similarity search and returns scored candidates
// with their payloads.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]types.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}

	candidates := make([]types.Candidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		payload := r.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		candidates = append(candidates, types.Candidate{Score: r.Score, Payload: payload})
	}
	return candidates, nil
}

// ListDocuments scrolls the whole collection and aggregates chunk counts
// per filename.
func (s *QdrantStore) ListDocuments(ctx context.Context) ([]types.DocumentInfo, error) {
	counts := map[string]int{}
	order := []string{}

	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{types.PayloadFilename},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection)
		if err := s.postJSON(ctx, url, req, &resp); err != nil {
			return nil, err
		}

		for _, point := range resp.Result.Points {
			filename, _ := point.Payload[types.PayloadFilename].(string)
			if filename == "" {
				filename = "(unknown)"
			}
			if _, seen := counts[filename]; !seen {
				order = append(order, filename)
			}
			counts[filename]++
		}

		if resp.Result.NextPageOffset == nil || len(resp.Result.Points) == 0 {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	docs := make([]types.DocumentInfo, 0, len(order))
	for _, filename := range order {
		docs = append(docs, types.DocumentInfo{Filename: filename, Chunks: counts[filename]})
	}
	return docs, nil
}

// DeleteDocument removes all points whose filename payload matches. The
// returned count is the number of matching points observed before the
// delete; Qdrant's delete API does not report it.
func (s *QdrantStore) DeleteDocument(ctx context.Context, filename string) (int, error) {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": types.PayloadFilename, "match": map[string]any{"value": filename}},
		},
	}

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	countURL := fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection)
	if err := s.postJSON(ctx, countURL, map[string]any{"filter": filter, "exact": true}, &countResp); err != nil {
		return 0, err
	}
	if countResp.Result.Count == 0 {
		return 0, fmt.Errorf("%w: %s", types.ErrNotFound, filename)
	}

	deleteURL := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	if err := s.postJSON(ctx, deleteURL, map[string]any{"filter": filter}, nil); err != nil {
		return 0, err
	}
	return countResp.Result.Count, nil
}

// Count returns the total number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection)
	if err := s.postJSON(ctx, url, map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases idle connections.
func (s *QdrantStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *QdrantStore) putJSON(ctx context.Context, url string, body any) error {
	return s.do(ctx, http.MethodPut, url, body, nil)
}

func (s *QdrantStore) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.do(ctx, http.MethodPost, url, body, out)
}

func (s *QdrantStore) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s failed: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
