package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ghostlib/ghost/pkg/types"
)

// Defaults for the Ollama generation client.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3"

	generateTemperature = 0.1
	generateMaxTokens   = 1024
)

// systemPrompt pins the model to the supplied context.
const systemPrompt = `You are Ghost Librarian, a precise research assistant. Answer questions using ONLY the provided context. Follow these rules strictly:

1. Base your answer exclusively on the provided context
2. If the context doesn't contain enough information, say so clearly
3. Quote specific passages when relevant
4. Be concise and factual. Avoid speculation
5. If the context contains conflicting information, acknowledge it`

// TokenFunc receives each streamed response fragment. A nil TokenFunc
// disables streaming output; the full response is still returned.
type TokenFunc func(token string)

// Client talks to one Ollama server.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// Config configures a Client. Zero values take defaults.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient builds an Ollama client. Generation can run for minutes on
// slow hardware, so the default timeout is generous.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the model generation requests will use.
func (c *Client) Model() string {
	return c.model
}

// HealthCheck reports whether the server answers a model listing request.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}

// ListModels returns the names of locally available models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned %s", resp.Status)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Answer generates a response grounded in context, streaming fragments to
// onToken as they arrive and returning the assembled text.
func (c *Client) Answer(ctx context.Context, query, contextText string, onToken TokenFunc) (string, error) {
	prompt := fmt.Sprintf(
		"CONTEXT:\n%s\n\n---\nQUESTION: %s\n\nProvide a precise answer based only on the context above.",
		contextText, query)

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: true,
		Options: generateOptions{
			Temperature: generateTemperature,
			NumPredict:  generateMaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", types.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: is ollama running? (ollama serve): %v", types.ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama returned %s", types.ErrGenerationFailed, resp.Status)
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("%w: decode stream: %v", types.ErrGenerationFailed, err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("%w: %s", types.ErrGenerationFailed, chunk.Error)
		}

		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onToken != nil {
				onToken(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: read stream: %v", types.ErrGenerationFailed, err)
	}

	return full.String(), nil
}
