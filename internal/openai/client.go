package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client is a minimal OpenAI API client covering the three calls the
// pipeline needs: embeddings, chat completions and vision completions.
// It is constructed once and injected; model names are configuration.
type Client struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	VisionModel    string
	ChatModel      string
	client         *http.Client
}

func NewClient(apiKey, embeddingModel, visionModel, chatModel string) *Client {
	return &Client{
		APIKey:         apiKey,
		BaseURL:        "https://api.openai.com/v1",
		EmbeddingModel: embeddingModel,
		VisionModel:    visionModel,
		ChatModel:      chatModel,
		client:         &http.Client{},
	}
}

type EmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// ChatMessage represents a message in a chat completion request.
// Content is either a plain string or, for vision calls, a list of
// typed content parts.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content any    `json:"content"`
}

// ContentPart is one element of a multi-part vision message.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// CreateEmbeddings returns one vector per input text, in input order.
func (c *Client) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := EmbeddingRequest{
		Input: texts,
		Model: c.EmbeddingModel,
	}

	var embResp EmbeddingResponse
	if err := c.post(ctx, "/embeddings", req, &embResp); err != nil {
		return nil, err
	}

	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embResp.Data))
	}

	vectors := make([][]float32, len(embResp.Data))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// ChatCompletion generates a chat completion for plain text messages.
func (c *Client) ChatCompletion(ctx context.Context, messages []ChatMessage) (string, error) {
	return c.complete(ctx, ChatRequest{
		Model:    c.ChatModel,
		Messages: messages,
	})
}

// VisionCompletion sends a system prompt, an instruction and one inline
// PNG (as a base64 data URL) to the vision model.
func (c *Client) VisionCompletion(ctx context.Context, system, instruction, imageDataURL string) (string, error) {
	return c.complete(ctx, ChatRequest{
		Model: c.VisionModel,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: []ContentPart{
				{Type: "text", Text: instruction},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageDataURL}},
			}},
		},
	})
}

func (c *Client) complete(ctx context.Context, req ChatRequest) (string, error) {
	var chatResp ChatResponse
	if err := c.post(ctx, "/chat/completions", req, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
