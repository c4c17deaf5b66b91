package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIChatTransport implements ChatTransport against the OpenAI-compatible
// chat completions endpoint.
type OpenAIChatTransport struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIChatTransport constructs a transport for the given model and API
// key, defaulting to OpenAI's public endpoint.
func NewOpenAIChatTransport(apiKey, model string) *OpenAIChatTransport {
	return &OpenAIChatTransport{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1/chat/completions",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model    string             `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

func (t *OpenAIChatTransport) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := chatCompletionRequest{Model: t.model}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d", resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
