package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docrag/internal/errs"
	"docrag/internal/retry"
)

// anthropicClient is a minimal Messages API client: no third-party
// Anthropic SDK is vendored here, so this talks to /v1/messages directly
// over net/http (the OpenAI and Gemini paths use their SDK clients).
type anthropicClient struct {
	apiKey string
	http   *http.Client
	retry  retry.Policy
}

func newAnthropicClient(apiKey string, p retry.Policy) *anthropicClient {
	return &anthropicClient{apiKey: apiKey, http: &http.Client{Timeout: 60 * time.Second}, retry: p}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	Temperature float64          `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string     { return e.msg }
func (e *statusErr) StatusCode() int   { return e.status }

func toAnthropicRequest(model string, msgs []Message) anthropicRequest {
	req := anthropicRequest{Model: model, MaxTokens: 512, Temperature: 0.2}
	for _, m := range msgs {
		if m.Role == "system" {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	return req
}

func (c *anthropicClient) chat(ctx context.Context, model string, msgs []Message) (string, error) {
	var text string
	err := retry.Do(ctx, nil, c.retry, func() error {
		body, err := json.Marshal(toAnthropicRequest(model, msgs))
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 400 {
			return &statusErr{status: resp.StatusCode, msg: fmt.Sprintf("anthropic request failed: %s", string(respBody))}
		}

		var parsed anthropicResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return err
		}
		for _, block := range parsed.Content {
			if block.Type == "text" {
				text = block.Text
				break
			}
		}
		return nil
	})
	if err != nil {
		return "", errs.UpstreamError("anthropic chat failed", err, map[string]any{"provider": "anthropic", "model": model})
	}
	return text, nil
}
