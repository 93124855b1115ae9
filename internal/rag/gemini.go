package rag

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"docrag/internal/errs"
	"docrag/internal/retry"
)

type geminiClient struct {
	client *genai.Client
	retry  retry.Policy
}

func newGeminiClient(ctx context.Context, apiKey string, p retry.Policy) (*geminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errs.DependencyMissing("failed to initialize gemini client", err.Error())
	}
	return &geminiClient{client: client, retry: p}, nil
}

// messagesToPrompt flattens the message list into a single prompt string:
// Gemini's Go SDK generate-content call takes plain content, not a role
// list with a system slot, so the system preamble and history are folded
// in as leading text the same way the other providers render context.
func messagesToPrompt(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

func (c *geminiClient) chat(ctx context.Context, model string, msgs []Message) (string, error) {
	var text string
	err := retry.Do(ctx, nil, c.retry, func() error {
		resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(messagesToPrompt(msgs)), nil)
		if err != nil {
			return err
		}
		text = extractGeminiText(resp)
		return nil
	})
	if err != nil {
		return "", errs.UpstreamError("gemini generate content failed", err, map[string]any{"provider": "gemini", "model": model})
	}
	return text, nil
}
