package rag

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docrag/internal/errs"
	"docrag/internal/retry"
)

type openAIClient struct {
	client openai.Client
	retry  retry.Policy
}

func newOpenAIClient(apiKey string, p retry.Policy) *openAIClient {
	return &openAIClient{client: openai.NewClient(option.WithAPIKey(apiKey)), retry: p}
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func (c *openAIClient) chat(ctx context.Context, model string, msgs []Message) (string, error) {
	var text string
	err := retry.Do(ctx, nil, c.retry, func() error {
		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    model,
			Messages: toOpenAIMessages(msgs),
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) > 0 {
			text = resp.Choices[0].Message.Content
		}
		return nil
	})
	if err != nil {
		return "", errs.UpstreamError("openai chat completion failed", err, map[string]any{"provider": "openai", "model": model})
	}
	return text, nil
}

// stream forwards each delta token to emit as it arrives and returns the
// concatenated text once the stream ends.
func (c *openAIClient) stream(ctx context.Context, model string, msgs []Message, emit func(token string)) (string, error) {
	var full string
	err := retry.Do(ctx, nil, c.retry, func() error {
		full = ""
		stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:    model,
			Messages: toOpenAIMessages(msgs),
		})
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			full += delta
			emit(delta)
		}
		return stream.Err()
	})
	if err != nil {
		return "", errs.UpstreamError("openai chat stream failed", err, map[string]any{"provider": "openai", "model": model})
	}
	return full, nil
}
