// Package openai adapts the OpenAI chat-completion API to eino's model.ChatModel.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/sashabaranov/go-openai"
)

// Config configures the OpenAI chat model.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// ChatModel implements model.ChatModel on top of go-openai.
type ChatModel struct {
	client *goopenai.Client
	cfg    Config
}

var _ model.ChatModel = (*ChatModel)(nil)

// NewChatModel creates the adapter. BaseURL is optional.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}

	return &ChatModel{
		client: goopenai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Generate returns the first completion choice.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.buildRequest(input, opts...)

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	out := &schema.Message{
		Role: schema.Assistant,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.ResponseMeta.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

// Stream relays completion deltas through an eino stream.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(input, opts...)
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion stream: %w", err)
	}

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer stream.Close()
		defer sw.Close()

		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				return
			}
			if recvErr != nil {
				sw.Send(nil, recvErr)
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			msg := &schema.Message{
				Role:    schema.Assistant,
				Content: chunk.Choices[0].Delta.Content,
			}
			if reason := chunk.Choices[0].FinishReason; reason != "" {
				msg.ResponseMeta = &schema.ResponseMeta{FinishReason: string(reason)}
			}
			if closed := sw.Send(msg, nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

// BindTools is a no-op; the concierge never offers tools to the model.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func (m *ChatModel) buildRequest(input []*schema.Message, opts ...model.Option) goopenai.ChatCompletionRequest {
	modelName := m.cfg.Model
	maxTokens := m.cfg.MaxTokens
	temperature := m.cfg.Temperature

	options := model.GetCommonOptions(&model.Options{
		Model:       &modelName,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}, opts...)

	req := goopenai.ChatCompletionRequest{
		Model:    modelName,
		Messages: toOpenAIMessages(input),
	}
	if options.Model != nil {
		req.Model = *options.Model
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		req.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	return req
}

func toOpenAIMessages(input []*schema.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		var role string
		switch msg.Role {
		case schema.System:
			role = goopenai.ChatMessageRoleSystem
		case schema.Assistant:
			role = goopenai.ChatMessageRoleAssistant
		case schema.User:
			role = goopenai.ChatMessageRoleUser
		default:
			continue
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
