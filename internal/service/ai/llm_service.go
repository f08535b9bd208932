package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/model/chat"
)

// EmptyCompletionReply replaces a completion that came back without text.
const EmptyCompletionReply = "I'm sorry, I couldn't generate a response."

// ErrStreamingDisabled is returned by Stream when streaming is turned off.
var ErrStreamingDisabled = errors.New("streaming disabled in configuration")

// Options tune the service independently of the provider.
type Options struct {
	ModelName      string
	StreamResponse bool
}

// Service runs the concierge chain: chat template followed by the chat model.
type Service struct {
	chatModel model.BaseChatModel
	opts      Options
	chain     compose.Runnable[map[string]any, *schema.Message]
	log       zerolog.Logger
}

// NewService compiles the chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, opts Options, log zerolog.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		opts:      opts,
		chain:     runnable,
		log:       log.With().Str("component", "ai").Logger(),
	}, nil
}

// ModelName reports the model identifier recorded in message metadata.
func (s *Service) ModelName() string {
	return s.opts.ModelName
}

// StreamingEnabled reports whether SSE replies stream token deltas.
func (s *Service) StreamingEnabled() bool {
	return s.opts.StreamResponse
}

// Request is one completion call.
type Request struct {
	SystemPrompt string
	History      []chat.Message
	UserMessage  string
}

// Generate returns the completion. An empty completion is replaced by
// EmptyCompletionReply; errors are returned untouched for the caller to mask.
func (s *Service) Generate(ctx context.Context, req Request) (*schema.Message, error) {
	response, err := s.chain.Invoke(ctx, s.buildChainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		response = &schema.Message{Role: schema.Assistant}
	}
	if strings.TrimSpace(response.Content) == "" {
		response.Content = EmptyCompletionReply
	}

	s.log.Debug().Int("length", len(response.Content)).Msg("generated response")
	return response, nil
}

// Stream returns the completion as a stream of deltas.
func (s *Service) Stream(ctx context.Context, req Request) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, ErrStreamingDisabled
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(req))
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(req Request) map[string]any {
	return map[string]any{
		"system":  req.SystemPrompt,
		"history": BuildHistoryMessages(req.History),
		"query":   req.UserMessage,
	}
}

// BuildHistoryMessages maps stored turns onto model roles. Types other than
// user and assistant are dropped.
func BuildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.MessageType {
		case chat.MessageTypeUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.MessageTypeAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

// UsageMetadata extracts model and token usage for message persistence.
func (s *Service) UsageMetadata(msg *schema.Message) map[string]any {
	meta := map[string]any{"model": s.opts.ModelName}
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return meta
	}
	usage := msg.ResponseMeta.Usage
	meta["tokens"] = map[string]any{
		"prompt":     usage.PromptTokens,
		"completion": usage.CompletionTokens,
		"total":      usage.TotalTokens,
	}
	return meta
}
