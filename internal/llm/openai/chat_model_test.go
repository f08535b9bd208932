package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSendsConversationAndReadsFirstChoice(t *testing.T) {
	var captured goopenai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "The ceremony starts at 7 PM."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 9, "total_tokens": 129}
		}`))
	}))
	defer srv.Close()

	m, err := NewChatModel(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", MaxTokens: 500, Temperature: 0.7})
	require.NoError(t, err)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You are the wedding concierge."),
		schema.UserMessage("When does it start?"),
		{Role: schema.Tool, Content: "ignored"},
	})
	require.NoError(t, err)

	assert.Equal(t, "The ceremony starts at 7 PM.", out.Content)
	require.NotNil(t, out.ResponseMeta)
	assert.Equal(t, 129, out.ResponseMeta.Usage.TotalTokens)
	assert.Equal(t, "stop", out.ResponseMeta.FinishReason)

	assert.Equal(t, goopenai.GPT4oMini, captured.Model)
	assert.Equal(t, 500, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, captured.Messages[0].Role)
	assert.Equal(t, goopenai.ChatMessageRoleUser, captured.Messages[1].Role)
}

func TestNewChatModelRequiresKey(t *testing.T) {
	_, err := NewChatModel(Config{})
	require.Error(t, err)
}
