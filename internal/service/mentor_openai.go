package service

import (
	"context"
	"fmt"
	"time"

	"go_stoic_journal/internal/config"
	"go_stoic_journal/internal/model"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// openAIMentor は OpenAI Chat Completions API を使う MentorProvider 実装
type openAIMentor struct {
	client    openai.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

func NewOpenAIMentor(cfg config.MentorConfig) MentorProvider {
	return &openAIMentor{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

func (m *openAIMentor) Reply(ctx context.Context, systemPrompt string, history []model.DiscussionMessage, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, msg := range history {
		switch msg.Role {
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userMessage))

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(m.model),
		MaxCompletionTokens: openai.Int(m.maxTokens),
		Messages:            messages,
	})
	if err != nil {
		return "", fmt.Errorf("openAIMentor.Reply: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openAIMentor.Reply: empty response from API")
	}
	return resp.Choices[0].Message.Content, nil
}
