package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"studyagent/internal/domain"
)

// generateOpenAI runs a chat completion against OpenAI or any
// OpenAI-compatible endpoint (Ollama's /v1 surface).
func (s *Service) generateOpenAI(ctx context.Context, choice domain.ModelChoice, system, user string, maxTokens int64) (string, error) {
	cfg, err := s.providerConfig(choice.Provider)
	if err != nil {
		return "", err
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if base := openAIBaseURL(cfg.Endpoint); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	client := openai.NewClient(opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(choice.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choice list")
	}
	return resp.Choices[0].Message.Content, nil
}

// openAIBaseURL ensures the endpoint carries the /v1 path the SDK expects.
func openAIBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base
}
