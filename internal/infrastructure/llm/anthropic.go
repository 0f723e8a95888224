package llm

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"studyagent/internal/domain"
)

// generateAnthropic runs a message call against the Anthropic API.
func (s *Service) generateAnthropic(ctx context.Context, model, system, user string, maxTokens int64) (string, error) {
	cfg, err := s.providerConfig(domain.ProviderAnthropic)
	if err != nil {
		return "", err
	}
	if cfg.APIKey == "" {
		return "", errors.New("anthropic api key is empty")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	client := anthropic.NewClient(opts...)
	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			full.WriteString(block.Text)
		}
	}
	return full.String(), nil
}
