package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"studyagent/internal/config"
	"studyagent/internal/domain"
	"studyagent/internal/ports"
)

const (
	digestMaxTokens   = 1000
	documentMaxTokens = 2000
)

// Service dispatches generation calls to the provider named in the
// model choice: the Anthropic SDK, or the OpenAI SDK which also serves
// Ollama through its OpenAI-compatible endpoint.
type Service struct {
	cfg    config.ProvidersConfig
	logger *slog.Logger
	probe  *http.Client
}

var _ ports.Generator = (*Service)(nil)

// NewService builds the generator from provider configuration.
func NewService(cfg config.ProvidersConfig, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
		probe:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Summarize produces the short digest for a captured record.
func (s *Service) Summarize(ctx context.Context, rec domain.ContentRecord, choice domain.ModelChoice) (string, error) {
	system, user := digestPrompt(rec)
	return s.generate(ctx, choice, system, user, digestMaxTokens)
}

// DraftDocument turns an idea's name and description into a structured document.
func (s *Service) DraftDocument(ctx context.Context, name, description string, choice domain.ModelChoice) (string, error) {
	system, user := draftPrompt(name, description)
	return s.generate(ctx, choice, system, user, documentMaxTokens)
}

// ReviseDocument rewrites the current draft according to free-form feedback.
func (s *Service) ReviseDocument(ctx context.Context, current, feedback string, choice domain.ModelChoice) (string, error) {
	system, user := revisePrompt(current, feedback)
	return s.generate(ctx, choice, system, user, documentMaxTokens)
}

func (s *Service) generate(ctx context.Context, choice domain.ModelChoice, system, user string, maxTokens int64) (string, error) {
	start := time.Now()
	s.logger.Info("generation started", "provider", choice.Provider, "model", choice.Model)

	var (
		text string
		err  error
	)
	switch choice.Provider {
	case domain.ProviderAnthropic:
		text, err = s.generateAnthropic(ctx, choice.Model, system, user, maxTokens)
	case domain.ProviderOpenAI, domain.ProviderOllama:
		text, err = s.generateOpenAI(ctx, choice, system, user, maxTokens)
	default:
		err = fmt.Errorf("unknown provider %q", choice.Provider)
	}
	if err != nil {
		s.logger.Warn("generation failed", "provider", choice.Provider, "model", choice.Model, "error", err)
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrGenerationFailed, choice.Provider)
	}

	s.logger.Info("generation completed",
		"provider", choice.Provider,
		"model", choice.Model,
		"length", len(text),
		"elapsed", time.Since(start).Round(10*time.Millisecond))
	return text, nil
}

func (s *Service) providerConfig(p domain.Provider) (config.ProviderConfig, error) {
	switch p {
	case domain.ProviderOllama:
		return s.cfg.Ollama, nil
	case domain.ProviderOpenAI:
		return s.cfg.OpenAI, nil
	case domain.ProviderAnthropic:
		return s.cfg.Anthropic, nil
	}
	return config.ProviderConfig{}, errors.New("unknown provider")
}
