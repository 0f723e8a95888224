package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"studyagent/internal/domain"
)

// CheckAvailability probes the provider's model listing and reports
// whether the named model is served. Failures never raise; the detail
// string carries whatever the provider said so the user sees it verbatim.
func (s *Service) CheckAvailability(ctx context.Context, choice domain.ModelChoice) (bool, string) {
	cfg, err := s.providerConfig(choice.Provider)
	if err != nil {
		return false, err.Error()
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/") + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Sprintf("build models request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	switch choice.Provider {
	case domain.ProviderAnthropic:
		req.Header.Set("x-api-key", cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	default:
		if cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
		}
	}

	resp, err := s.probe.Do(req)
	if err != nil {
		return false, fmt.Sprintf("provider unreachable: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Sprintf("read models response: %v", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return false, fmt.Sprintf("provider returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, fmt.Sprintf("parse models response: %v", err)
	}

	for _, item := range payload.Data {
		if item.ID == choice.Model {
			return true, ""
		}
	}
	return false, fmt.Sprintf("model %q is not served by %s", choice.Model, choice.Provider)
}
