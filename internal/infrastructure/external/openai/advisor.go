package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

// maxAnomalyInvoices caps how many recent invoices are sent for review
const maxAnomalyInvoices = 20

// chatClient is the subset of the go-openai client the advisor uses
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Advisor implements port.InsightProvider using OpenAI chat completions
type Advisor struct {
	client  chatClient
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewAdvisor creates an advisor. baseURL may be empty for the public API.
func NewAdvisor(apiKey, baseURL, model string, prompts *PromptConfig, logger *zap.Logger) *Advisor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return newAdvisor(openai.NewClientWithConfig(cfg), model, prompts, logger)
}

func newAdvisor(client chatClient, model string, prompts *PromptConfig, logger *zap.Logger) *Advisor {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Advisor{client: client, model: model, prompts: prompts, logger: logger}
}

// Ask answers a free-form business question from the given facts
func (a *Advisor) Ask(ctx context.Context, facts port.InsightFacts) (string, error) {
	prompt, err := renderTemplate(a.prompts.Ask.UserTemplate, facts)
	if err != nil {
		return "", err
	}

	content, err := a.complete(ctx, a.prompts.Ask, prompt, false)
	if err != nil {
		return "", err
	}

	a.logger.Info("Insight answered", zap.Int("question_len", len(facts.Question)))
	return strings.TrimSpace(content), nil
}

// DetectAnomalies asks the model to flag unusual invoices among the most recent ones
func (a *Advisor) DetectAnomalies(ctx context.Context, invoices []*entity.Invoice) ([]port.Anomaly, error) {
	recent := make([]*entity.Invoice, 0, maxAnomalyInvoices)
	for i := len(invoices) - 1; i >= 0 && len(recent) < maxAnomalyInvoices; i-- {
		recent = append(recent, invoices[i])
	}

	payload, err := json.Marshal(recent)
	if err != nil {
		return nil, fmt.Errorf("marshal invoices: %w", err)
	}

	prompt, err := renderTemplate(a.prompts.Anomalies.UserTemplate, string(payload))
	if err != nil {
		return nil, err
	}

	content, err := a.complete(ctx, a.prompts.Anomalies, prompt, true)
	if err != nil {
		return nil, err
	}

	anomalies, err := parseAnomalies(content)
	if err != nil {
		a.logger.Error("Failed to parse anomaly response", zap.Error(err), zap.String("content", content))
		return nil, err
	}

	a.logger.Info("Anomaly scan completed",
		zap.Int("invoices", len(recent)),
		zap.Int("anomalies", len(anomalies)))
	return anomalies, nil
}

func (a *Advisor) complete(ctx context.Context, spec PromptSpec, prompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: spec.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseAnomalies accepts {"anomalies": [...]}, a bare array, or either
// wrapped in a markdown code block
func parseAnomalies(content string) ([]port.Anomaly, error) {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	if strings.HasPrefix(body, "[") {
		var list []port.Anomaly
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Anomalies []port.Anomaly `json:"anomalies"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if wrapped.Anomalies == nil {
		wrapped.Anomalies = []port.Anomaly{}
	}
	return wrapped.Anomalies, nil
}
