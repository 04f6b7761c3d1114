package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters used by the advisor
type PromptConfig struct {
	Ask       PromptSpec `yaml:"ask"`
	Anomalies PromptSpec `yaml:"anomalies"`
}

// PromptSpec configures one chat completion
type PromptSpec struct {
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	System       string  `yaml:"system"`
	UserTemplate string  `yaml:"user_template"`
}

// DefaultPrompts returns the built-in prompt set
func DefaultPrompts() *PromptConfig {
	return &PromptConfig{
		Ask: PromptSpec{
			Temperature: 0.4,
			MaxTokens:   600,
			System:      "You are an AI assistant for the CEO of a school supplies ERP system. Give concise strategic insight grounded in the figures provided.",
			UserTemplate: `Current Data:
- Total Invoices: {{.TotalInvoices}}
- Low Stock Items: {{join .LowStockItems ", "}}
- Recent Revenue: {{.NetRevenue.StringFixed 2}}
- Royalty Payable: {{.RoyaltyPayable.StringFixed 2}}
- Pending Approvals: {{.PendingApprovals}}

Invoices have items, total amount and a 15% royalty fee. Products have stock and a reorder level.

User Query: {{.Question}}

If asked for a forecast, give a plausible prediction based on typical business trends.
If asked for anomalies, point at high value invoices or low stock.`,
		},
		Anomalies: PromptSpec{
			Temperature: 0.1,
			MaxTokens:   800,
			System:      "You review sales invoices for anomalies. Always respond with valid JSON.",
			UserTemplate: `Analyze these invoices for anomalies (unusually high amounts, odd patterns, repeated orders).
Respond with a JSON object {"anomalies": [{"id": "<invoice id>", "reason": "<short reason>"}]}. Use an empty array when nothing stands out.
Invoices: {{.}}`,
		},
	}
}

// LoadPrompts loads prompt configuration from a YAML file. Fields left
// empty in the file keep their defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return prompts, nil
}

var templateFuncs = template.FuncMap{
	"join": func(items []string, sep string) string {
		if len(items) == 0 {
			return "none"
		}
		var buf bytes.Buffer
		for i, item := range items {
			if i > 0 {
				buf.WriteString(sep)
			}
			buf.WriteString(item)
		}
		return buf.String()
	},
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Funcs(templateFuncs).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
