package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/infrastructure/external/openai"
)

// Checks the insight provider end to end with a fixed business summary,
// without touching any stored state.
func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	baseURL := flag.String("base-url", "", "OpenAI compatible endpoint (or set OPENAI_BASE_URL)")
	model := flag.String("model", "gpt-4o-mini", "chat model")
	promptsFile := flag.String("prompts", "", "optional prompts YAML")
	question := flag.String("question", "Which products should we reorder first?", "question to ask")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *baseURL == "" {
		*baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-insight --key sk-... [--prompts <path>] [--question ...]\n")
		os.Exit(1)
	}

	prompts := openai.DefaultPrompts()
	if *promptsFile != "" {
		prompts, err = openai.LoadPrompts(*promptsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading prompts: %v\n", err)
			os.Exit(1)
		}
	}

	advisor := openai.NewAdvisor(*apiKey, *baseURL, *model, prompts, logger)

	facts := port.InsightFacts{
		Question:         *question,
		TotalInvoices:    12,
		PendingApprovals: 3,
		LowStockItems:    []string{"Luminate Tablet"},
		NetRevenue:       decimal.RequireFromString("18742.50"),
		RoyaltyPayable:   decimal.RequireFromString("3307.50"),
	}

	fmt.Printf("Model: %s\nQuestion: %s\n\n", *model, facts.Question)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	answer, err := advisor.Ask(ctx, facts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: insight call failed after %v: %v\n", time.Since(start), err)
		os.Exit(1)
	}

	fmt.Printf("Response time: %v\n\n%s\n", time.Since(start), answer)
}

var _ port.InsightProvider = (*openai.Advisor)(nil)
