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
	"github.com/garyjia/luminate-erp/internal/config"
	"github.com/garyjia/luminate-erp/internal/container"
)

// Pushes one sample row to the configured sync target so credentials and
// sheet access can be checked without finalizing a real invoice.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	invoiceID := flag.String("invoice", "INV-TEST-0001", "invoice id written in the sample row")
	timeout := flag.Duration("timeout", 30*time.Second, "push timeout")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target, err := container.ProvideSyncTarget(ctx, &containerCfg.Sync, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build sync target: %v\n", err)
		os.Exit(1)
	}

	record := port.SyncRecord{
		InvoiceID:   *invoiceID,
		SchoolName:  "Sync Check School",
		Quantity:    1,
		Amount:      decimal.RequireFromString("100.00"),
		Royalty:     decimal.RequireFromString("15.00"),
		NetRevenue:  decimal.RequireFromString("85.00"),
		FinalizedAt: time.Now(),
	}

	fmt.Printf("Target: %s\nRow: %v\n", target.Name(), record.Row())
	if err := target.Push(ctx, record); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: push failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Push succeeded")
}
