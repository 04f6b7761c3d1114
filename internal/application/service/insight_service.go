package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/luminate-erp/internal/application/port"
	"github.com/garyjia/luminate-erp/internal/apperrors"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
)

const (
	// InsightNotConfigured is answered when no provider is wired
	InsightNotConfigured = "Insight provider not configured. Set insight.api_key to enable analysis."

	// InsightUnavailable is answered when the provider call fails
	InsightUnavailable = "Unable to generate insight at this time."
)

// InsightService answers CEO questions over engine snapshots. It never mutates state.
type InsightService interface {
	Ask(ctx context.Context, question string) (string, error)
	DetectAnomalies(ctx context.Context) ([]port.Anomaly, error)
}

type insightServiceImpl struct {
	reader   StateReader
	provider port.InsightProvider
	logger   Logger
}

// NewInsightService creates a new InsightService. provider may be nil.
func NewInsightService(reader StateReader, provider port.InsightProvider, logger Logger) InsightService {
	return &insightServiceImpl{reader: reader, provider: provider, logger: logger}
}

func (s *insightServiceImpl) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperrors.NewValidationError("question", "question is required")
	}
	if s.provider == nil {
		return InsightNotConfigured, nil
	}

	answer, err := s.provider.Ask(ctx, s.facts(ctx, question))
	if err != nil {
		s.logger.Error("Insight request failed", "error", err)
		return InsightUnavailable, nil
	}
	return answer, nil
}

func (s *insightServiceImpl) DetectAnomalies(ctx context.Context) ([]port.Anomaly, error) {
	if s.provider == nil {
		return []port.Anomaly{}, nil
	}

	snap := s.reader.Snapshot(ctx)
	anomalies, err := s.provider.DetectAnomalies(ctx, snap.Invoices)
	if err != nil {
		s.logger.Error("Anomaly detection failed", "error", err)
		return []port.Anomaly{}, nil
	}
	return anomalies, nil
}

func (s *insightServiceImpl) facts(ctx context.Context, question string) port.InsightFacts {
	snap := s.reader.Snapshot(ctx)

	facts := port.InsightFacts{
		Question:       question,
		TotalInvoices:  len(snap.Invoices),
		LowStockItems:  []string{},
		NetRevenue:     decimal.Zero,
		RoyaltyPayable: decimal.Zero,
	}
	for _, inv := range snap.Invoices {
		if !inv.Status.IsTerminal() {
			facts.PendingApprovals++
		}
	}
	for _, p := range snap.Products {
		if p.IsLowStock() {
			facts.LowStockItems = append(facts.LowStockItems, p.Name)
		}
	}
	for _, e := range snap.Ledger {
		switch e.Type {
		case entity.EntryTypeRevenue:
			facts.NetRevenue = facts.NetRevenue.Add(e.Credit)
		case entity.EntryTypeRoyalty:
			facts.RoyaltyPayable = facts.RoyaltyPayable.Add(e.Credit)
		}
	}
	return facts
}
