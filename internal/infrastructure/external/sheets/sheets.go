// Package sheets appends finalized invoices to a Google Sheet
package sheets

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/garyjia/luminate-erp/internal/application/port"
)

// Config selects the spreadsheet and the service account used to write it
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Target appends one row per finalized invoice
type Target struct {
	service       *gsheets.Service
	spreadsheetID string
	writeRange    string
	logger        *zap.Logger
}

// NewTarget authenticates with the service account and builds the target
func NewTarget(ctx context.Context, cfg Config, logger *zap.Logger) (*Target, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	creds := []byte(cfg.CredentialsJSON)
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		creds = data
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("google service account credentials are required")
	}

	jwt, err := google.JWTConfigFromJSON(creds, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newTarget(svc, cfg, logger), nil
}

func newTarget(svc *gsheets.Service, cfg Config, logger *zap.Logger) *Target {
	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Invoices"
	}
	return &Target{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		writeRange:    sheet + "!A:G",
		logger:        logger,
	}
}

func (t *Target) Name() string {
	return "sheets"
}

// Push appends the record as a USER_ENTERED row
func (t *Target) Push(ctx context.Context, record port.SyncRecord) error {
	valueRange := &gsheets.ValueRange{
		Values: [][]interface{}{record.Row()},
	}

	resp, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, t.writeRange, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		t.logger.Error("Failed to append row to sheet",
			zap.String("invoice_id", record.InvoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to append values to sheet: %w", err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	t.logger.Info("Invoice appended to sheet",
		zap.String("invoice_id", record.InvoiceID),
		zap.String("updated_range", updated))
	return nil
}

var _ port.SyncTarget = (*Target)(nil)
