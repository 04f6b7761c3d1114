package lark

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
)

// Config holds the bot app credentials and the chat that receives notices
type Config struct {
	AppID         string
	AppSecret     string
	ReceiveID     string
	ReceiveIDType string // chat_id, open_id, user_id or email
}

// sender is the part of Messenger the target needs
type sender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Target posts a text notice for every finalized invoice to a Lark chat
type Target struct {
	sender        sender
	receiveID     string
	receiveIDType string
	logger        *zap.Logger
}

// NewTarget builds a Lark sync target from cfg
func NewTarget(cfg Config, logger *zap.Logger) (*Target, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("lark app_id and app_secret are required")
	}
	if cfg.ReceiveID == "" {
		return nil, fmt.Errorf("lark receive_id is required")
	}
	return newTarget(NewMessenger(cfg, logger), cfg, logger), nil
}

func newTarget(s sender, cfg Config, logger *zap.Logger) *Target {
	idType := cfg.ReceiveIDType
	if idType == "" {
		idType = "chat_id"
	}
	return &Target{
		sender:        s,
		receiveID:     cfg.ReceiveID,
		receiveIDType: idType,
		logger:        logger,
	}
}

func (t *Target) Name() string {
	return "lark"
}

// Push sends the finalized invoice as a single text message
func (t *Target) Push(ctx context.Context, record port.SyncRecord) error {
	content, err := textContent(FormatRecord(record))
	if err != nil {
		return err
	}

	messageID, err := t.sender.SendMessage(ctx, t.receiveIDType, t.receiveID, "text", content)
	if err != nil {
		return err
	}

	t.logger.Info("Finalized invoice posted to Lark",
		zap.String("invoice_id", record.InvoiceID),
		zap.String("message_id", messageID))
	return nil
}

// FormatRecord renders the notice text
func FormatRecord(r port.SyncRecord) string {
	return fmt.Sprintf("Invoice %s finalized\nSchool: %s\nDate: %s\nQuantity: %d\nAmount: %s\nRoyalty (15%%): %s\nNet revenue: %s",
		r.InvoiceID,
		r.SchoolName,
		r.FinalizedAt.Format("2006-01-02"),
		r.Quantity,
		r.Amount.StringFixed(2),
		r.Royalty.StringFixed(2),
		r.NetRevenue.StringFixed(2),
	)
}

var _ port.SyncTarget = (*Target)(nil)
