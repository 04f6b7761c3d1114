package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/application/port"
)

type fakeSender struct {
	calls []sentMessage
	err   error
}

type sentMessage struct {
	idType, id, msgType, content string
}

func (f *fakeSender) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	f.calls = append(f.calls, sentMessage{receiveIDType, receiveID, msgType, content})
	if f.err != nil {
		return "", f.err
	}
	return "om_1", nil
}

func sampleRecord() port.SyncRecord {
	return port.SyncRecord{
		InvoiceID:   "INV-2026-0001",
		SchoolName:  `Lincoln "High"`,
		Quantity:    100,
		Amount:      decimal.NewFromInt(4500),
		Royalty:     decimal.NewFromInt(675),
		NetRevenue:  decimal.NewFromInt(3825),
		FinalizedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestTarget_PushSendsTextMessage(t *testing.T) {
	s := &fakeSender{}
	target := newTarget(s, Config{ReceiveID: "oc_123"}, zap.NewNop())

	require.NoError(t, target.Push(context.Background(), sampleRecord()))
	require.Len(t, s.calls, 1)

	call := s.calls[0]
	assert.Equal(t, "chat_id", call.idType)
	assert.Equal(t, "oc_123", call.id)
	assert.Equal(t, "text", call.msgType)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(call.content), &body), "quotes in names must stay valid JSON")
	assert.Contains(t, body["text"], "INV-2026-0001")
	assert.Contains(t, body["text"], "Net revenue: 3825.00")
	assert.Contains(t, body["text"], "Royalty (15%): 675.00")
}

func TestTarget_PushPropagatesError(t *testing.T) {
	s := &fakeSender{err: errors.New("API error: code=99991663")}
	target := newTarget(s, Config{ReceiveID: "ou_1", ReceiveIDType: "open_id"}, zap.NewNop())

	err := target.Push(context.Background(), sampleRecord())
	assert.Error(t, err)
	assert.Equal(t, "open_id", s.calls[0].idType)
}

func TestNewTarget_RequiresCredentials(t *testing.T) {
	_, err := NewTarget(Config{ReceiveID: "oc_1"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewTarget(Config{AppID: "cli_1", AppSecret: "s"}, zap.NewNop())
	assert.Error(t, err)

	target, err := NewTarget(Config{AppID: "cli_1", AppSecret: "s", ReceiveID: "oc_1"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "lark", target.Name())
}
