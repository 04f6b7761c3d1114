package service

import (
	"context"

	"github.com/garyjia/luminate-erp/internal/application/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// StateReader exposes read-only engine snapshots to collaborators
type StateReader interface {
	Snapshot(ctx context.Context) workflow.Snapshot
}
