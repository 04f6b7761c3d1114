package port

import "context"

// DocumentStore holds the named JSON documents of the file backed state
// store. Keys are relative names such as "erp_invoices.json".
type DocumentStore interface {
	// Save replaces the document atomically
	Save(ctx context.Context, key string, content []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) bool
	// Delete removes the document. A missing document is not an error.
	Delete(ctx context.Context, key string) error
}
