package policies

import (
	"context"
	"io"
)

// ReceiptStorage keeps payment proof images used for manual reconciliation.
type ReceiptStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
