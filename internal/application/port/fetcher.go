package port

import (
	"context"

	"warrantfeed/internal/domain"
)

// QuoteFetcher performs one batched upstream request. It never retries.
type QuoteFetcher interface {
	Fetch(ctx context.Context, symbols []string) ([]domain.RawQuoteEntry, error)
}
