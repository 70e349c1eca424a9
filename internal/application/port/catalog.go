package port

import (
	"context"

	"warrantfeed/internal/domain"
)

// InstrumentCatalog lists the instruments to poll, in source order.
type InstrumentCatalog interface {
	Load(ctx context.Context) ([]domain.Instrument, error)
}
