package ports

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
)

// QuoteCache keeps quotes until they expire.
type QuoteCache interface {
	Save(ctx context.Context, quote *rate.Quote) error
	// Get returns errs.ErrObjectNotFound for unknown or expired quotes.
	Get(ctx context.Context, id kernel.UUID) (*rate.Quote, error)
	Delete(ctx context.Context, id kernel.UUID) error
}
