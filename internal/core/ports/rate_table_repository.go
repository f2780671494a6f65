package ports

import (
	"context"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
)

// RateTableRepository reads carrier rate tables. Writes come from admin tooling.
type RateTableRepository interface {
	Add(ctx context.Context, table *rate.Table) error
	Get(ctx context.Context, id kernel.UUID) (*rate.Table, error)
	// ListByCarrier returns every version of one carrier's table, lowest version first.
	ListByCarrier(ctx context.Context, carrier string) ([]*rate.Table, error)
	// Activate marks one version active and all its siblings inactive in the current transaction.
	Activate(ctx context.Context, carrier string, version int) (*rate.Table, error)
}
