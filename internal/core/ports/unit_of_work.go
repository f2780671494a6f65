// Package ports declares what the shipping core needs from the outside world:
// persistence, carriers, payments, notifications and the quote cache.
package ports

import "context"

type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is one business transaction. Repositories obtained after Begin
// share its transaction; Commit or Rollback ends it.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ShipmentRepository() ShipmentRepository
	PaymentRepository() PaymentRepository
	RateTableRepository() RateTableRepository
}
