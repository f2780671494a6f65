// Package commands contains the operations that change shipment, payment and
// rate-table state. Each handler validates its command, runs its writes inside
// a unit of work and reports failures with a reason code (errs.ReasonOf).
package commands

import (
	"context"

	"shipping/internal/core/ports"
)

// Unit of Work interfaces narrowed to the repositories each handler touches.
type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	ShipmentRepoFactory interface {
		ShipmentRepository() ports.ShipmentRepository
	}

	PaymentRepoFactory interface {
		PaymentRepository() ports.PaymentRepository
	}

	RateTableRepoFactory interface {
		RateTableRepository() ports.RateTableRepository
	}

	// ShipmentUoW is used by commands that only modify shipments.
	ShipmentUoW interface {
		TxManager
		ShipmentRepoFactory
	}

	ShipmentUoWFactory interface {
		Create() ShipmentUoW
	}

	// PaymentUoW spans a shipment and its payment records so that a captured
	// payment and the paid status commit together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   _ = uow.PaymentRepository().Add(ctx, record)
	//   _ = uow.ShipmentRepository().Update(ctx, shipment)
	//
	//   err = uow.Commit(ctx)
	PaymentUoW interface {
		TxManager
		ShipmentRepoFactory
		PaymentRepoFactory
	}

	PaymentUoWFactory interface {
		Create() PaymentUoW
	}

	RateTableUoW interface {
		TxManager
		RateTableRepoFactory
	}

	RateTableUoWFactory interface {
		Create() RateTableUoW
	}
)

// ShipmentLocker serialises work on one shipment within the process.
type ShipmentLocker interface {
	Lock(key string) (unlock func())
}
