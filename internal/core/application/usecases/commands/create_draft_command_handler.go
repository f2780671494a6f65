package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

const (
	// DedupWindow is how far back an identical unpaid draft is merged into.
	DedupWindow = 10 * time.Minute

	MaxTrackingCodeAttempts = 5
)

var ErrTrackingCodeCollision = errors.New("could not generate a unique tracking code")

// TrackingCodeGenerator produces candidate tracking codes.
type TrackingCodeGenerator func() (shipment.TrackingCode, error)

type CreateDraftResult struct {
	ShipmentID   kernel.UUID
	TrackingCode shipment.TrackingCode
	Price        kernel.Money
	// Merged is true when an existing draft was updated in place.
	Merged bool
	Reason errs.ReasonCode
}

// CreateDraftCommandHandler stores a new draft shipment or merges a
// resubmission into the requester's recent identical draft. Submissions
// sharing a dedup key are serialised, in process by the locker and across
// processes by the repository's transaction-scoped lock.
type CreateDraftCommandHandler struct {
	uowFactory   ShipmentUoWFactory
	locker       ShipmentLocker
	defaultPrice kernel.Money
	codes        TrackingCodeGenerator
}

func NewCreateDraftCommandHandler(
	uowFactory ShipmentUoWFactory,
	locker ShipmentLocker,
	defaultPrice kernel.Money,
	codes TrackingCodeGenerator,
) CreateDraftCommandHandler {
	if codes == nil {
		codes = shipment.NewTrackingCode
	}
	return CreateDraftCommandHandler{
		uowFactory:   uowFactory,
		locker:       locker,
		defaultPrice: defaultPrice,
		codes:        codes,
	}
}

func (h *CreateDraftCommandHandler) Handle(ctx context.Context, cmd CreateDraftCommand) (CreateDraftResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateDraftResult{}, err
	}

	price, ok := cmd.Price()
	if !ok {
		price = h.defaultPrice
	}
	key := shipment.DedupKey(cmd.RequesterID(), cmd.Sender(), cmd.Recipient(), cmd.Parcel())

	unlock := h.locker.Lock("draft:" + key)
	defer unlock()

	now := time.Now().UTC()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CreateDraftResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ShipmentRepository()
	if err := repo.LockDraftSubmission(ctx, key); err != nil {
		return CreateDraftResult{}, err
	}

	existing, err := repo.FindRecentDraft(ctx, key, now.Add(-DedupWindow))
	switch {
	case err == nil:
		return h.merge(ctx, uow, existing, cmd, price, now)
	case !errors.Is(err, errs.ErrObjectNotFound):
		return CreateDraftResult{}, err
	}

	draft, err := shipment.NewDraft(kernel.NewUUID(), cmd.RequesterID(), cmd.Sender(), cmd.Recipient(), cmd.Parcel(), price, now)
	if err != nil {
		return CreateDraftResult{}, err
	}

	code, err := h.uniqueTrackingCode(ctx, repo)
	if err != nil {
		return CreateDraftResult{}, err
	}
	if err = draft.AssignTrackingCode(code); err != nil {
		return CreateDraftResult{}, err
	}

	if err = repo.Add(ctx, draft); err != nil {
		return CreateDraftResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateDraftResult{}, err
	}

	return CreateDraftResult{
		ShipmentID:   draft.ID(),
		TrackingCode: draft.TrackingCode(),
		Price:        draft.Price(),
	}, nil
}

func (h *CreateDraftCommandHandler) merge(
	ctx context.Context,
	uow ShipmentUoW,
	existing *shipment.Shipment,
	cmd CreateDraftCommand,
	price kernel.Money,
	now time.Time,
) (CreateDraftResult, error) {
	if err := existing.UpdateDraft(cmd.Sender(), cmd.Recipient(), cmd.Parcel(), price, now); err != nil {
		return CreateDraftResult{}, err
	}
	if err := uow.ShipmentRepository().Update(ctx, existing); err != nil {
		return CreateDraftResult{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return CreateDraftResult{}, err
	}

	return CreateDraftResult{
		ShipmentID:   existing.ID(),
		TrackingCode: existing.TrackingCode(),
		Price:        existing.Price(),
		Merged:       true,
		Reason:       errs.ReasonDuplicateDraft,
	}, nil
}

func (h *CreateDraftCommandHandler) uniqueTrackingCode(ctx context.Context, repo ports.ShipmentRepository) (shipment.TrackingCode, error) {
	for range MaxTrackingCodeAttempts {
		code, err := h.codes()
		if err != nil {
			return "", err
		}
		exists, err := repo.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrTrackingCodeCollision, MaxTrackingCodeAttempts)
}
