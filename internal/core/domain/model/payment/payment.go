// Package payment records each attempt to capture money for a shipment.
package payment

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
)

var ErrRecordIsNotConstructed = errors.New("payment record must be created via NewRecord or RestoreRecord")

type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Failed    Status = "failed"
)

func (s Status) Validate() error {
	switch s {
	case Pending, Completed, Failed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("paymentStatus", fmt.Errorf("%q is not a payment record status", string(s)))
	}
}

// Record is one payment attempt. It moves from pending to completed or failed exactly once.
type Record struct {
	id                    kernel.UUID
	shipmentID            kernel.UUID
	amount                kernel.Money
	method                string
	provider              string
	providerTransactionID string
	idempotencyKey        string
	status                Status
	failureReason         string
	metadata              map[string]any
	createdAt             time.Time
	updatedAt             time.Time

	isConstructed bool
}

// IdempotencyKey is the key sent to the payment provider for one attempt.
func IdempotencyKey(shipmentID kernel.UUID, attempt int) string {
	return fmt.Sprintf("shipment-%s-attempt-%d", shipmentID, attempt)
}

// NewRecord starts a pending attempt.
func NewRecord(
	id, shipmentID kernel.UUID,
	amount kernel.Money,
	method, provider, idempotencyKey string,
	metadata map[string]any,
	now time.Time,
) (*Record, error) {
	r := &Record{
		id:             id,
		shipmentID:     shipmentID,
		amount:         amount,
		method:         strings.TrimSpace(method),
		provider:       strings.TrimSpace(provider),
		idempotencyKey: idempotencyKey,
		status:         Pending,
		metadata:       maps.Clone(metadata),
		createdAt:      now.UTC(),
		updatedAt:      now.UTC(),
		isConstructed:  true,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// RestoreParams carries persisted state back into a Record.
type RestoreParams struct {
	ID                    kernel.UUID
	ShipmentID            kernel.UUID
	Amount                kernel.Money
	Method                string
	Provider              string
	ProviderTransactionID string
	IdempotencyKey        string
	Status                Status
	FailureReason         string
	Metadata              map[string]any
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func RestoreRecord(p RestoreParams) (*Record, error) {
	r := &Record{
		id:                    p.ID,
		shipmentID:            p.ShipmentID,
		amount:                p.Amount,
		method:                p.Method,
		provider:              p.Provider,
		providerTransactionID: p.ProviderTransactionID,
		idempotencyKey:        p.IdempotencyKey,
		status:                p.Status,
		failureReason:         p.FailureReason,
		metadata:              maps.Clone(p.Metadata),
		createdAt:             p.CreatedAt.UTC(),
		updatedAt:             p.UpdatedAt.UTC(),
		isConstructed:         true,
	}
	if err := errors.Join(r.validate(), p.Status.Validate()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRecordIsNotConstructed
	}
	return nil
}

func (r *Record) ID() kernel.UUID               { return r.id }
func (r *Record) ShipmentID() kernel.UUID       { return r.shipmentID }
func (r *Record) Amount() kernel.Money          { return r.amount }
func (r *Record) Method() string                { return r.method }
func (r *Record) Provider() string              { return r.provider }
func (r *Record) ProviderTransactionID() string { return r.providerTransactionID }
func (r *Record) IdempotencyKey() string        { return r.idempotencyKey }
func (r *Record) Status() Status                { return r.status }
func (r *Record) FailureReason() string         { return r.failureReason }
func (r *Record) Metadata() map[string]any      { return maps.Clone(r.metadata) }
func (r *Record) CreatedAt() time.Time          { return r.createdAt }
func (r *Record) UpdatedAt() time.Time          { return r.updatedAt }

func (r *Record) Complete(providerTransactionID string, now time.Time) error {
	if r.status != Pending {
		return fmt.Errorf("%w: payment %s is %s", errs.ErrInvalidState, r.id, r.status)
	}
	if providerTransactionID == "" {
		return errs.NewValueIsRequiredError("providerTransactionID")
	}
	r.status = Completed
	r.providerTransactionID = providerTransactionID
	r.updatedAt = now.UTC()
	return nil
}

// Fail records the provider's reason. providerTransactionID may be empty when
// the provider never created a transaction.
func (r *Record) Fail(providerTransactionID, reason string, now time.Time) error {
	if r.status != Pending {
		return fmt.Errorf("%w: payment %s is %s", errs.ErrInvalidState, r.id, r.status)
	}
	r.status = Failed
	r.providerTransactionID = providerTransactionID
	r.failureReason = reason
	r.updatedAt = now.UTC()
	return nil
}

func (r *Record) validate() error {
	var result []error
	if r.method == "" {
		result = append(result, errs.NewValueIsRequiredError("method"))
	}
	if r.provider == "" {
		result = append(result, errs.NewValueIsRequiredError("provider"))
	}
	if r.idempotencyKey == "" {
		result = append(result, errs.NewValueIsRequiredError("idempotencyKey"))
	}
	return errors.Join(append(result, r.id.Validate(), r.shipmentID.Validate(), r.amount.Validate())...)
}
