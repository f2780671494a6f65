package commands

import (
	"errors"
	"strings"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

var ErrCreateDraftCommandIsNotConstructed = errors.New(
	"CreateDraftCommand must be created via NewCreateDraftCommand constructor",
)

// CreateDraftCommand describes a package a customer wants to send.
//
// Example:
//
//	cmd, err := NewCreateDraftCommand("user-42", sender, recipient, parcel, nil)
//	if err != nil {
//	    return fmt.Errorf("invalid draft: %w", err)
//	}
//	res, err := handler.Handle(ctx, cmd)
//	// res.Merged is true when a recent identical draft was updated instead
type CreateDraftCommand struct { //nolint:recvcheck //using for validation
	requesterID string
	sender      kernel.Party
	recipient   kernel.Party
	parcel      kernel.Parcel
	price       *kernel.Money

	guard guard.ConstructorGuard
}

// NewCreateDraftCommand validates the draft input. A nil price means the
// handler's configured default applies.
func NewCreateDraftCommand(
	requesterID string,
	sender, recipient kernel.Party,
	parcel kernel.Parcel,
	price *kernel.Money,
) (CreateDraftCommand, error) {
	cmd := CreateDraftCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setRequesterID(requesterID),
		cmd.setParties(sender, recipient),
		cmd.setParcel(parcel),
		cmd.setPrice(price),
	); err != nil {
		return CreateDraftCommand{}, err
	}

	return cmd, nil
}

func (c CreateDraftCommand) Validate() error {
	return c.guard.Validate(ErrCreateDraftCommandIsNotConstructed)
}

func (c CreateDraftCommand) RequesterID() string     { return c.requesterID }
func (c CreateDraftCommand) Sender() kernel.Party    { return c.sender }
func (c CreateDraftCommand) Recipient() kernel.Party { return c.recipient }
func (c CreateDraftCommand) Parcel() kernel.Parcel   { return c.parcel }

// Price returns the client-supplied provisional price, if any.
func (c CreateDraftCommand) Price() (kernel.Money, bool) {
	if c.price == nil {
		return kernel.Money{}, false
	}
	return *c.price, true
}

func (c *CreateDraftCommand) setRequesterID(requesterID string) error {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return errs.NewValueIsRequiredError("requesterId")
	}
	c.requesterID = requesterID
	return nil
}

func (c *CreateDraftCommand) setParties(sender, recipient kernel.Party) error {
	var senderErr, recipientErr error
	if err := sender.Validate(); err != nil {
		senderErr = errs.NewValueIsInvalidErrorWithCause("sender", err)
	}
	if err := recipient.Validate(); err != nil {
		recipientErr = errs.NewValueIsInvalidErrorWithCause("recipient", err)
	}
	if err := errors.Join(senderErr, recipientErr); err != nil {
		return err
	}

	c.sender = sender
	c.recipient = recipient
	return nil
}

func (c *CreateDraftCommand) setParcel(parcel kernel.Parcel) error {
	if err := parcel.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("parcel", err)
	}
	c.parcel = parcel
	return nil
}

func (c *CreateDraftCommand) setPrice(price *kernel.Money) error {
	if price == nil {
		return nil
	}
	if err := price.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("price", err)
	}
	p := *price
	c.price = &p
	return nil
}
