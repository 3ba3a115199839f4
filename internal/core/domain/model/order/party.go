package order

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrPartyIsNotConstructed = errs.NewValueIsRequiredError("party must be created via NewParty")

// Party is the contact card of the vendor or the customer as captured on the order.
type Party struct {
	id       kernel.UUID
	name     string
	phone    string
	address  string
	location kernel.Location
	guard    guard.ConstructorGuard
}

// NewParty requires an identity, a name and a location. Phone and address may be empty.
func NewParty(id kernel.UUID, name, phone, address string, location kernel.Location) (Party, error) {
	p := Party{
		id:       id,
		name:     strings.TrimSpace(name),
		phone:    strings.TrimSpace(phone),
		address:  strings.TrimSpace(address),
		location: location,
		guard:    guard.NewConstructorGuard(),
	}

	var nameErr error
	if p.name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}

	if err := errors.Join(id.Validate(), nameErr, location.Validate()); err != nil {
		return Party{}, err
	}
	return p, nil
}

func (p Party) Validate() error {
	return p.guard.Validate(ErrPartyIsNotConstructed)
}

func (p Party) ID() kernel.UUID { return p.id }
func (p Party) Name() string { return p.name }
func (p Party) Phone() string { return p.phone }
func (p Party) Address() string { return p.address }
func (p Party) Location() kernel.Location { return p.location }
