package kernel

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Role is the capacity in which a caller invokes an operation.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
	RoleSystem   Role = "system"
)

func (r Role) Validate() error {
	switch r {
	case RoleVendor, RoleDriver, RoleCustomer, RoleSystem:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", string(r)))
	}
}

// Caller is the explicit identity every coordinator operation is invoked with.
type Caller struct {
	ID   UUID
	Role Role
}

func NewCaller(id UUID, role Role) (Caller, error) {
	c := Caller{ID: id, Role: role}
	if err := c.Validate(); err != nil {
		return Caller{}, err
	}
	return c, nil
}

// SystemCaller identifies background jobs.
func SystemCaller(id UUID) Caller {
	return Caller{ID: id, Role: RoleSystem}
}

func (c Caller) Validate() error {
	return errors.Join(c.ID.Validate(), c.Role.Validate())
}

// Is reports whether the caller acts in role with identity id.
func (c Caller) Is(role Role, id UUID) bool {
	return c.Role == role && c.ID.IsEqual(id)
}

func (c Caller) String() string {
	return fmt.Sprintf("%s:%s", c.Role, c.ID)
}
