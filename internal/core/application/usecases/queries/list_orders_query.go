package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// OrderFilter narrows ListOrdersQuery. Zero fields match everything.
type OrderFilter struct {
	Status   string
	DriverID *kernel.UUID
	VendorID *kernel.UUID
	Limit    int
}

// ListOrdersQuery lists orders oldest first. Drivers poll it with
// status awaiting_driver to find work.
type ListOrdersQuery struct {
	status   *order.Status
	driverID *kernel.UUID
	vendorID *kernel.UUID
	limit    int
	guard    guard.ConstructorGuard
}

func NewListOrdersQuery(filter OrderFilter) (ListOrdersQuery, error) {
	q := ListOrdersQuery{
		driverID: filter.DriverID,
		vendorID: filter.VendorID,
		limit:    filter.Limit,
		guard:    guard.NewConstructorGuard(),
	}

	var errList []error
	if filter.Status != "" {
		status, err := order.ParseStatus(filter.Status)
		if err != nil {
			errList = append(errList, err)
		}
		q.status = &status
	}
	if filter.DriverID != nil {
		errList = append(errList, filter.DriverID.Validate())
	}
	if filter.VendorID != nil {
		errList = append(errList, filter.VendorID.Validate())
	}
	switch {
	case filter.Limit == 0:
		q.limit = DefaultListLimit
	case filter.Limit < 0 || filter.Limit > MaxListLimit:
		errList = append(errList, errs.NewValueIsOutOfRangeError("limit", filter.Limit, 1, MaxListLimit))
	}

	if err := errors.Join(errList...); err != nil {
		return ListOrdersQuery{}, err
	}
	return q, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Status() *order.Status { return q.status }
func (q ListOrdersQuery) DriverID() *kernel.UUID { return q.driverID }
func (q ListOrdersQuery) VendorID() *kernel.UUID { return q.vendorID }
func (q ListOrdersQuery) Limit() int { return q.limit }
