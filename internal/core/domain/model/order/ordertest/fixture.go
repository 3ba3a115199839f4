// Package ordertest builds orders in any lifecycle status for tests.
package ordertest

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// Fixture describes an order to build. Default returns a realistic one:
// two items for a $20 subtotal, a 10 mile route and a $14.50 delivery fee.
type Fixture struct {
	ID         kernel.UUID
	Vendor     order.Party
	Customer   order.Party
	Items      []order.LineItem
	Charges    order.Charges
	Estimate   order.DeliveryEstimate
	PaymentRef string
	CreatedAt  time.Time
}

func Default() Fixture {
	vendorLoc := must(kernel.NewLocation(40.7128, -74.0060))
	customerLoc := must(kernel.NewLocation(40.8448, -73.8648))

	vendor := must(order.NewParty(kernel.NewUUID(), "Luigi's Kitchen", "+15550100", "12 Mulberry St", vendorLoc))
	customer := must(order.NewParty(kernel.NewUUID(), "Ada Customer", "+15550199", "900 Grand Concourse", customerLoc))

	burger := must(order.NewLineItem(kernel.NewUUID(), "Burger", 1, money("12.00")))
	fries := must(order.NewLineItem(kernel.NewUUID(), "Fries", 2, money("4.00")))

	return Fixture{
		ID:       kernel.NewUUID(),
		Vendor:   vendor,
		Customer: customer,
		Items:    []order.LineItem{burger, fries},
		Charges: order.Charges{
			DeliveryFee: money("14.50"),
			Tax:         money("1.60"),
			ServiceFee:  money("1.00"),
			Tip:         money("3.00"),
		},
		Estimate: order.DeliveryEstimate{
			DistanceMeters: 16093,
			DriveSeconds:   1800,
			ETAMinutes:     50,
		},
		PaymentRef: "pi_test_123",
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// New builds the order in Preparing.
func (f Fixture) New() *order.Order {
	return must(order.NewOrder(f.ID, f.Customer, f.Vendor, f.Items, f.Charges, f.Estimate, f.PaymentRef, f.CreatedAt))
}

// VendorCaller is the owning vendor of the fixture.
func (f Fixture) VendorCaller() kernel.Caller {
	return kernel.Caller{ID: f.Vendor.ID(), Role: kernel.RoleVendor}
}

// DriverCaller returns a caller acting as driver id.
func DriverCaller(id kernel.UUID) kernel.Caller {
	return kernel.Caller{ID: id, Role: kernel.RoleDriver}
}

// At builds the order and walks it to status. Driver-bearing statuses are
// assigned to driver. Steps are ten minutes apart starting at CreatedAt.
func (f Fixture) At(status order.Status, driver kernel.UUID) *order.Order {
	o := f.New()
	at := f.CreatedAt
	next := func() time.Time {
		at = at.Add(10 * time.Minute)
		return at
	}

	if status == order.Cancelled {
		check(o.Cancel(f.VendorCaller(), "out of stock", next()))
		return o
	}
	if status.Reached(order.AwaitingDriver) {
		check(o.MarkReady(f.VendorCaller(), next()))
	}
	if status.Reached(order.DriverToPickup) {
		_, err := o.Accept(DriverCaller(driver), next())
		check(err)
	}
	if status.Reached(order.DriverDelivering) {
		_, err := o.MarkPickedUp(DriverCaller(driver), next())
		check(err)
	}
	if status.Reached(order.Delivered) {
		_, err := o.MarkDelivered(DriverCaller(driver), next())
		check(err)
	}
	return o
}

func money(s string) kernel.Money {
	return must(kernel.MoneyFromString(s))
}

func must[T any](v T, err error) T {
	check(err)
	return v
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
