package http

import (
	"errors"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
)

type Location struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

func (l Location) toKernel() (kernel.Location, error) {
	return kernel.NewLocation(*l.Lat, *l.Lng)
}

type Party struct {
	ID       string   `json:"id" validate:"required,uuid"`
	Name     string   `json:"name" validate:"required,max=200"`
	Phone    string   `json:"phone,omitempty" validate:"max=40"`
	Address  string   `json:"address,omitempty" validate:"max=500"`
	Location Location `json:"location"`
}

type Item struct {
	ItemID    string `json:"item_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=200"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	UnitPrice string `json:"unit_price" validate:"required,numeric"`
}

type NewOrderRequest struct {
	ID         string `json:"id,omitempty" validate:"omitempty,uuid"`
	Customer   Party  `json:"customer"`
	Vendor     Party  `json:"vendor"`
	Items      []Item `json:"items" validate:"required,min=1,dive"`
	Tax        string `json:"tax,omitempty" validate:"omitempty,numeric"`
	ServiceFee string `json:"service_fee,omitempty" validate:"omitempty,numeric"`
	Tip        string `json:"tip,omitempty" validate:"omitempty,numeric"`
	PaymentRef string `json:"payment_ref,omitempty" validate:"max=255"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type EstimateRequest struct {
	Origin      Location `json:"origin"`
	Destination Location `json:"destination"`
}

// toCommand converts the request. Field errors are joined.
func (r NewOrderRequest) toCommand(baseFee kernel.Money) (commands.CreateOrderCommand, error) {
	var errList []error
	collect := func(err error) {
		if err != nil {
			errList = append(errList, err)
		}
	}

	orderID := kernel.NewUUID()
	if r.ID != "" {
		id, err := kernel.UUIDFromString(r.ID)
		collect(err)
		orderID = id
	}

	customer, err := r.Customer.toParty()
	collect(err)
	vendor, err := r.Vendor.toParty()
	collect(err)

	items := make([]order.LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		item, err := it.toLineItem()
		collect(err)
		items = append(items, item)
	}

	var charges order.Charges
	charges.Tax, err = optionalMoney(r.Tax)
	collect(err)
	charges.ServiceFee, err = optionalMoney(r.ServiceFee)
	collect(err)
	charges.Tip, err = optionalMoney(r.Tip)
	collect(err)

	if len(errList) > 0 {
		return commands.CreateOrderCommand{}, errors.Join(errList...)
	}
	return commands.NewCreateOrderCommand(orderID, customer, vendor, items, charges, baseFee, r.PaymentRef)
}

func (p Party) toParty() (order.Party, error) {
	id, err := kernel.UUIDFromString(p.ID)
	if err != nil {
		return order.Party{}, err
	}
	loc, err := p.Location.toKernel()
	if err != nil {
		return order.Party{}, err
	}
	return order.NewParty(id, p.Name, p.Phone, p.Address, loc)
}

func (i Item) toLineItem() (order.LineItem, error) {
	id, err := kernel.UUIDFromString(i.ItemID)
	if err != nil {
		return order.LineItem{}, err
	}
	price, err := kernel.MoneyFromString(i.UnitPrice)
	if err != nil {
		return order.LineItem{}, err
	}
	return order.NewLineItem(id, i.Name, i.Quantity, price)
}

func optionalMoney(s string) (kernel.Money, error) {
	if s == "" {
		return kernel.Zero, nil
	}
	return kernel.MoneyFromString(s)
}

type PartyResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone,omitempty"`
	Address  string   `json:"address,omitempty"`
	Location Location `json:"location"`
}

type ItemResponse struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type EstimateResponse struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	ETAMinutes      int    `json:"eta_minutes"`
	Fee             string `json:"fee,omitempty"`
	Fallback        bool   `json:"fallback"`
}

type OrderResponse struct {
	ID            string               `json:"id"`
	Status        string               `json:"status"`
	DriverID      *string              `json:"driver_id"`
	Vendor        PartyResponse        `json:"vendor"`
	Customer      PartyResponse        `json:"customer"`
	Items         []ItemResponse       `json:"items,omitempty"`
	Subtotal      string               `json:"subtotal"`
	DeliveryFee   string               `json:"delivery_fee"`
	Tax           string               `json:"tax"`
	ServiceFee    string               `json:"service_fee"`
	Tip           string               `json:"tip"`
	Total         string               `json:"total"`
	Estimate      EstimateResponse     `json:"estimate"`
	PaymentStatus string               `json:"payment_status"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	Timeline      map[string]time.Time `json:"timeline"`
}

type WarningResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type TransitionResponse struct {
	Order    OrderResponse     `json:"order"`
	Replayed bool              `json:"replayed"`
	Warnings []WarningResponse `json:"warnings"`
}

type SettlementResponse struct {
	ID            string               `json:"id"`
	OrderID       string               `json:"order_id"`
	DriverID      string               `json:"driver_id"`
	Status        string               `json:"status"`
	Vendor        PartyResponse        `json:"vendor"`
	Customer      PartyResponse        `json:"customer"`
	Items         []ItemResponse       `json:"items,omitempty"`
	Subtotal      string               `json:"subtotal"`
	Total         string               `json:"total"`
	Earned        string               `json:"earned"`
	PaymentStatus string               `json:"payment_status"`
	Estimate      EstimateResponse     `json:"estimate"`
	Timeline      map[string]time.Time `json:"timeline"`
	Durations     map[string]*int      `json:"durations"`
	Efficiencies  map[string]*int      `json:"efficiencies"`
}

type DriverStatsResponse struct {
	DriverID       string     `json:"driver_id"`
	Deliveries     int        `json:"deliveries"`
	Earnings       string     `json:"earnings"`
	Items          int        `json:"items"`
	DistanceMeters int64      `json:"distance_meters"`
	Miles          float64    `json:"miles"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type ErrorResponse struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	Precondition string `json:"precondition,omitempty"`
	Current      string `json:"current,omitempty"`
}

func locationResponse(l kernel.Location) Location {
	lat, lng := l.Lat(), l.Lng()
	return Location{Lat: &lat, Lng: &lng}
}

func timeline(entries map[string]*time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(entries))
	for k, v := range entries {
		if v != nil {
			out[k] = v.UTC()
		}
	}
	return out
}

func orderFromAggregate(o *order.Order) OrderResponse {
	s := o.Snapshot()
	party := func(p order.Party) PartyResponse {
		return PartyResponse{
			ID:       p.ID().String(),
			Name:     p.Name(),
			Phone:    p.Phone(),
			Address:  p.Address(),
			Location: locationResponse(p.Location()),
		}
	}

	items := make([]ItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ItemResponse{
			ItemID:    it.ItemID().String(),
			Name:      it.Name(),
			Quantity:  it.Quantity(),
			UnitPrice: it.UnitPrice().String(),
		})
	}

	created := s.Timeline.CreatedAt
	resp := OrderResponse{
		ID:          s.ID.String(),
		Status:      s.Status.String(),
		Vendor:      party(s.Vendor),
		Customer:    party(s.Customer),
		Items:       items,
		Subtotal:    s.Amounts.Subtotal.String(),
		DeliveryFee: s.Amounts.DeliveryFee.String(),
		Tax:         s.Amounts.Tax.String(),
		ServiceFee:  s.Amounts.ServiceFee.String(),
		Tip:         s.Amounts.Tip.String(),
		Total:       s.Amounts.Total.String(),
		Estimate: EstimateResponse{
			DistanceMeters:  s.Estimate.DistanceMeters,
			DurationSeconds: s.Estimate.DriveSeconds,
			ETAMinutes:      s.Estimate.ETAMinutes,
			Fallback:        s.Estimate.Fallback,
		},
		PaymentStatus: string(s.PaymentStatus),
		CancelReason:  s.CancelReason,
		Timeline: timeline(map[string]*time.Time{
			"created_at":         &created,
			"vendor_ready_at":    s.Timeline.VendorReadyAt,
			"driver_assigned_at": s.Timeline.DriverAssignedAt,
			"picked_up_at":       s.Timeline.PickedUpAt,
			"delivered_at":       s.Timeline.DeliveredAt,
			"cancelled_at":       s.Timeline.CancelledAt,
		}),
	}
	if s.DriverID != nil {
		id := s.DriverID.String()
		resp.DriverID = &id
	}
	return resp
}

func transitionResponse(r commands.TransitionResult) TransitionResponse {
	warnings := make([]WarningResponse, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, WarningResponse{Kind: string(w.Kind), Message: w.Message})
	}
	return TransitionResponse{
		Order:    orderFromAggregate(r.Order),
		Replayed: r.Replayed,
		Warnings: warnings,
	}
}

func partyFromView(p queries.Party) PartyResponse {
	lat, lng := p.Lat, p.Lng
	return PartyResponse{
		ID:       p.ID.String(),
		Name:     p.Name,
		Phone:    p.Phone,
		Address:  p.Address,
		Location: Location{Lat: &lat, Lng: &lng},
	}
}

func itemsFromView(items []queries.OrderItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			ItemID:    it.ItemID.String(),
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.String(),
		})
	}
	return out
}

func estimateFromView(e queries.Estimate) EstimateResponse {
	return EstimateResponse{
		DistanceMeters:  e.DistanceMeters,
		DurationSeconds: e.DriveSeconds,
		ETAMinutes:      e.ETAMinutes,
		Fallback:        e.Fallback,
	}
}

func orderFromView(v queries.OrderView) OrderResponse {
	created := v.Timeline.CreatedAt
	resp := OrderResponse{
		ID:            v.ID.String(),
		Status:        v.Status,
		Vendor:        partyFromView(v.Vendor),
		Customer:      partyFromView(v.Customer),
		Subtotal:      v.Subtotal.String(),
		DeliveryFee:   v.DeliveryFee.String(),
		Tax:           v.Tax.String(),
		ServiceFee:    v.ServiceFee.String(),
		Tip:           v.Tip.String(),
		Total:         v.Total.String(),
		Estimate:      estimateFromView(v.Estimate),
		PaymentStatus: v.PaymentStatus,
		CancelReason:  v.CancelReason,
		Timeline: timeline(map[string]*time.Time{
			"created_at":         &created,
			"vendor_ready_at":    v.Timeline.VendorReadyAt,
			"driver_assigned_at": v.Timeline.DriverAssignedAt,
			"picked_up_at":       v.Timeline.PickedUpAt,
			"delivered_at":       v.Timeline.DeliveredAt,
			"cancelled_at":       v.Timeline.CancelledAt,
		}),
	}
	if len(v.Items) > 0 {
		resp.Items = itemsFromView(v.Items)
	}
	if v.DriverID != nil {
		id := v.DriverID.String()
		resp.DriverID = &id
	}
	return resp
}

func settlementFromView(v queries.SettlementView) SettlementResponse {
	accepted := v.AcceptedAt
	resp := SettlementResponse{
		ID:            v.ID.String(),
		OrderID:       v.OrderID.String(),
		DriverID:      v.DriverID.String(),
		Status:        v.Status,
		Vendor:        partyFromView(v.Vendor),
		Customer:      partyFromView(v.Customer),
		Subtotal:      v.Subtotal.String(),
		Total:         v.Total.String(),
		Earned:        v.Earned.String(),
		PaymentStatus: v.PaymentStatus,
		Estimate:      estimateFromView(v.Estimate),
		Timeline: timeline(map[string]*time.Time{
			"accepted_at":  &accepted,
			"picked_up_at": v.PickedUpAt,
			"delivered_at": v.DeliveredAt,
			"finalized_at": v.FinalizedAt,
		}),
		Durations: map[string]*int{
			"pickup":   v.PickupSeconds,
			"delivery": v.DeliverySeconds,
			"total":    v.TotalSeconds,
		},
		Efficiencies: map[string]*int{
			"pickup":   v.PickupEfficiency,
			"delivery": v.DeliveryEfficiency,
			"overall":  v.OverallEfficiency,
		},
	}
	if len(v.Items) > 0 {
		resp.Items = itemsFromView(v.Items)
	}
	return resp
}

func driverStatsFromView(v queries.DriverStatsView) DriverStatsResponse {
	return DriverStatsResponse{
		DriverID:       v.DriverID.String(),
		Deliveries:     v.Deliveries,
		Earnings:       v.Earnings.String(),
		Items:          v.Items,
		DistanceMeters: v.DistanceMeters,
		Miles:          v.Miles,
		UpdatedAt:      v.UpdatedAt,
	}
}

func estimateFromQuote(e services.Estimate) EstimateResponse {
	return EstimateResponse{
		DistanceMeters:  e.DistanceMeters,
		DurationSeconds: e.DurationSeconds,
		ETAMinutes:      e.ETAMinutes,
		Fee:             e.Fee.String(),
		Fallback:        e.Fallback,
	}
}
