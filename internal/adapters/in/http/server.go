// Package http exposes the coordinator over REST with echo. Requests are
// checked against the OpenAPI contract, converted into commands and queries,
// and answered with the committed state plus any side-effect warnings.
package http

import (
	"context"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// CommandHandler is implemented by every lifecycle command handler.
type CommandHandler[C any] interface {
	Handle(ctx context.Context, cmd C) (commands.TransitionResult, error)
}

// QueryHandler is implemented by every read-side handler.
type QueryHandler[Q, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
}

// Handlers is the set of use cases the server dispatches to.
type Handlers struct {
	CreateOrder   CreateOrderHandler
	MarkReady     CommandHandler[commands.MarkReadyCommand]
	AcceptOrder   CommandHandler[commands.AcceptOrderCommand]
	MarkPickedUp  CommandHandler[commands.MarkPickedUpCommand]
	MarkDelivered CommandHandler[commands.MarkDeliveredCommand]
	CancelOrder   CommandHandler[commands.CancelOrderCommand]

	GetOrder              QueryHandler[queries.GetOrderQuery, queries.OrderView]
	ListOrders            QueryHandler[queries.ListOrdersQuery, []queries.OrderView]
	GetSettlement         QueryHandler[queries.GetSettlementQuery, queries.SettlementView]
	ListDriverSettlements QueryHandler[queries.ListDriverSettlementsQuery, []queries.SettlementView]
	GetDriverStats        QueryHandler[queries.GetDriverStatsQuery, queries.DriverStatsView]
	EstimateDelivery      QueryHandler[queries.EstimateDeliveryQuery, services.Estimate]
}

// Server implements the REST endpoints.
type Server struct {
	h       Handlers
	baseFee kernel.Money
}

// NewServer creates a server; baseFee seeds the delivery fee schedule for
// new orders and quotes.
func NewServer(h Handlers, baseFee kernel.Money) *Server {
	return &Server{h: h, baseFee: baseFee}
}

// Register mounts the API under /api/v1. Mutating routes require the actor
// headers.
func (s *Server) Register(e *echo.Echo, actor echo.MiddlewareFunc) {
	v1 := e.Group("/api/v1")

	v1.POST("/orders", s.CreateOrder, actor)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/:orderId", s.GetOrder)
	v1.POST("/orders/:orderId/ready", s.MarkReady, actor)
	v1.POST("/orders/:orderId/accept", s.AcceptOrder, actor)
	v1.POST("/orders/:orderId/pickup", s.MarkPickedUp, actor)
	v1.POST("/orders/:orderId/deliver", s.MarkDelivered, actor)
	v1.POST("/orders/:orderId/cancel", s.CancelOrder, actor)
	v1.GET("/orders/:orderId/settlement", s.GetSettlement)
	v1.GET("/drivers/:driverId/settlements", s.ListDriverSettlements)
	v1.GET("/drivers/:driverId/stats", s.GetDriverStats)
	v1.POST("/estimates", s.EstimateDelivery)
}

func pathUUID(c echo.Context, name string) (kernel.UUID, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return kernel.UUID{}, badRequest(err)
	}
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, badRequest(err)
	}
	return id, nil
}

func queryUUID(c echo.Context, name string) (*kernel.UUID, error) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &raw); err != nil {
		return nil, badRequest(err)
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := kernel.UUIDFromString(*raw)
	if err != nil {
		return nil, badRequest(err)
	}
	return &id, nil
}

func queryString(c echo.Context, name string) (string, error) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &raw); err != nil {
		return "", badRequest(err)
	}
	if raw == nil {
		return "", nil
	}
	return *raw, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	var raw *int
	if err := runtime.BindQueryParameter("form", true, false, name, c.QueryParams(), &raw); err != nil {
		return 0, badRequest(err)
	}
	if raw == nil {
		return 0, nil
	}
	return *raw, nil
}

func bindBody[T any](c echo.Context) (T, error) {
	var body T
	if err := c.Bind(&body); err != nil {
		return body, badRequest(err)
	}
	if err := c.Validate(&body); err != nil {
		return body, err
	}
	return body, nil
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	body, err := bindBody[NewOrderRequest](c)
	if err != nil {
		return err
	}
	cmd, err := body.toCommand(s.baseFee)
	if err != nil {
		return badRequest(err)
	}

	o, err := s.h.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, orderFromAggregate(o))
}

// transition runs a lifecycle command built from the caller and order id.
func transition[C any](
	c echo.Context,
	handler CommandHandler[C],
	build func(kernel.Caller, kernel.UUID) (C, error),
) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	cmd, err := build(caller, orderID)
	if err != nil {
		return badRequest(err)
	}

	result, err := handler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transitionResponse(result))
}

// MarkReady handles POST /api/v1/orders/:orderId/ready.
func (s *Server) MarkReady(c echo.Context) error {
	return transition(c, s.h.MarkReady, commands.NewMarkReadyCommand)
}

// AcceptOrder handles POST /api/v1/orders/:orderId/accept.
func (s *Server) AcceptOrder(c echo.Context) error {
	return transition(c, s.h.AcceptOrder, commands.NewAcceptOrderCommand)
}

// MarkPickedUp handles POST /api/v1/orders/:orderId/pickup.
func (s *Server) MarkPickedUp(c echo.Context) error {
	return transition(c, s.h.MarkPickedUp, commands.NewMarkPickedUpCommand)
}

// MarkDelivered handles POST /api/v1/orders/:orderId/deliver.
func (s *Server) MarkDelivered(c echo.Context) error {
	return transition(c, s.h.MarkDelivered, commands.NewMarkDeliveredCommand)
}

// CancelOrder handles POST /api/v1/orders/:orderId/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	var body CancelRequest
	if c.Request().ContentLength != 0 {
		var err error
		if body, err = bindBody[CancelRequest](c); err != nil {
			return err
		}
	}
	return transition(c, s.h.CancelOrder, func(caller kernel.Caller, id kernel.UUID) (commands.CancelOrderCommand, error) {
		return commands.NewCancelOrderCommand(caller, id, body.Reason)
	})
}

// GetOrder handles GET /api/v1/orders/:orderId.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return badRequest(err)
	}

	view, err := s.h.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderFromView(view))
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(c echo.Context) error {
	var (
		filter queries.OrderFilter
		err    error
	)
	if filter.Status, err = queryString(c, "status"); err != nil {
		return err
	}
	if filter.DriverID, err = queryUUID(c, "driver_id"); err != nil {
		return err
	}
	if filter.VendorID, err = queryUUID(c, "vendor_id"); err != nil {
		return err
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return err
	}

	query, err := queries.NewListOrdersQuery(filter)
	if err != nil {
		return badRequest(err)
	}
	views, err := s.h.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	resp := make([]OrderResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, orderFromView(v))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSettlement handles GET /api/v1/orders/:orderId/settlement.
func (s *Server) GetSettlement(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	query, err := queries.NewGetSettlementQuery(orderID)
	if err != nil {
		return badRequest(err)
	}

	view, err := s.h.GetSettlement.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settlementFromView(view))
}

// ListDriverSettlements handles GET /api/v1/drivers/:driverId/settlements.
func (s *Server) ListDriverSettlements(c echo.Context) error {
	driverID, err := pathUUID(c, "driverId")
	if err != nil {
		return err
	}
	status, err := queryString(c, "status")
	if err != nil {
		return err
	}
	query, err := queries.NewListDriverSettlementsQuery(driverID, status)
	if err != nil {
		return badRequest(err)
	}

	views, err := s.h.ListDriverSettlements.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	resp := make([]SettlementResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, settlementFromView(v))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetDriverStats handles GET /api/v1/drivers/:driverId/stats.
func (s *Server) GetDriverStats(c echo.Context) error {
	driverID, err := pathUUID(c, "driverId")
	if err != nil {
		return err
	}
	query, err := queries.NewGetDriverStatsQuery(driverID)
	if err != nil {
		return badRequest(err)
	}

	view, err := s.h.GetDriverStats.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, driverStatsFromView(view))
}

// EstimateDelivery handles POST /api/v1/estimates.
func (s *Server) EstimateDelivery(c echo.Context) error {
	body, err := bindBody[EstimateRequest](c)
	if err != nil {
		return err
	}
	origin, err := body.Origin.toKernel()
	if err != nil {
		return badRequest(err)
	}
	destination, err := body.Destination.toKernel()
	if err != nil {
		return badRequest(err)
	}
	query, err := queries.NewEstimateDeliveryQuery(origin, destination, s.baseFee)
	if err != nil {
		return badRequest(err)
	}

	estimate, err := s.h.EstimateDelivery.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, estimateFromQuote(estimate))
}
