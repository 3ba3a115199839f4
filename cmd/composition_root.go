package cmd

import (
	"context"
	"fmt"

	fhttp "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/accountrepo"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg       Config
	gormDB    *gorm.DB
	gormUoW   postgres.GormUnitOfWorkFactory
	env       commands.Env
	baseFee   kernel.Money
	estimator *services.Estimator
	payments  *commands.PaymentRunner
}

// NewCompositionRoot wires the use cases over the store, the payment gateway
// and the routing provider. env carries the shared clock, retry policy,
// logger and metrics.
func NewCompositionRoot(
	cfg Config,
	gormDB *gorm.DB,
	gateway ports.PaymentGateway,
	router ports.RoutingProvider,
	env commands.Env,
) (*CompositionRoot, error) {
	baseFee, err := kernel.MoneyFromString(cfg.BaseFee)
	if err != nil {
		return nil, fmt.Errorf("base fee: %w", err)
	}
	schedule := services.DefaultFeeSchedule()
	if schedule.MinimumFee, err = kernel.MoneyFromString(cfg.MinimumFee); err != nil {
		return nil, fmt.Errorf("minimum fee: %w", err)
	}

	c := &CompositionRoot{
		cfg:     cfg,
		gormDB:  gormDB,
		gormUoW: *postgres.NewGormUnitOfWorkFactory(gormDB),
		env:     env,
		baseFee: baseFee,
	}

	c.estimator = services.NewEstimator(router, schedule,
		services.WithUrbanSpeed(cfg.UrbanSpeedMPH),
		services.WithFallbackHook(func(ctx context.Context, cause error) {
			env.Metrics.EstimateFallback()
			env.Log.Warn(ctx, "routing provider unavailable, using straight-line estimate", cause)
		}),
	)
	c.payments = commands.NewPaymentRunner(gateway, accountrepo.NewGormAccountDirectory(gormDB), c.uowFactory(), env)
	return c, nil
}

func (c *CompositionRoot) uowFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.gormUoW.Create()
	})
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.gormUoW.Create()
	})
}

func (c *CompositionRoot) BaseFee() kernel.Money {
	return c.baseFee
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.estimator, c.env)
}

func (c *CompositionRoot) CreateMarkReadyCommandHandler() commands.MarkReadyCommandHandler {
	return commands.NewMarkReadyCommandHandler(c.orderUoWFactory(), c.env)
}

func (c *CompositionRoot) CreateAcceptOrderCommandHandler() commands.AcceptOrderCommandHandler {
	return commands.NewAcceptOrderCommandHandler(c.uowFactory(), c.env)
}

func (c *CompositionRoot) CreateMarkPickedUpCommandHandler() commands.MarkPickedUpCommandHandler {
	return commands.NewMarkPickedUpCommandHandler(c.uowFactory(), c.payments, c.env)
}

func (c *CompositionRoot) CreateMarkDeliveredCommandHandler() commands.MarkDeliveredCommandHandler {
	return commands.NewMarkDeliveredCommandHandler(c.uowFactory(), c.payments, c.env)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.uowFactory(), c.payments, c.env)
}

func (c *CompositionRoot) CreateReconcilePaymentsCommandHandler() commands.ReconcilePaymentsCommandHandler {
	return commands.NewReconcilePaymentsCommandHandler(c.orderUoWFactory(), c.payments, c.env)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetSettlementQueryHandler() queries.GetSettlementQueryHandler {
	return queries.NewGetSettlementQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListDriverSettlementsQueryHandler() queries.ListDriverSettlementsQueryHandler {
	return queries.NewListDriverSettlementsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetDriverStatsQueryHandler() queries.GetDriverStatsQueryHandler {
	return queries.NewGetDriverStatsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateEstimateDeliveryQueryHandler() queries.EstimateDeliveryQueryHandler {
	return queries.NewEstimateDeliveryQueryHandler(c.estimator)
}

// CreateHTTPHandlers returns the use case set served by the REST API.
func (c *CompositionRoot) CreateHTTPHandlers() fhttp.Handlers {
	createOrder := c.CreateCreateOrderCommandHandler()
	markReady := c.CreateMarkReadyCommandHandler()
	accept := c.CreateAcceptOrderCommandHandler()
	pickup := c.CreateMarkPickedUpCommandHandler()
	deliver := c.CreateMarkDeliveredCommandHandler()
	cancel := c.CreateCancelOrderCommandHandler()

	return fhttp.Handlers{
		CreateOrder:   &createOrder,
		MarkReady:     &markReady,
		AcceptOrder:   &accept,
		MarkPickedUp:  &pickup,
		MarkDelivered: &deliver,
		CancelOrder:   &cancel,

		GetOrder:              c.CreateGetOrderQueryHandler(),
		ListOrders:            c.CreateListOrdersQueryHandler(),
		GetSettlement:         c.CreateGetSettlementQueryHandler(),
		ListDriverSettlements: c.CreateListDriverSettlementsQueryHandler(),
		GetDriverStats:        c.CreateGetDriverStatsQueryHandler(),
		EstimateDelivery:      c.CreateEstimateDeliveryQueryHandler(),
	}
}

func (c *CompositionRoot) CreateReconcilePaymentsJob() *jobs.ReconcilePaymentsJob {
	handler := c.CreateReconcilePaymentsCommandHandler()
	return jobs.NewReconcilePaymentsJob(&handler, c.cfg.ReconcileSchedule, c.cfg.ReconcileBatch, c.env.Log, c.env.Metrics)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
