package payments

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/logger"
)

const DefaultLockTTL = 30 * time.Second

var errInProgress = errors.New("side effect in progress elsewhere")

// GuardedGateway records every completed payment side effect in an
// idempotency store so that a command retry and the reconcile job cannot
// execute it twice. Store outages fail open; the processor's own
// idempotency keys still deduplicate.
type GuardedGateway struct {
	next    ports.PaymentGateway
	store   ports.IdempotencyStore
	lockTTL time.Duration
	log     *logger.Logger
}

var _ ports.PaymentGateway = (*GuardedGateway)(nil)

func NewGuardedGateway(next ports.PaymentGateway, store ports.IdempotencyStore, lockTTL time.Duration, log *logger.Logger) *GuardedGateway {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GuardedGateway{next: next, store: store, lockTTL: lockTTL, log: log}
}

func (g *GuardedGateway) CaptureAndTransfer(ctx context.Context, paymentRef, vendorAccount string, vendorAmount kernel.Money) error {
	return g.once(ctx, ports.PaymentOpCaptureAndTransfer, paymentRef, func() error {
		return g.next.CaptureAndTransfer(ctx, paymentRef, vendorAccount, vendorAmount)
	})
}

func (g *GuardedGateway) Transfer(ctx context.Context, paymentRef, driverAccount string, driverAmount kernel.Money) error {
	return g.once(ctx, ports.PaymentOpTransfer, paymentRef, func() error {
		return g.next.Transfer(ctx, paymentRef, driverAccount, driverAmount)
	})
}

func (g *GuardedGateway) Release(ctx context.Context, paymentRef string) error {
	return g.once(ctx, ports.PaymentOpRelease, paymentRef, func() error {
		return g.next.Release(ctx, paymentRef)
	})
}

func (g *GuardedGateway) once(ctx context.Context, operation, paymentRef string, call func() error) error {
	key := paymentRef + ":" + operation
	ctx = g.log.WithFields(ctx, map[string]any{"payment_op": operation, "payment_ref": paymentRef})

	done, err := g.store.Done(ctx, key)
	if err != nil {
		g.log.Warn(ctx, "idempotency lookup failed, calling gateway unguarded", err)
		return call()
	}
	if done {
		g.log.Debug(ctx, "payment side effect already applied")
		return nil
	}

	acquired, err := g.store.Acquire(ctx, key, g.lockTTL)
	if err != nil {
		g.log.Warn(ctx, "idempotency lock failed, calling gateway unguarded", err)
		return call()
	}
	if !acquired {
		return errs.NewPaymentGatewayError(operation, paymentRef, true, errInProgress)
	}

	if err := call(); err != nil {
		if releaseErr := g.store.Release(ctx, key); releaseErr != nil {
			g.log.Warn(ctx, "idempotency lock release failed", releaseErr)
		}
		return err
	}

	if err := g.store.MarkDone(ctx, key); err != nil {
		g.log.Error(ctx, "payment applied but not recorded", err)
	}
	return nil
}
