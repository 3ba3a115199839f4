package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/pkg/retry"
)

// WarningKind classifies a side effect that failed without failing the operation.
type WarningKind string

const (
	WarningInsufficientStock     WarningKind = "insufficient_stock"
	WarningInventoryItemMissing  WarningKind = "inventory_item_missing"
	WarningPaymentGatewayFailure WarningKind = "payment_gateway_failure"
)

type Warning struct {
	Kind    WarningKind
	Message string
}

// TransitionResult is returned by every lifecycle operation. Order is the
// committed state; Replayed is set when the call repeated an operation that
// had already taken effect and changed nothing.
type TransitionResult struct {
	Order    *order.Order
	Status   order.Status
	Replayed bool
	Warnings []Warning
}

func newTransitionResult(o *order.Order, replayed bool, warnings []Warning) TransitionResult {
	return TransitionResult{
		Order:    o,
		Status:   o.Status(),
		Replayed: replayed,
		Warnings: warnings,
	}
}

// Env holds what every handler needs besides its unit of work.
type Env struct {
	Clock   ports.Clock
	Retry   retry.Policy
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

func (e Env) withDefaults() Env {
	if e.Clock == nil {
		e.Clock = ports.ClockFunc(time.Now)
	}
	if e.Retry.MaxAttempts == 0 {
		e.Retry = retry.Default()
	}
	if e.Log == nil {
		e.Log = logger.Nop()
	}
	return e
}

// now is the server timestamp recorded for a transition.
func (e Env) now() time.Time {
	return e.Clock.Now().UTC()
}

// transact runs attempt in a fresh unit of work, retrying transient store
// failures and lost conditional writes. Each attempt re-reads the order, so
// a retry re-evaluates the transition against the latest state.
func transact[U TxManager](
	ctx context.Context,
	env Env,
	operation string,
	create func() U,
	attempt func(ctx context.Context, uow U) error,
) error {
	policy := env.Retry
	policy.OnRetry = func(err error, wait time.Duration) {
		env.Metrics.Retry(operation)
		env.Log.Debug(env.Log.WithFields(ctx, map[string]any{
			"operation": operation,
			"wait":      wait.String(),
			"cause":     err.Error(),
		}), "retrying store transaction")
	}

	return policy.Do(ctx, func(ctx context.Context) error {
		uow := create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}
		defer func() {
			_ = uow.Rollback(ctx)
		}()

		return attempt(ctx, uow)
	})
}

// observe logs and counts the outcome of an operation.
func (e Env) observe(ctx context.Context, operation string, result TransitionResult, err error) {
	switch {
	case err == nil && result.Replayed:
		e.Metrics.Transition(operation, metrics.OutcomeReplayed)
		e.Log.Info(ctx, operation+" replayed")
	case err == nil:
		e.Metrics.Transition(operation, metrics.OutcomeCommitted)
		e.Log.Info(e.Log.WithField(ctx, "status", result.Status.String()), operation+" committed")
	case isRejection(err):
		e.Metrics.Transition(operation, metrics.OutcomeRejected)
		e.Log.Info(e.Log.WithField(ctx, "reason", err.Error()), operation+" rejected")
	default:
		e.Metrics.Transition(operation, metrics.OutcomeFailed)
		e.Log.Error(ctx, operation+" failed", err)
	}

	for _, w := range result.Warnings {
		e.Metrics.Warning(string(w.Kind))
		e.Log.Warn(e.Log.WithField(ctx, "warning_kind", string(w.Kind)), operation+" side effect failed", errors.New(w.Message))
	}
}

// isRejection reports errors caused by the request rather than the system.
func isRejection(err error) bool {
	return errors.Is(err, errs.ErrInvalidTransition) ||
		errors.Is(err, errs.ErrAlreadyAssigned) ||
		errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsOutOfRange)
}

// scoped attaches the order and caller to ctx for logging.
func (e Env) scoped(ctx context.Context, cmd orderCommand) context.Context {
	ctx = e.Log.WithOrderID(ctx, cmd.OrderID().String())
	return e.Log.WithActor(ctx, cmd.Caller().ID.String(), string(cmd.Caller().Role))
}
