// Package payments moves order money through Stripe. Captures route the
// vendor share with a connected account transfer; the driver share follows
// on delivery as a second transfer funded by the same charge.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/logger"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/transfer"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultCurrency = "usd"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	errNoCharge         = errors.New("payment intent has no charge")
)

type StripeConfig struct {
	APIKey      string
	Environment string
	Currency    string
}

// stripeAPI is the subset of Stripe used by the gateway.
type stripeAPI interface {
	CapturePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
	NewTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error)
}

type stripeResources struct{}

func (stripeResources) CapturePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return paymentintent.Capture(id, params)
}

func (stripeResources) GetPaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return paymentintent.Get(id, params)
}

func (stripeResources) CancelPaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	return paymentintent.Cancel(id, params)
}

func (stripeResources) NewTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	params.Context = ctx
	return transfer.New(params)
}

type StripeGateway struct {
	api         stripeAPI
	currency    string
	environment string
}

var _ ports.PaymentGateway = (*StripeGateway)(nil)

// NewStripeGateway configures the global Stripe key once and checks it
// matches the environment.
func NewStripeGateway(ctx context.Context, cfg StripeConfig, log *logger.Logger) (*StripeGateway, error) {
	env, err := normalizeEnv(cfg.Environment)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey
	if log != nil {
		log.Info(ctx, fmt.Sprintf("stripe gateway initialized (%s)", env))
	}

	return newStripeGateway(stripeResources{}, cfg.Currency, env), nil
}

func newStripeGateway(api stripeAPI, currency, env string) *StripeGateway {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return &StripeGateway{api: api, currency: currency, environment: env}
}

func (g *StripeGateway) Environment() string {
	return g.environment
}

func (g *StripeGateway) CaptureAndTransfer(ctx context.Context, paymentRef, vendorAccount string, vendorAmount kernel.Money) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.SetIdempotencyKey(idempotencyKey(paymentRef, "capture"))

	intent, err := g.api.CapturePaymentIntent(ctx, paymentRef, params)
	if err != nil {
		return classify(ports.PaymentOpCaptureAndTransfer, paymentRef, err)
	}

	if err := g.transfer(ctx, intent, paymentRef, vendorAccount, vendorAmount, "vendor"); err != nil {
		return classify(ports.PaymentOpCaptureAndTransfer, paymentRef, err)
	}
	return nil
}

func (g *StripeGateway) Transfer(ctx context.Context, paymentRef, driverAccount string, driverAmount kernel.Money) error {
	intent, err := g.api.GetPaymentIntent(ctx, paymentRef, &stripe.PaymentIntentParams{})
	if err != nil {
		return classify(ports.PaymentOpTransfer, paymentRef, err)
	}

	if err := g.transfer(ctx, intent, paymentRef, driverAccount, driverAmount, "driver"); err != nil {
		return classify(ports.PaymentOpTransfer, paymentRef, err)
	}
	return nil
}

func (g *StripeGateway) Release(ctx context.Context, paymentRef string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.SetIdempotencyKey(idempotencyKey(paymentRef, ports.PaymentOpRelease))

	if _, err := g.api.CancelPaymentIntent(ctx, paymentRef, params); err != nil {
		return classify(ports.PaymentOpRelease, paymentRef, err)
	}
	return nil
}

func (g *StripeGateway) transfer(
	ctx context.Context,
	intent *stripe.PaymentIntent,
	paymentRef, account string,
	amount kernel.Money,
	party string,
) error {
	if amount.IsZero() {
		return nil
	}
	if intent == nil || intent.LatestCharge == nil || intent.LatestCharge.ID == "" {
		return errNoCharge
	}

	params := &stripe.TransferParams{
		Amount:            stripe.Int64(amount.Cents()),
		Currency:          stripe.String(g.currency),
		Destination:       stripe.String(account),
		SourceTransaction: stripe.String(intent.LatestCharge.ID),
		TransferGroup:     stripe.String(paymentRef),
	}
	params.SetIdempotencyKey(idempotencyKey(paymentRef, "transfer_"+party))

	_, err := g.api.NewTransfer(ctx, params)
	return err
}

func idempotencyKey(paymentRef, step string) string {
	return paymentRef + ":" + step
}

// classify marks a failure indeterminate unless Stripe answered with a
// definitive client error.
func classify(operation, paymentRef string, err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return errs.NewPaymentGatewayError(operation, paymentRef, !errors.Is(err, errNoCharge), err)
	}

	indeterminate := stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
		stripeErr.HTTPStatusCode == http.StatusTooManyRequests ||
		stripeErr.Type == stripe.ErrorTypeAPI
	return errs.NewPaymentGatewayError(operation, paymentRef, indeterminate, err)
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
