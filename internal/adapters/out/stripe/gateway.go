// Package stripe captures shipment payments as confirmed, off-session Stripe
// PaymentIntents. The payment record's idempotency key is forwarded so a
// retried capture can never charge twice.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const Provider = "stripe"

type Config struct {
	SecretKey string
	// BaseURL overrides the Stripe API host, for tests and proxies.
	BaseURL           string
	MaxNetworkRetries int64
	HTTPClient        *http.Client
}

type Gateway struct {
	api    *client.API
	logger *slog.Logger
}

var _ ports.PaymentGateway = (*Gateway)(nil)

func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, errs.NewValueIsRequiredError("stripe secret key")
	}

	logger = logger.With("provider", Provider)
	backendCfg := &stripego.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     leveledLogger{logger},
		MaxNetworkRetries: stripego.Int64(cfg.MaxNetworkRetries),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripego.String(cfg.BaseURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripego.Backends{API: backend, Connect: backend, Uploads: backend})

	return &Gateway{api: api, logger: logger}, nil
}

func (g *Gateway) Provider() string { return Provider }

// Capture confirms a PaymentIntent for the amount. Declines come back as an
// unsuccessful result; outages and unexpected errors wrap errs.ErrPaymentProviderDown.
func (g *Gateway) Capture(ctx context.Context, req ports.CaptureRequest) (ports.CaptureResult, error) {
	if err := req.Amount.Validate(); err != nil {
		return ports.CaptureResult{}, err
	}
	if req.Method == "" {
		return ports.CaptureResult{}, errs.NewValueIsRequiredError("paymentMethod")
	}

	params := &stripego.PaymentIntentParams{
		Amount:        stripego.Int64(minorUnits(req.Amount)),
		Currency:      stripego.String(strings.ToLower(req.Amount.Currency())),
		PaymentMethod: stripego.String(req.Method),
		Confirm:       stripego.Bool(true),
		OffSession:    stripego.Bool(true),
		Description:   stripego.String(req.Description),
	}
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripego.String(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return g.mapError(ctx, err)
	}

	if pi.Status != stripego.PaymentIntentStatusSucceeded {
		return ports.CaptureResult{
			TransactionID: pi.ID,
			FailureReason: fmt.Sprintf("payment intent is %s", pi.Status),
		}, nil
	}
	return ports.CaptureResult{Success: true, TransactionID: pi.ID}, nil
}

func (g *Gateway) mapError(ctx context.Context, err error) (ports.CaptureResult, error) {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return ports.CaptureResult{}, fmt.Errorf("%w: %w", errs.ErrPaymentProviderDown, err)
	}

	if stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
		stripeErr.Type == stripego.ErrorTypeAPI ||
		stripeErr.Code == stripego.ErrorCodeRateLimit ||
		stripeErr.Code == stripego.ErrorCodeLockTimeout {
		g.logger.WarnContext(ctx, "stripe unavailable", "status", stripeErr.HTTPStatusCode, "code", stripeErr.Code)
		return ports.CaptureResult{}, fmt.Errorf("%w: %s", errs.ErrPaymentProviderDown, stripeErr.Msg)
	}

	result := ports.CaptureResult{FailureReason: declineReason(stripeErr)}
	if stripeErr.PaymentIntent != nil {
		result.TransactionID = stripeErr.PaymentIntent.ID
	}
	return result, nil
}

func declineReason(e *stripego.Error) string {
	switch e.Code {
	case stripego.ErrorCodeCardDeclined:
		if e.DeclineCode != "" {
			return "card declined: " + string(e.DeclineCode)
		}
		return "card declined"
	case stripego.ErrorCodeExpiredCard:
		return "card has expired"
	case stripego.ErrorCodeIncorrectCVC:
		return "incorrect cvc"
	case stripego.ErrorCodeBalanceInsufficient:
		return "insufficient funds"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Code)
}

func minorUnits(m kernel.Money) int64 {
	return m.Amount().Shift(kernel.MoneyPlaces).IntPart()
}

type leveledLogger struct {
	logger *slog.Logger
}

func (l leveledLogger) Debugf(format string, v ...any) { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l leveledLogger) Infof(format string, v ...any)  { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l leveledLogger) Warnf(format string, v ...any)  { l.logger.Warn(fmt.Sprintf(format, v...)) }
func (l leveledLogger) Errorf(format string, v ...any) { l.logger.Error(fmt.Sprintf(format, v...)) }
