// Package rates prices a parcel across carriers: live quotes fanned out in
// parallel, per-carrier fallback tables when a carrier is unavailable, and a
// no-live-rate table set when nothing else survives.
package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
	"shipping/internal/metrics"
	"shipping/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultCarrierTimeout bounds each carrier's quote call when NewEngine gets no timeout.
const DefaultCarrierTimeout = 30 * time.Second

// Request is one rate calculation. Empty Carriers means every enabled carrier.
type Request struct {
	Origin      kernel.Address
	Destination kernel.Address
	Parcel      kernel.Parcel
	Carriers    []string
}

// CarrierOutcome records how one carrier contributed to a result.
type CarrierOutcome struct {
	// Outcome is one of the metrics.Carrier* outcome labels.
	Outcome string
	Reason  errs.ReasonCode
}

// Result is what Calculate returns.
type Result struct {
	// Options are ordered by carrier, then price.
	Options []rate.Option
	// NoLiveRate is set when no carrier contributed and the options come from
	// the no-live-rate tables.
	NoLiveRate bool
	// Carriers holds one outcome per carrier that was asked.
	Carriers map[string]CarrierOutcome
}

// Engine fans a rate request out to the enabled carriers, substitutes
// fallback tables for unavailable ones and applies per-carrier markups.
// It is safe for concurrent use.
type Engine struct {
	registry ports.CarrierRegistry
	fallback ports.FallbackRateSource
	markups  map[string]decimal.Decimal
	timeout  time.Duration
	metrics  metrics.BusinessMetrics
	logger   *slog.Logger
}

// NewEngine requires a registry and a fallback source. Markup keys are carrier
// codes in any case; a non-positive timeout means DefaultCarrierTimeout and a
// nil bm records nothing.
func NewEngine(
	registry ports.CarrierRegistry,
	fallback ports.FallbackRateSource,
	markups map[string]decimal.Decimal,
	timeout time.Duration,
	bm metrics.BusinessMetrics,
	logger *slog.Logger,
) (*Engine, error) {
	if registry == nil {
		return nil, errs.NewValueIsRequiredError("registry")
	}
	if fallback == nil {
		return nil, errs.NewValueIsRequiredError("fallback")
	}
	if timeout <= 0 {
		timeout = DefaultCarrierTimeout
	}
	if bm == nil {
		bm = metrics.NewNoOpBusinessMetrics()
	}
	normalized := make(map[string]decimal.Decimal, len(markups))
	for carrier, m := range markups {
		normalized[strings.ToLower(carrier)] = m
	}
	return &Engine{
		registry: registry,
		fallback: fallback,
		markups:  normalized,
		timeout:  timeout,
		metrics:  bm,
		logger:   logger.With("component", "RateEngine"),
	}, nil
}

type carrierResult struct {
	carrier string
	options []rate.Option
	outcome CarrierOutcome
}

// Calculate never fails because a carrier fails. It returns errs.ErrNoRatesAvailable
// only when no carrier answered and no requested carrier has a rate table.
func (e *Engine) Calculate(ctx context.Context, req Request) (Result, error) {
	if err := errors.Join(req.Origin.Validate(), req.Destination.Validate(), req.Parcel.Validate()); err != nil {
		return Result{}, err
	}

	carriers := normalizeCarriers(req.Carriers)
	if len(carriers) == 0 {
		carriers = e.registry.Enabled()
	}
	if len(carriers) == 0 {
		return Result{}, fmt.Errorf("%w: no carriers enabled", errs.ErrNoRatesAvailable)
	}

	results := make([]carrierResult, len(carriers))
	var g errgroup.Group
	for i, code := range carriers {
		g.Go(func() error {
			results[i] = e.quoteCarrier(ctx, code, req)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Carriers: make(map[string]CarrierOutcome, len(carriers))}
	for _, r := range results {
		res.Options = append(res.Options, r.options...)
		res.Carriers[r.carrier] = r.outcome
		e.metrics.RecordCarrierQuote(ctx, r.carrier, r.outcome.Outcome)
	}

	if len(res.Options) == 0 {
		res.NoLiveRate = true
		res.Options = e.noLiveRateOptions(ctx, carriers, req)
		if len(res.Options) == 0 {
			return Result{}, fmt.Errorf("%w: no carrier answered and no rate table exists for %s",
				errs.ErrNoRatesAvailable, strings.Join(carriers, ","))
		}
	}

	options, err := e.applyMarkups(res.Options)
	if err != nil {
		return Result{}, err
	}
	rate.SortOptions(options)
	res.Options = options

	return res, nil
}

func (e *Engine) quoteCarrier(ctx context.Context, code string, req Request) carrierResult {
	res := carrierResult{carrier: code}

	gw, err := e.registry.Get(code)
	if err != nil {
		e.logger.WarnContext(ctx, "carrier excluded", "carrier", code, "error", err)
		res.outcome = CarrierOutcome{Outcome: metrics.CarrierExcluded, Reason: errs.ReasonOf(err)}
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	options, err := gw.QuoteRates(callCtx, req.Origin, req.Destination, req.Parcel)
	cancel()

	switch {
	case err == nil && len(options) > 0:
		res.options = options
		res.outcome = CarrierOutcome{Outcome: outcomeOf(options)}
		return res
	case err == nil:
		e.logger.InfoContext(ctx, "carrier returned no options", "carrier", code)
		res.outcome = CarrierOutcome{Outcome: metrics.CarrierExcluded, Reason: errs.ReasonNoRatesAvailable}
		return res
	case isUnavailable(err):
		e.logger.WarnContext(ctx, "carrier unavailable, using fallback table", "carrier", code, "error", err)
	default:
		e.logger.WarnContext(ctx, "carrier excluded", "carrier", code, "reason", errs.ReasonOf(err), "error", err)
		res.outcome = CarrierOutcome{Outcome: metrics.CarrierExcluded, Reason: errs.ReasonOf(err)}
		return res
	}

	fallback, ferr := gw.ComputeFallbackRates(ctx, req.Origin, req.Destination, req.Parcel)
	if ferr != nil || len(fallback) == 0 {
		e.logger.WarnContext(ctx, "carrier fallback failed", "carrier", code, "error", ferr)
		res.outcome = CarrierOutcome{Outcome: metrics.CarrierExcluded, Reason: errs.ReasonCarrierUnavailable}
		return res
	}
	res.options = fallback
	res.outcome = CarrierOutcome{Outcome: metrics.CarrierFallback, Reason: errs.ReasonCarrierUnavailable}
	return res
}

func (e *Engine) noLiveRateOptions(ctx context.Context, carriers []string, req Request) []rate.Option {
	in := services.PricingInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		Parcel:      req.Parcel,
		Residential: true,
		Source:      rate.SourceNoLiveRate,
	}

	var options []rate.Option
	for _, code := range carriers {
		opts, err := e.fallback.LowestVersion(ctx, code, in)
		if err != nil {
			e.logger.WarnContext(ctx, "no rate table for carrier", "carrier", code, "error", err)
			continue
		}
		options = append(options, opts...)
	}
	return options
}

func (e *Engine) applyMarkups(options []rate.Option) ([]rate.Option, error) {
	out := make([]rate.Option, 0, len(options))
	for _, o := range options {
		if m, ok := e.markups[o.Carrier]; ok && !m.IsZero() {
			markup, err := kernel.NewMoney(m, o.Price.Currency())
			if err != nil {
				return nil, fmt.Errorf("markup for %s: %w", o.Carrier, err)
			}
			if o.Price, err = o.Price.Add(markup); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, errs.ErrCarrierTransient) || errors.Is(err, context.DeadlineExceeded)
}

func outcomeOf(options []rate.Option) string {
	for _, o := range options {
		if o.Source == rate.SourceLive {
			return metrics.CarrierLive
		}
	}
	return metrics.CarrierFallback
}

func normalizeCarriers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
