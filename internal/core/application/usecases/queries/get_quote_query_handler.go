package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shipping/internal/core/application/rates"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/ports"
)

// RateCalculator is the part of rates.Engine the quote handler needs.
type RateCalculator interface {
	Calculate(ctx context.Context, req rates.Request) (rates.Result, error)
}

type GetQuoteQueryResponse struct {
	QuoteID    kernel.UUID
	Options    []rate.Option
	NoLiveRate bool
	Carriers   map[string]rates.CarrierOutcome
	ExpiresAt  time.Time
}

type GetQuoteQueryHandler struct {
	engine RateCalculator
	quotes ports.QuoteCache
	logger *slog.Logger
}

func NewGetQuoteQueryHandler(engine RateCalculator, quotes ports.QuoteCache, logger *slog.Logger) GetQuoteQueryHandler {
	return GetQuoteQueryHandler{
		engine: engine,
		quotes: quotes,
		logger: logger,
	}
}

// Handle prices the parcel and caches the result as a quote that SelectCarrier can reference until it expires.
func (h GetQuoteQueryHandler) Handle(ctx context.Context, query GetQuoteQuery) (GetQuoteQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetQuoteQueryResponse{}, err
	}

	result, err := h.engine.Calculate(ctx, rates.Request{
		Origin:      query.Origin(),
		Destination: query.Destination(),
		Parcel:      query.Parcel(),
		Carriers:    query.Carriers(),
	})
	if err != nil {
		return GetQuoteQueryResponse{}, err
	}

	quote, err := rate.NewQuote(
		kernel.NewUUID(),
		query.Origin(),
		query.Destination(),
		query.Parcel(),
		result.Options,
		result.NoLiveRate,
		time.Now().UTC(),
	)
	if err != nil {
		return GetQuoteQueryResponse{}, err
	}

	if err = h.quotes.Save(ctx, quote); err != nil {
		return GetQuoteQueryResponse{}, fmt.Errorf("cache quote: %w", err)
	}

	h.logger.InfoContext(ctx, "quote computed",
		"quoteId", quote.ID().String(),
		"options", len(result.Options),
		"noLiveRate", result.NoLiveRate,
	)

	return GetQuoteQueryResponse{
		QuoteID:    quote.ID(),
		Options:    quote.Options(),
		NoLiveRate: quote.NoLiveRate(),
		Carriers:   result.Carriers,
		ExpiresAt:  quote.ExpiresAt(),
	}, nil
}
