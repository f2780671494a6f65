// Package quotecache stores rate quotes in an embedded badger database. Each
// entry carries a TTL ending at the quote's expiry, so expired quotes vanish
// without a sweeper.
package quotecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "quote:"

type Cache struct {
	db  *badger.DB
	now func() time.Time
}

var _ ports.QuoteCache = (*Cache)(nil)

// Open opens (or creates) the store at dir. An empty dir keeps everything in memory.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{logger.With("component", "quotecache")})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open quote cache: %w", err)
	}
	return New(db), nil
}

func New(db *badger.DB) *Cache {
	return &Cache{db: db, now: time.Now}
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Save(_ context.Context, quote *rate.Quote) error {
	if err := quote.Validate(); err != nil {
		return err
	}

	ttl := quote.ExpiresAt().Sub(c.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: quote %s", errs.ErrQuoteExpired, quote.ID())
	}

	raw, err := json.Marshal(fromDomain(quote))
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key(quote.ID()), raw).WithTTL(ttl))
	})
}

func (c *Cache) Get(_ context.Context, id kernel.UUID) (*rate.Quote, error) {
	var dto QuoteDTO
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dto)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errs.NewObjectNotFoundError("quoteId", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("read quote: %w", err)
	}

	quote, err := toDomain(dto)
	if err != nil {
		return nil, fmt.Errorf("decode quote %s: %w", id, err)
	}
	// badger TTLs have second granularity
	if quote.IsExpired(c.now()) {
		return nil, errs.NewObjectNotFoundError("quoteId", id.String())
	}
	return quote, nil
}

func (c *Cache) Delete(_ context.Context, id kernel.UUID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
}

func key(id kernel.UUID) []byte {
	return []byte(keyPrefix + id.String())
}

// badgerLogger routes badger's printf-style logging into slog. Info and debug
// output is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
