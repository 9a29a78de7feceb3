package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/textileco/pettycash/internal/procurement"
	"github.com/textileco/pettycash/internal/shared"
)

const cacheVersionKey = "reports:version"

// Cache wraps Redis based caching with versioning controls.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("reports cache: loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.enabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached report by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// InvalidatingEmitter bumps the cache version whenever an audited change
// touches data the reports aggregate, then forwards the events.
type InvalidatingEmitter struct {
	next   shared.Emitter
	cache  *Cache
	logger *slog.Logger
}

// NewInvalidatingEmitter wraps next.
func NewInvalidatingEmitter(next shared.Emitter, cache *Cache, logger *slog.Logger) *InvalidatingEmitter {
	if next == nil {
		next = shared.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidatingEmitter{next: next, cache: cache, logger: logger}
}

// Emit implements shared.Emitter.
func (e *InvalidatingEmitter) Emit(ctx context.Context, events shared.Events) {
	for _, a := range events.Audits {
		if affectsReports(a.Entity) {
			if err := e.cache.Bump(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("reports cache bump failed", slog.Any("error", err))
			}
			break
		}
	}
	e.next.Emit(ctx, events)
}

func affectsReports(entity string) bool {
	switch entity {
	case procurement.EntityRequest, procurement.EntityPurchase, procurement.EntityPayment,
		procurement.EntityLedger, procurement.EntityConfirmation, "Vendor":
		return true
	}
	return false
}

func filterKey(f Filter) string {
	parts := []string{dateToken(f.From), dateToken(f.To), idToken(f.VendorID), idToken(f.BuyerID), idToken(f.OrderID)}
	return strings.Join(parts, ":")
}

func dateToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func idToken(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
