package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
	"github.com/angelmondragon/kimipos-backend/pkg/redis"
)

const (
	productPrinterScope  = "product_printer"
	categoryPrinterScope = "category_printer"

	// noPrinter is cached for rows without a printer so misses are cached too.
	noPrinter = "-"
)

type printerSource interface {
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Category(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// Printers answers printer lookups for products and categories through a
// read-through Redis cache. An empty result means no printer is configured.
type Printers struct {
	source printerSource
	cache  redis.CacheStore
	ttl    time.Duration
	logg   *logger.Logger
}

func NewPrinters(source printerSource, cache redis.CacheStore, ttl time.Duration, logg *logger.Logger) (*Printers, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Printers{source: source, cache: cache, ttl: ttl, logg: logg}, nil
}

// ProductPrinter returns the printer override of a product, or "".
func (p *Printers) ProductPrinter(ctx context.Context, productID uuid.UUID) (string, error) {
	return p.lookup(ctx, productPrinterScope, productID, func() (*string, error) {
		product, err := p.source.Product(ctx, productID)
		if err != nil {
			return nil, err
		}
		return product.Printer, nil
	})
}

// CategoryPrinter returns the printer of a category, or "".
func (p *Printers) CategoryPrinter(ctx context.Context, categoryID uuid.UUID) (string, error) {
	return p.lookup(ctx, categoryPrinterScope, categoryID, func() (*string, error) {
		category, err := p.source.Category(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		return category.Printer, nil
	})
}

// Invalidate drops cached printer assignments for the given products and
// categories.
func (p *Printers) Invalidate(ctx context.Context, productIDs, categoryIDs []uuid.UUID) error {
	keys := make([]string, 0, len(productIDs)+len(categoryIDs))
	for _, id := range productIDs {
		keys = append(keys, p.cache.CacheKey(productPrinterScope, id.String()))
	}
	for _, id := range categoryIDs {
		keys = append(keys, p.cache.CacheKey(categoryPrinterScope, id.String()))
	}
	if len(keys) == 0 {
		return nil
	}
	return p.cache.Del(ctx, keys...)
}

func (p *Printers) lookup(ctx context.Context, scope string, id uuid.UUID, load func() (*string, error)) (string, error) {
	if id == uuid.Nil {
		return "", nil
	}
	key := p.cache.CacheKey(scope, id.String())
	cached, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		if cached == noPrinter {
			return "", nil
		}
		return cached, nil
	case !redis.IsMiss(err):
		p.logg.Warn(p.logg.WithField(ctx, "cache_key", key), "printer cache read failed; loading from catalog")
	}

	printer, err := load()
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return "", nil
		}
		return "", err
	}

	value := noPrinter
	if printer != nil && *printer != "" {
		value = *printer
	}
	if err := p.cache.Set(ctx, key, value, p.ttl); err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "cache_key", key), "printer cache write failed")
	}
	if value == noPrinter {
		return "", nil
	}
	return value, nil
}
