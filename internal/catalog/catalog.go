// Package catalog is the read-side client for the product catalog
// collaborator. Stock-sensitive paths (validator, reconciler, checkout
// builder) read the ledger directly; this client serves browse traffic where
// a short-lived cached product is acceptable.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/avdeev/go_storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductSource is the authoritative product read access.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

// ProductCache is the cache the client reads through.
type ProductCache interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
}

// Client is a cache-aside product reader with stampede protection.
type Client struct {
	source ProductSource
	cache  ProductCache
	sfg    singleflight.Group // Prevents cache stampede
}

func NewClient(source ProductSource, cache ProductCache) *Client {
	return &Client{source: source, cache: cache}
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := c.sfg.Do(fmt.Sprint(id), func() (interface{}, error) {
		product, err := c.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("product cache get error: %v", err) // log cache error but continue
		}

		product, errGet := c.source.GetProduct(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := c.cache.Set(context.Background(), product); errSet != nil {
				log.Printf("product cache set error: %v", errSet)
			}
		}()

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// GetProductsByIDs goes straight to the source; batch reads back checkout
// flows where a stale product is not acceptable.
func (c *Client) GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	return c.source.GetProductsByIDs(ctx, ids)
}

// Invalidate drops the cached copy after a stock or price mutation.
func (c *Client) Invalidate(ctx context.Context, id int64) {
	if err := c.cache.Delete(ctx, id); err != nil {
		log.Printf("product cache invalidate error: %v", err)
	}
}
