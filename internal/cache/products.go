package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avrusin/storefront/internal/models"
)

const productTTL = 5 * time.Minute

// ProductCache is a read-through cache in front of the products table.
// A nil *ProductCache (or one built over a nil client) is a no-op, so
// handlers never need to branch on whether Redis is configured.
type ProductCache struct {
	client *redis.Client
}

func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{client: client}
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) Get(ctx context.Context, id uint) (*models.Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *models.Product) {
	if c == nil || c.client == nil || p == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.client.Set(ctx, productKey(p.ID), raw, productTTL)
}

func (c *ProductCache) Invalidate(ctx context.Context, id uint) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, productKey(id))
}
