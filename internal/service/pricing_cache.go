package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/juanketo/BBMApp-sub000/internal/models"
)

const (
	pricingCachePattern        = "pricing:*"
	pricingPriceBasesKey       = "pricing:price_bases"
	pricingMembershipsKey      = "pricing:memberships"
	pricingPriceBaseKeyFormat  = "pricing:price_base:%s"
	pricingMembershipKeyFormat = "pricing:membership:%s"
)

// CachedPricingProvider decorates a PricingProvider with the Redis backed
// cache. Errors, including missing records, are never cached.
type CachedPricingProvider struct {
	next   PricingProvider
	cache  *CacheService
	logger *zap.Logger
}

// NewCachedPricingProvider wraps next. A nil or disabled cache passes through.
func NewCachedPricingProvider(next PricingProvider, cache *CacheService, logger *zap.Logger) *CachedPricingProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedPricingProvider{next: next, cache: cache, logger: logger}
}

// GetAllPriceBases returns every price base.
func (p *CachedPricingProvider) GetAllPriceBases(ctx context.Context) ([]models.PriceBase, error) {
	return remember(ctx, p.cache, pricingPriceBasesKey, p.next.GetAllPriceBases)
}

// GetPriceBaseByID returns one price base.
func (p *CachedPricingProvider) GetPriceBaseByID(ctx context.Context, id string) (*models.PriceBase, error) {
	return remember(ctx, p.cache, fmt.Sprintf(pricingPriceBaseKeyFormat, id), func(ctx context.Context) (*models.PriceBase, error) {
		return p.next.GetPriceBaseByID(ctx, id)
	})
}

// GetAllMemberships returns every membership.
func (p *CachedPricingProvider) GetAllMemberships(ctx context.Context) ([]models.Membership, error) {
	return remember(ctx, p.cache, pricingMembershipsKey, p.next.GetAllMemberships)
}

// GetMembershipByID returns one membership.
func (p *CachedPricingProvider) GetMembershipByID(ctx context.Context, id string) (*models.Membership, error) {
	return remember(ctx, p.cache, fmt.Sprintf(pricingMembershipKeyFormat, id), func(ctx context.Context) (*models.Membership, error) {
		return p.next.GetMembershipByID(ctx, id)
	})
}

// Invalidate drops every cached pricing entry.
func (p *CachedPricingProvider) Invalidate(ctx context.Context) error {
	if !p.cache.Enabled() {
		return nil
	}
	if err := p.cache.Invalidate(ctx, pricingCachePattern); err != nil {
		return err
	}
	p.logger.Debug("pricing cache invalidated")
	return nil
}
