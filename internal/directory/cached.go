package directory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/career-transitions/internal/types"
)

// DefaultCacheTTL is how long a stored company or person is served without refetching.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Store is the persistence needed to cache directory lookups.
// Getters return nil, nil when no fresh entry exists.
type Store interface {
	GetFreshCompanyByName(ctx context.Context, name string, maxAge time.Duration) (*types.CompanyRecord, error)
	UpsertCompany(ctx context.Context, company *types.CompanyRecord) error
	GetFreshPerson(ctx context.Context, id string, maxAge time.Duration) (*types.Person, error)
	UpsertPerson(ctx context.Context, person *types.Person) error
}

// Cached serves fresh companies and people from a Store and falls back to an upstream Directory.
// Employee listings always go upstream.
type Cached struct {
	upstream Directory
	store    Store
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCached wraps upstream with store-backed caching. A zero ttl uses DefaultCacheTTL.
func NewCached(upstream Directory, store Store, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{upstream: upstream, store: store, ttl: ttl, logger: logger.Named("directory.cache")}
}

// SearchCompany returns a fresh stored company matching name, or asks upstream and stores the answer.
func (c *Cached) SearchCompany(ctx context.Context, name string) (*types.CompanyRecord, error) {
	cached, err := c.store.GetFreshCompanyByName(ctx, name, c.ttl)
	if err != nil {
		c.logger.Warn("company cache read failed", zap.String("name", name), zap.Error(err))
	} else if cached != nil {
		c.logger.Debug("company cache hit", zap.String("name", name), zap.String("company_id", cached.ID))
		return cached, nil
	}

	company, err := c.upstream.SearchCompany(ctx, name)
	if err != nil || company == nil {
		return company, err
	}
	if err := c.store.UpsertCompany(ctx, company); err != nil {
		c.logger.Warn("company cache write failed", zap.String("company_id", company.ID), zap.Error(err))
	}
	return company, nil
}

// ListEmployees always asks upstream.
func (c *Cached) ListEmployees(ctx context.Context, companyID string, opts ListOptions) (*Page, error) {
	return c.upstream.ListEmployees(ctx, companyID, opts)
}

// EnrichPerson returns a fresh stored person, or asks upstream and stores the answer.
func (c *Cached) EnrichPerson(ctx context.Context, personID string) (*types.Person, error) {
	cached, err := c.store.GetFreshPerson(ctx, personID, c.ttl)
	if err != nil {
		c.logger.Warn("person cache read failed", zap.String("person_id", personID), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	person, err := c.upstream.EnrichPerson(ctx, personID)
	if err != nil || person == nil {
		return person, err
	}
	if err := c.store.UpsertPerson(ctx, person); err != nil {
		c.logger.Warn("person cache write failed", zap.String("person_id", personID), zap.Error(err))
	}
	return person, nil
}
