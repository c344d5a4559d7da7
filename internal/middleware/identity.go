package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/utils"
	"github.com/oguzhanyavuz/tradeport/internal/visibility"
)

// CompanyOwnerLookup resolves the company a seller owns.
type CompanyOwnerLookup interface {
	GetByOwner(ctx context.Context, ownerID uint64) (model.Company, error)
}

// IdentityCache materializes a visibility.Caller for each request and
// memoizes the seller->company lookup in Redis, keyed by the hashed bearer
// so the entry dies with the token. A nil Redis client degrades to a
// per-request database lookup.
type IdentityCache struct {
	rdb       *redis.Client
	companies CompanyOwnerLookup
	ttl       time.Duration
}

// NewIdentityCache builds the cache. ttlSec bounds how long a revoked
// seller keeps a stale company binding.
func NewIdentityCache(rdb *redis.Client, companies CompanyOwnerLookup, ttlSec int) *IdentityCache {
	if ttlSec <= 0 {
		ttlSec = 300
	}
	return &IdentityCache{rdb: rdb, companies: companies, ttl: time.Duration(ttlSec) * time.Second}
}

// WithCaller stores the resolved Caller under "caller". Must run after
// JWTAuth or OptionalAuth.
func (ic *IdentityCache) WithCaller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("caller", ic.resolve(c))
			return next(c)
		}
	}
}

// CallerFrom reads the Caller placed by WithCaller, anonymous when absent.
func CallerFrom(c echo.Context) visibility.Caller {
	if v, ok := c.Get("caller").(visibility.Caller); ok {
		return v
	}
	return visibility.Anonymous
}

// Invalidate drops the cached identity for a bearer, called on logout and
// password change so the old token stops resolving immediately.
func (ic *IdentityCache) Invalidate(ctx context.Context, bearer string) {
	if ic.rdb == nil || bearer == "" {
		return
	}
	_ = ic.rdb.Del(ctx, identityKey(bearer)).Err()
}

func identityKey(bearer string) string {
	return "identity:" + utils.HashBearer(bearer)
}

func (ic *IdentityCache) resolve(c echo.Context) visibility.Caller {
	userID, ok := c.Get("user_id").(uint64)
	if !ok || userID == 0 {
		return visibility.Anonymous
	}
	role, _ := c.Get("role").(string)
	caller := visibility.Caller{UserID: userID, Role: role}
	if role != model.RoleSeller {
		return caller
	}

	ctx := c.Request().Context()
	bearer, _ := c.Get("bearer").(string)

	if ic.rdb != nil && bearer != "" {
		if bs, err := ic.rdb.Get(ctx, identityKey(bearer)).Bytes(); err == nil {
			var cached visibility.Caller
			if json.Unmarshal(bs, &cached) == nil && cached.UserID == userID {
				return cached
			}
		}
	}

	if co, err := ic.companies.GetByOwner(ctx, userID); err == nil {
		caller.CompanyID = co.ID
	}

	if ic.rdb != nil && bearer != "" {
		if bs, err := json.Marshal(caller); err == nil {
			_ = ic.rdb.SetEx(ctx, identityKey(bearer), bs, ic.ttl).Err()
		}
	}
	return caller
}
