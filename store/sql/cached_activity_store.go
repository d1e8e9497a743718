package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-quality-hooks/core"
)

const activityCacheKeyPrefix = "quality-hooks::ce_activity::v1"

var errActivityNotFound = errors.New("sqlstore: activity not found")

// CachedActivityReader caches activity lookups by uuid. Finished activities
// never change, so entries are never invalidated; misses are not cached.
type CachedActivityReader struct {
	base  core.ActivityReader
	cache repositorycache.CacheService
}

func NewCachedActivityReader(
	base core.ActivityReader,
	cacheService repositorycache.CacheService,
) (*CachedActivityReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base activity reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: activity cache service is required")
	}
	return &CachedActivityReader{base: base, cache: cacheService}, nil
}

// ActivityCacheKey returns quality-hooks::ce_activity::v1::<uuid> with the
// uuid URL-path escaped.
func ActivityCacheKey(id string) string {
	return activityCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(id))
}

func (r *CachedActivityReader) SelectByUUID(ctx context.Context, id string) (core.CeActivity, bool, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.CeActivity{}, false, fmt.Errorf("sqlstore: cached activity reader is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.CeActivity{}, false, nil
	}
	activity, err := repositorycache.GetOrFetch(ctx, r.cache, ActivityCacheKey(id), func(ctx context.Context) (core.CeActivity, error) {
		fetched, found, fetchErr := r.base.SelectByUUID(ctx, id)
		if fetchErr != nil {
			return core.CeActivity{}, fetchErr
		}
		if !found {
			return core.CeActivity{}, errActivityNotFound
		}
		return fetched, nil
	})
	if errors.Is(err, errActivityNotFound) {
		return core.CeActivity{}, false, nil
	}
	if err != nil {
		return core.CeActivity{}, false, err
	}
	return activity, true, nil
}

func (r *CachedActivityReader) SelectByAnalysisUUIDs(ctx context.Context, analysisUUIDs []string) ([]core.CeActivity, error) {
	if r == nil || r.base == nil {
		return nil, fmt.Errorf("sqlstore: cached activity reader is not configured")
	}
	return r.base.SelectByAnalysisUUIDs(ctx, analysisUUIDs)
}
