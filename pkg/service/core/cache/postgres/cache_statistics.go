package postgres

import (
	"context"
	"fmt"

	"github.com/navikt/datavask-backend/pkg/cache"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
)

var _ service.StatisticsStorage = &statisticsCache{}

type statisticsCache struct {
	storage service.StatisticsStorage
	cache   cache.Cacher
}

// GetStatistics serves statistics for a table revision from the cache,
// computing them on a miss. Revisions are never reused, so an entry can not
// go stale before it expires.
func (s *statisticsCache) GetStatistics(ctx context.Context, table string, revision int64) (*service.Statistics, error) {
	const op errs.Op = "statisticsCache.GetStatistics"

	key := fmt.Sprintf("statistics:%s:%d", table, revision)

	stats := &service.Statistics{}
	valid := s.cache.Get(ctx, key, stats)
	if valid {
		return stats, nil
	}

	stats, err := s.storage.GetStatistics(ctx, table, revision)
	if err != nil {
		return nil, errs.E(op, err)
	}

	s.cache.Set(ctx, key, stats)

	return stats, nil
}

func NewStatisticsCache(storage service.StatisticsStorage, cache cache.Cacher) *statisticsCache {
	return &statisticsCache{
		storage: storage,
		cache:   cache,
	}
}
