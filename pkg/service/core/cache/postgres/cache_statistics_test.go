package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/navikt/datavask-backend/pkg/cache"
	"github.com/navikt/datavask-backend/pkg/errs"
	"github.com/navikt/datavask-backend/pkg/service"
	"github.com/navikt/datavask-backend/pkg/service/core/cache/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries map[string][]byte
	stats   cache.Statistics
}

func (m *memoryCache) Get(_ context.Context, key string, into any) bool {
	m.stats.TotalRequests++

	data, ok := m.entries[key]
	if !ok {
		m.stats.TotalMisses++
		return false
	}

	m.stats.TotalHits++

	return json.Unmarshal(data, into) == nil
}

func (m *memoryCache) Set(_ context.Context, key string, val any) {
	data, _ := json.Marshal(val)
	m.entries[key] = data
}

func (m *memoryCache) Stats() cache.Statistics {
	return m.stats
}

type countingStorage struct {
	calls int
	err   error
}

func (c *countingStorage) GetStatistics(_ context.Context, table string, revision int64) (*service.Statistics, error) {
	c.calls++

	if c.err != nil {
		return nil, c.err
	}

	return &service.Statistics{
		Table:    table,
		Rows:     int64(c.calls),
		Revision: revision,
		Columns:  []*service.ColumnStatistics{},
	}, nil
}

func TestStatisticsCache(t *testing.T) {
	ctx := context.Background()
	storage := &countingStorage{}
	mem := &memoryCache{entries: map[string][]byte{}}

	c := postgres.NewStatisticsCache(storage, mem)

	first, err := c.GetStatistics(ctx, "people_copy", 1)
	require.NoError(t, err)

	second, err := c.GetStatistics(ctx, "people_copy", 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, storage.calls)

	third, err := c.GetStatistics(ctx, "people_copy", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.Revision)
	assert.Equal(t, 2, storage.calls)
	assert.Equal(t, cache.Statistics{TotalRequests: 3, TotalHits: 1, TotalMisses: 2}, mem.Stats())
}

func TestStatisticsCache_Error(t *testing.T) {
	storage := &countingStorage{err: errs.E(errs.NotExist, errs.Op("statisticsStorage.GetStatistics"), fmt.Errorf("table people_copy does not exist"))}
	mem := &memoryCache{entries: map[string][]byte{}}

	_, err := postgres.NewStatisticsCache(storage, mem).GetStatistics(context.Background(), "people_copy", 1)
	require.Error(t, err)
	assert.True(t, errs.KindIs(errs.NotExist, err))
	assert.Empty(t, mem.entries)
}
