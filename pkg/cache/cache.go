package cache

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type Cacher interface {
	// Get returns true if get a hit in the cache and are able to deserialize
	// into the provided struct
	Get(ctx context.Context, key string, into any) bool

	// Set will serialize the provided data and store it in our cache
	Set(ctx context.Context, key string, val any)

	Stats() Statistics
}

type Result struct {
	CachedResponse []byte
	LastCached     time.Time
}

type Statistics struct {
	TotalRequests int
	TotalHits     int
	TotalMisses   int
}

type Client struct {
	expiresAfter time.Duration
	db           *sql.DB
	log          zerolog.Logger

	requests *int32
	hits     *int32
	lookups  *prometheus.CounterVec
}

func (c *Client) Get(ctx context.Context, key string, into any) bool {
	atomic.AddInt32(c.requests, 1)

	res := &Result{}

	err := c.db.QueryRowContext(ctx, `SELECT response_body, created_at FROM response_cache WHERE key = $1`, key).
		Scan(&res.CachedResponse, &res.LastCached)
	if err != nil {
		c.lookups.WithLabelValues("miss").Inc()

		if errors.Is(err, sql.ErrNoRows) {
			c.log.Debug().Msgf("cache miss on: %s", key)
			return false
		}

		c.log.Info().Err(err).Msgf("fetching cached value: %s", key)
		return false
	}

	if time.Since(res.LastCached) > c.expiresAfter {
		c.lookups.WithLabelValues("expired").Inc()
		c.log.Debug().Msgf("cache expiry on: %s", key)
		return false
	}

	err = json.Unmarshal(res.CachedResponse, into)
	if err != nil {
		c.lookups.WithLabelValues("miss").Inc()
		c.log.Info().Err(err).Msgf("deserializing cached value: %s", key)
		return false
	}

	c.lookups.WithLabelValues("hit").Inc()
	atomic.AddInt32(c.hits, 1)

	return true
}

func (c *Client) Set(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		c.log.Info().Err(err).Msgf("serializing value for cache: %s", key)
		return
	}

	_, err = c.db.ExecContext(ctx, `INSERT INTO response_cache (key, response_body, created_at)
		VALUES ($1, $2, $3) ON CONFLICT (key) DO UPDATE SET response_body = $2, created_at = $3`, key, data, time.Now().UTC())
	if err != nil {
		c.log.Info().Err(err).Msgf("updating cache: %s", key)
	}
}

func (c *Client) Stats() Statistics {
	requests := atomic.LoadInt32(c.requests)
	hits := atomic.LoadInt32(c.hits)

	return Statistics{
		TotalRequests: int(requests),
		TotalHits:     int(hits),
		TotalMisses:   int(requests - hits),
	}
}

func (c *Client) Metrics() []prometheus.Collector {
	return []prometheus.Collector{c.lookups}
}

func New(expiresAfter time.Duration, db *sql.DB, log zerolog.Logger) *Client {
	return &Client{
		expiresAfter: expiresAfter,
		db:           db,
		log:          log,
		hits:         new(int32),
		requests:     new(int32),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datavask",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
	}
}
