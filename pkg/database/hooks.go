package database

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/qustavo/sqlhooks/v2"
)

type startKey struct{}

var queryHooks = newHooks()

var (
	_ sqlhooks.Hooks    = &hooks{}
	_ sqlhooks.OnErrorer = &hooks{}
)

// hooks times every statement sent through the hooked driver.
type hooks struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

func newHooks() *hooks {
	return &hooks{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "datavask",
			Name:      "db_query_duration_seconds",
			Help:      "Duration of database statements by kind of statement.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"statement"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datavask",
			Name:      "db_query_errors_total",
			Help:      "Number of database statements that failed, by kind of statement.",
		}, []string{"statement"}),
	}
}

func (h *hooks) Before(ctx context.Context, _ string, _ ...interface{}) (context.Context, error) {
	return context.WithValue(ctx, startKey{}, time.Now()), nil
}

func (h *hooks) After(ctx context.Context, query string, _ ...interface{}) (context.Context, error) {
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		h.duration.WithLabelValues(statementKind(query)).Observe(time.Since(start).Seconds())
	}

	return ctx, nil
}

func (h *hooks) OnError(_ context.Context, err error, query string, _ ...interface{}) error {
	h.errors.WithLabelValues(statementKind(query)).Inc()

	return err
}

func (h *hooks) collectors() []prometheus.Collector {
	return []prometheus.Collector{h.duration, h.errors}
}

// statementKind is the leading keyword of query, which keeps the label
// cardinality bounded.
func statementKind(query string) string {
	query = strings.TrimSpace(query)

	for strings.HasPrefix(query, "--") {
		nl := strings.IndexByte(query, '\n')
		if nl < 0 {
			return "other"
		}

		query = strings.TrimSpace(query[nl+1:])
	}

	end := strings.IndexFunc(query, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '('
	})
	if end < 0 {
		end = len(query)
	}

	switch kind := strings.ToUpper(query[:end]); kind {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "ALTER", "CREATE", "DROP", "TRUNCATE", "WITH", "COPY", "BEGIN", "COMMIT", "ROLLBACK":
		return strings.ToLower(kind)
	}

	return "other"
}
