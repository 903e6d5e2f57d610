// Package perf explains reads against the store and flags read paths that
// the index catalog expects to be indexed but that ran as collection scans.
// It observes only; it never changes how a read executes.
package perf

import (
	"context"
	"log/slog"
	"time"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/indexes"
	"github.com/jas-4484/eduhub/internal/store"
)

// Report is the execution profile of one analyzed read. Anomaly is set when
// a catalogued path ran without an index.
type Report struct {
	Collection          string                     `json:"collection"`
	ExecutionTimeMillis int64                      `json:"executionTimeMillis"`
	DocumentsExamined   int64                      `json:"documentsExamined"`
	IndexUsed           bool                       `json:"indexUsed"`
	Anomaly             *errors.PerformanceAnomaly `json:"anomaly,omitempty"`
}

// Reporter receives anomalies. A reporter failure is logged and never fails
// the analysis.
type Reporter interface {
	Report(ctx context.Context, anomaly *errors.PerformanceAnomaly) error
}

type Monitor struct {
	store     store.Store
	catalog   indexes.Catalog
	reporters []Reporter
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Monitor)

func WithReporters(r ...Reporter) Option {
	return func(m *Monitor) { m.reporters = append(m.reporters, r...) }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func NewMonitor(s store.Store, catalog indexes.Catalog, logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		store:   s,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Analyze explains target on collection and reports an anomaly when no index
// was used although the catalog declares one for a field of the leading
// filter.
func (m *Monitor) Analyze(ctx context.Context, collection string, target store.ExplainTarget) (*Report, error) {
	stats, err := m.store.Explain(ctx, collection, target)
	if err != nil {
		return nil, errors.NewQueryExecutionError("Explain", collection, err)
	}

	report := &Report{
		Collection:          collection,
		ExecutionTimeMillis: stats.ExecutionTimeMillis,
		DocumentsExamined:   stats.DocumentsExamined,
		IndexUsed:           stats.IndexUsed,
	}
	if stats.IndexUsed {
		return report, nil
	}

	entry, ok := m.expectedIndex(collection, target)
	if !ok {
		return report, nil
	}
	report.Anomaly = &errors.PerformanceAnomaly{
		Collection:        collection,
		Fields:            entry.Spec.Fields(),
		DocumentsExamined: stats.DocumentsExamined,
		ExecutionTime:     time.Duration(stats.ExecutionTimeMillis) * time.Millisecond,
		DetectedAt:        m.now(),
	}
	for _, r := range m.reporters {
		if err := r.Report(ctx, report.Anomaly); err != nil {
			m.logger.WarnContext(ctx, "anomaly reporter failed",
				slog.String("collection", collection),
				slog.Any("error", err))
		}
	}
	return report, nil
}

func (m *Monitor) expectedIndex(collection string, target store.ExplainTarget) (indexes.Entry, bool) {
	for _, e := range target.LeadingFilter() {
		if entry, ok := m.catalog.Covers(collection, e.Key); ok {
			return entry, true
		}
	}
	return indexes.Entry{}, false
}
