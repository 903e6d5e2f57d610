package perf

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/jas-4484/eduhub/internal/errors"
	"github.com/jas-4484/eduhub/internal/utils"
)

type LogReporter struct {
	logger *slog.Logger
}

func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(ctx context.Context, a *errors.PerformanceAnomaly) error {
	r.logger.WarnContext(ctx, "read ran without expected index",
		slog.String("collection", a.Collection),
		slog.String("fields", strings.Join(a.Fields, ",")),
		slog.Int64("documents_examined", a.DocumentsExamined),
		slog.Duration("execution_time", a.ExecutionTime))
	return nil
}

var (
	ErrMailQueueFull  = errors.New("perf: anomaly mail queue is full")
	ErrReporterClosed = errors.New("perf: reporter is closed")
)

const mailQueueSize = 32

type mail struct {
	subject string
	body    string
}

// MailReporter notifies a fixed recipient list by email. Report only queues
// the message; a single worker delivers the queue in order, detached from
// the request that found the anomaly. Close drains it.
type MailReporter struct {
	mailer *utils.Mailer
	to     []string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan mail
	done   chan struct{}
}

func NewMailReporter(mailer *utils.Mailer, to []string, logger *slog.Logger) *MailReporter {
	r := &MailReporter{
		mailer: mailer,
		to:     to,
		logger: logger,
		queue:  make(chan mail, mailQueueSize),
		done:   make(chan struct{}),
	}
	go r.deliver()
	return r
}

func (r *MailReporter) deliver() {
	defer close(r.done)
	for m := range r.queue {
		if err := r.mailer.SendEmail(r.to, m.subject, m.body); err != nil {
			r.logger.Warn("anomaly mail not delivered",
				slog.String("subject", m.subject),
				slog.Any("error", err))
		}
	}
}

// Report never waits on SMTP. It fails fast when the queue is full.
func (r *MailReporter) Report(_ context.Context, a *errors.PerformanceAnomaly) error {
	m := mail{
		subject: fmt.Sprintf("[eduhub] unindexed read on %s", a.Collection),
		body: fmt.Sprintf(
			"<p>A read on <b>%s</b> filtering on <code>%s</code> ran without an index.</p>"+
				"<ul><li>documents examined: %d</li><li>execution time: %s</li><li>detected at: %s</li></ul>",
			html.EscapeString(a.Collection),
			html.EscapeString(strings.Join(a.Fields, ", ")),
			a.DocumentsExamined,
			a.ExecutionTime,
			a.DetectedAt.UTC().Format("2006-01-02 15:04:05 MST"),
		),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrReporterClosed
	}
	select {
	case r.queue <- m:
		return nil
	default:
		return ErrMailQueueFull
	}
}

// Close stops accepting anomalies and waits until queued mail is sent or ctx
// ends.
func (r *MailReporter) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
