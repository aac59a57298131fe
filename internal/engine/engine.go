// Package engine runs the recurring expiry scan over the event store and
// feeds the notification store.
//
// Per event and instant the state moves forward only: active -> expiring ->
// expired. Entering "expiring" yields a warning (at most one unread per
// event). Reaching "expired" sets the stored status and yields an error
// notification. Events already stored as expired are terminal and skipped.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eventdash/internal/apperr"
	"eventdash/internal/clock"
	"eventdash/internal/expiry"
	appLog "eventdash/internal/log"
	"eventdash/internal/metrics"
	"eventdash/internal/model"
	"eventdash/internal/notify"
)

// DefaultSchedule runs a scan every minute.
const DefaultSchedule = "@every 60s"

const tracerName = "eventdash/internal/engine"

var (
	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("engine already started")
	// ErrStopped is returned by Start after Stop; an engine is single-use.
	ErrStopped = errors.New("engine stopped")
)

// EventStore is the slice of the event store the engine needs. The engine
// only ever mutates status.
type EventStore interface {
	List() []model.Event
	SetStatus(id string, status model.Status) error
}

// NotificationStore is the slice of the notification store the engine needs.
type NotificationStore interface {
	HasUnreadWarning(eventID string) bool
	Add(n model.Notification) error
}

// Report summarizes one scan.
type Report struct {
	At       time.Time
	Scanned  int
	Active   int
	Expiring int
	// Expired counts events that transitioned during this scan.
	Expired int
	// AlreadyExpired counts events skipped because their status was terminal.
	AlreadyExpired int
	Warnings       int
	Faults         int
	Notifications  []model.Notification
}

// Engine owns the schedule, the clock and write access to both stores.
type Engine struct {
	events     EventStore
	notes      NotificationStore
	clock      clock.Clock
	classifier expiry.Classifier
	schedule   string
	location   *time.Location
	metrics    *metrics.Engine
	tracer     trace.Tracer

	// scanMu serializes scan bodies; store writes are not designed for
	// concurrent scanners.
	scanMu sync.Mutex
	seq    uint64

	mu      sync.Mutex
	cron    *cron.Cron
	done    chan struct{}
	stopped bool
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithThreshold sets the "expiring" window in days.
func WithThreshold(days int) Option {
	return func(e *Engine) { e.classifier = expiry.New(days) }
}

// WithSchedule sets the cron spec for recurring scans, e.g. "@every 60s" or
// "*/5 * * * *".
func WithSchedule(spec string) Option {
	return func(e *Engine) { e.schedule = spec }
}

// WithLocation sets the timezone used to interpret cron specs.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

// WithRegisterer registers the engine metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = metrics.NewEngine(reg) }
}

// WithTracerProvider traces scans through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// New builds an Engine. The schedule is validated up front so a bad config
// fails at startup rather than at Start.
func New(events EventStore, notes NotificationStore, opts ...Option) (*Engine, error) {
	if events == nil || notes == nil {
		return nil, errors.New("engine: event and notification stores are required")
	}
	e := &Engine{
		events:     events,
		notes:      notes,
		clock:      clock.System,
		classifier: expiry.New(expiry.DefaultThreshold),
		schedule:   DefaultSchedule,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.NewEngine(nil)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.location == nil {
		e.location = time.Local
	}
	if _, err := cron.ParseStandard(e.schedule); err != nil {
		return nil, fmt.Errorf("engine: invalid schedule %q: %w", e.schedule, err)
	}
	return e, nil
}

// Start runs one scan immediately, then schedules recurring scans until Stop
// is called or ctx is canceled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.cron != nil {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}

	logger := appLog.CronLogger{}
	c := cron.New(
		cron.WithLocation(e.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(e.schedule, func() { e.Scan(ctx) }); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("engine: schedule scan: %w", err)
	}
	e.cron = c
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	appLog.Info("expiry engine starting", "schedule", e.schedule, "threshold_days", e.classifier.Threshold)
	e.Scan(ctx)

	// Stop may have raced with the initial scan; never start a stopped cron.
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	c.Start()
	e.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-done:
		}
	}()
	return nil
}

// Stop cancels the schedule and waits for an in-flight scan to finish. No
// scan starts after Stop returns. Calling Stop more than once is safe.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	c := e.cron
	e.cron = nil
	if e.done != nil {
		close(e.done)
	}
	e.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	// Start's first scan runs outside cron, so cron's Done does not cover it.
	e.scanMu.Lock()
	e.scanMu.Unlock()
	if c != nil {
		appLog.Info("expiry engine stopped")
	}
}

// Scan performs one sweep over the event store. It never fails: per-event
// problems are logged, counted and skipped.
func (e *Engine) Scan(ctx context.Context) Report {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()

	started := time.Now()
	e.seq++
	now := e.clock.Now()
	report := Report{At: now}

	ctx, span := e.tracer.Start(ctx, "expiry.scan", trace.WithAttributes(
		attribute.Int64("eventdash.scan.seq", int64(e.seq)),
		attribute.Int("eventdash.scan.threshold_days", e.classifier.Threshold),
	))
	defer span.End()

	var pending []model.Notification
	kinds := map[expiry.Kind]int{}

	for _, ev := range e.events.List() {
		if ctx.Err() != nil {
			appLog.Warn("expiry scan canceled", "scanned", report.Scanned)
			break
		}
		report.Scanned++

		n, kind, err := e.scanEvent(now, ev)
		if err != nil {
			e.fault(span, &report, err)
			continue
		}
		kinds[kind]++
		switch {
		case ev.Status == model.StatusExpired:
			report.AlreadyExpired++
		case kind == expiry.KindActive:
			report.Active++
		case kind == expiry.KindExpiring:
			report.Expiring++
		case kind == expiry.KindExpired:
			report.Expired++
		}
		if n != nil {
			pending = append(pending, *n)
		}
	}

	for _, n := range pending {
		stored, err := e.add(n)
		if err != nil {
			e.fault(span, &report, apperr.Fault("add notification", n.EventID, err))
			continue
		}
		if stored.Type == model.NotificationWarning {
			report.Warnings++
		}
		report.Notifications = append(report.Notifications, stored)
		e.metrics.Notifications.WithLabelValues(string(stored.Type)).Inc()
		appLog.Debug("notification emitted", "id", stored.ID, "type", stored.Type, "event_id", stored.EventID)
	}

	e.metrics.Scans.Inc()
	e.metrics.Expirations.Add(float64(report.Expired))
	e.metrics.ScanDuration.Observe(time.Since(started).Seconds())
	e.metrics.LastScan.Set(float64(now.Unix()))
	for _, k := range []expiry.Kind{expiry.KindActive, expiry.KindExpiring, expiry.KindExpired} {
		e.metrics.Events.WithLabelValues(string(k)).Set(float64(kinds[k]))
	}

	span.SetAttributes(
		attribute.Int("eventdash.scan.scanned", report.Scanned),
		attribute.Int("eventdash.scan.expired", report.Expired),
		attribute.Int("eventdash.scan.warnings", report.Warnings),
		attribute.Int("eventdash.scan.faults", report.Faults),
	)
	if report.Faults > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d event(s) faulted", report.Faults))
	}

	if len(report.Notifications) > 0 || report.Faults > 0 {
		appLog.Info("expiry scan completed",
			"scanned", report.Scanned,
			"expired", report.Expired,
			"warnings", report.Warnings,
			"faults", report.Faults,
		)
	} else {
		appLog.Debug("expiry scan completed", "scanned", report.Scanned)
	}
	return report
}

// scanEvent classifies one event and applies its transition. A panic in the
// classifier or a store is converted into an InternalFault.
func (e *Engine) scanEvent(now time.Time, ev model.Event) (n *model.Notification, kind expiry.Kind, err error) {
	defer func() {
		if r := recover(); r != nil {
			n = nil
			err = apperr.Fault("scan", ev.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	if ev.Status == model.StatusExpired {
		return nil, expiry.KindExpired, nil
	}

	res := e.classifier.Classify(now, ev.ExpiryDate)
	switch res.Kind {
	case expiry.KindExpired:
		if err := e.events.SetStatus(ev.ID, model.StatusExpired); err != nil {
			return nil, res.Kind, apperr.Fault("set status", ev.ID, err)
		}
		expired := expiredNotification(ev, res, now)
		return &expired, res.Kind, nil

	case expiry.KindExpiring:
		if e.notes.HasUnreadWarning(ev.ID) {
			return nil, res.Kind, nil
		}
		warn := warningNotification(ev, res, now)
		return &warn, res.Kind, nil
	}
	return nil, res.Kind, nil
}

// add stores n. A notification ID only collides when the clock has not moved
// since an earlier scan emitted the same kind for the same event; the scan
// sequence number disambiguates that case.
func (e *Engine) add(n model.Notification) (model.Notification, error) {
	err := e.notes.Add(n)
	if errors.Is(err, notify.ErrDuplicateID) {
		n.ID = fmt.Sprintf("%s-%d", n.ID, e.seq)
		err = e.notes.Add(n)
	}
	return n, err
}

func (e *Engine) fault(span trace.Span, report *Report, err error) {
	report.Faults++
	e.metrics.Faults.Inc()
	var fault *apperr.InternalFault
	if errors.As(err, &fault) {
		span.RecordError(fault.Err, trace.WithAttributes(
			attribute.String("eventdash.fault.op", fault.Op),
			attribute.String("eventdash.event.id", fault.EventID),
		))
		appLog.Error("expiry scan fault", fault.Err, "op", fault.Op, "event_id", fault.EventID)
		return
	}
	span.RecordError(err)
	appLog.Error("expiry scan fault", err)
}
