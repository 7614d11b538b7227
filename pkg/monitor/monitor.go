// Package monitor drives the pickup availability scan loop: one probe per
// cycle, hit and heartbeat notifications, and a randomized wait between
// cycles.
package monitor

import (
	"context"
	"math/rand"
	"time"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/notifier"

	"go.uber.org/zap"
)

const (
	// HitInterval is the wait after a cycle that found stock.
	HitInterval = 5 * time.Second

	// MinMissSeconds floors the randomized miss interval.
	MinMissSeconds = 5

	// Notifications other than hits are only sent between these hours, inclusive.
	DaytimeStartHour = 6
	DaytimeEndHour   = 23
)

// Prober runs one availability lookup.
type Prober interface {
	Probe(ctx context.Context) (*apple.ProbeReport, error)
}

// RandomSource yields integers in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// ScanState is the loop state carried from one cycle to the next.
type ScanState struct {
	// Attempt numbers the current cycle, starting at 1.
	Attempt int
	// LastHeartbeatHour is the hour of the last heartbeat, -1 if none was sent.
	LastHeartbeatHour int
	// Interval is the wait computed by the last cycle.
	Interval time.Duration
}

// NewScanState returns the state of a fresh run.
func NewScanState() ScanState {
	return ScanState{Attempt: 1, LastHeartbeatHour: -1}
}

// Monitor runs scan cycles against a prober and reports through a sender.
type Monitor struct {
	prober         Prober
	sender         notifier.Sender
	products       config.ProductSelection
	area           string
	scanInterval   int
	alertException bool

	now   func() time.Time
	rnd   RandomSource
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithRandom replaces the interval random source.
func WithRandom(rnd RandomSource) Option {
	return func(m *Monitor) { m.rnd = rnd }
}

// WithSleep replaces the context-aware sleep between cycles.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// New creates a monitor for cfg.
func New(cfg *config.MonitorConfig, prober Prober, sender notifier.Sender, opts ...Option) *Monitor {
	m := &Monitor{
		prober:         prober,
		sender:         sender,
		products:       cfg.SelectedProducts,
		area:           cfg.SelectedArea,
		scanInterval:   cfg.ScanInterval,
		alertException: cfg.AlertException,
		now:            time.Now,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run sends the startup notification and scans until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	startup := StartupMessage(m.products, m.area, m.scanInterval)
	log.Info("Monitor starting",
		zap.Int("products", len(m.products)),
		zap.String("area", m.area),
		zap.Int("scan_interval", m.scanInterval),
		zap.Bool("alert_exception", m.alertException))
	m.sender.SendMessage(ctx, startup)

	state := NewScanState()
	for ctx.Err() == nil {
		state = m.RunCycle(ctx, state)
		if err := m.sleep(ctx, state.Interval); err != nil {
			break
		}
	}

	log.Info("Monitor stopped", zap.Int("attempts", state.Attempt-1))
	return nil
}

// RunCycle performs one probe and its notifications and returns the state for
// the next cycle. It does not sleep.
func (m *Monitor) RunCycle(ctx context.Context, state ScanState) ScanState {
	now := m.now()
	hour := now.Hour()
	log := logger.FromContext(ctx).With(logger.AttemptField(state.Attempt))

	var hits []apple.AvailabilityResult
	report, err := m.prober.Probe(ctx)
	if err != nil {
		log.Error("Scan failed", zap.Error(err))
		if m.alertException && InDaytime(hour) {
			m.sender.SendMessage(ctx, notifier.TimeTitle(now, ExceptionMessage(state.Attempt, err)))
		}
	} else {
		logStatusTable(log, report)
		hits = report.Hits()
	}

	if len(hits) > 0 {
		log.Info("Stock found, pickup available", zap.Int("hits", len(hits)))
		for _, h := range hits {
			log.Info("Available",
				zap.String("store", h.StoreName),
				zap.String("product", h.ProductTitle))
		}
		m.sender.SendMessage(ctx, notifier.TimeTitle(now, HitMessage(state.Attempt, hits)))
		state.Interval = HitInterval
	} else {
		state.Interval = NextInterval(m.scanInterval, m.rnd)
		log.Info("Next attempt scheduled",
			zap.Duration("interval", state.Interval),
			zap.Int("next_attempt", state.Attempt+1))

		if hour != state.LastHeartbeatHour && InDaytime(hour) {
			m.sender.SendMessage(ctx, notifier.TimeTitle(now, HeartbeatMessage(state.Attempt)))
			state.LastHeartbeatHour = hour
		}
	}

	state.Attempt++
	return state
}

// NextInterval draws the miss-case wait uniformly from [base/2, 2*base]
// seconds, never below MinMissSeconds.
func NextInterval(base int, rnd RandomSource) time.Duration {
	lo, hi := base/2, base*2
	secs := lo + rnd.Intn(hi-lo+1)
	if secs < MinMissSeconds {
		secs = MinMissSeconds
	}
	return time.Duration(secs) * time.Second
}

// InDaytime reports whether hour is inside the notification window.
func InDaytime(hour int) bool {
	return hour >= DaytimeStartHour && hour <= DaytimeEndHour
}

func logStatusTable(log *zap.Logger, report *apple.ProbeReport) {
	for _, s := range report.Excluded {
		log.Info("Store excluded", zap.String("store", s.StoreName), zap.String("store_number", s.StoreNumber))
	}
	for _, r := range report.Results {
		log.Info("Pickup status",
			zap.String("store", r.StoreName),
			zap.String("part", r.PartNumber),
			zap.String("quote", r.PickupQuote),
			zap.String("display", r.PickupDisplay),
			zap.String("product", r.ProductTitle),
			zap.Bool("available", r.Available))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
