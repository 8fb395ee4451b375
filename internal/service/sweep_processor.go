package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

type SweepProcessor interface {
	Start(ctx context.Context) error
	Stop() error
	// RunOnce performs a single sweep at the processor's current time.
	RunOnce(ctx context.Context) int
	GetStatus() SweepStatus
}

type SweepStatus struct {
	IsRunning    bool      `json:"is_running"`
	StartedAt    time.Time `json:"started_at"`
	LastRun      time.Time `json:"last_run"`
	TotalExpired int64     `json:"total_expired"`
	RunCount     int64     `json:"run_count"`
}

type SweepConfig struct {
	Interval        time.Duration // How often to sweep
	Timeout         time.Duration // Upper bound for one sweep
	ShutdownTimeout time.Duration // Max time to wait for the loop on Stop
}

type sweepProcessor struct {
	bSvc BookingService
	l    logger.Logger
	cfg  SweepConfig
	now  func() time.Time

	// State management
	mu        sync.RWMutex
	runMu     sync.Mutex
	isRunning bool
	startedAt time.Time
	stopCh    chan struct{}
	ticker    *time.Ticker
	wg        sync.WaitGroup

	lastRun      time.Time
	totalExpired int64
	runCount     int64
}

func NewSweepProcessor(bSvc BookingService, l logger.Logger, cfg config.BookingConfig) SweepProcessor {
	return newSweepProcessor(bSvc, l, cfg, time.Now)
}

func newSweepProcessor(bSvc BookingService, l logger.Logger, cfg config.BookingConfig, now func() time.Time) *sweepProcessor {
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.SweepTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &sweepProcessor{
		bSvc: bSvc,
		l:    l,
		now:  now,
		cfg: SweepConfig{
			Interval:        interval,
			Timeout:         timeout,
			ShutdownTimeout: timeout + 5*time.Second,
		},
	}
}

func (sp *sweepProcessor) Start(ctx context.Context) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.isRunning {
		return errors.New("sweep processor is already running")
	}

	sp.l.Infof(ctx, "Starting sweep processor: interval=%s timeout=%s", sp.cfg.Interval, sp.cfg.Timeout)

	sp.isRunning = true
	sp.startedAt = sp.now()
	sp.stopCh = make(chan struct{})
	sp.ticker = time.NewTicker(sp.cfg.Interval)

	sp.wg.Add(1)
	go sp.loop(ctx, sp.ticker, sp.stopCh)

	return nil
}

func (sp *sweepProcessor) Stop() error {
	sp.mu.Lock()
	if !sp.isRunning {
		sp.mu.Unlock()
		return errors.New("sweep processor is not running")
	}
	close(sp.stopCh)
	sp.ticker.Stop()
	sp.mu.Unlock()

	ctx := context.Background()
	sp.l.Info(ctx, "Stopping sweep processor...")

	done := make(chan struct{})
	go func() {
		sp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		sp.l.Info(ctx, "Sweep processor stopped gracefully")
	case <-time.After(sp.cfg.ShutdownTimeout):
		sp.l.Warn(ctx, "Sweep processor shutdown timeout exceeded")
	}

	sp.mu.Lock()
	sp.isRunning = false
	sp.mu.Unlock()

	return nil
}

func (sp *sweepProcessor) loop(ctx context.Context, ticker *time.Ticker, stopCh <-chan struct{}) {
	defer sp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			sp.l.Info(ctx, "Sweep processor stopped due to context cancellation")
			return
		case <-stopCh:
			return
		case <-ticker.C:
			sp.RunOnce(ctx)
		}
	}
}

func (sp *sweepProcessor) RunOnce(ctx context.Context) int {
	// Serialize runs so a manual trigger never overlaps a tick.
	sp.runMu.Lock()
	defer sp.runMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, sp.cfg.Timeout)
	defer cancel()

	start := sp.now()
	wall := time.Now()
	expired := sp.bSvc.ExpireStaleBookings(runCtx, start)

	if d := time.Since(wall); d > sp.cfg.Interval {
		sp.l.Warnf(ctx, "Sweep took longer than its interval: duration=%s interval=%s", d, sp.cfg.Interval)
	}

	sp.mu.Lock()
	sp.lastRun = start
	sp.runCount++
	sp.totalExpired += int64(expired)
	sp.mu.Unlock()

	return expired
}

func (sp *sweepProcessor) GetStatus() SweepStatus {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	return SweepStatus{
		IsRunning:    sp.isRunning,
		StartedAt:    sp.startedAt,
		LastRun:      sp.lastRun,
		TotalExpired: sp.totalExpired,
		RunCount:     sp.runCount,
	}
}
