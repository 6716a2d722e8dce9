// Package scheduler runs the in-process background jobs on gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

// ExpiryScanner is the single entry point the scan job calls
type ExpiryScanner interface {
	RunExpiryScan(ctx context.Context) (*inbound.ScanReport, error)
}

// Manager owns one gocron scheduler. Stop cancels the context handed to
// running jobs and waits for them to return.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	started   bool
	startedMu sync.Mutex
}

func NewManager(log logger.Logger) (*Manager, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		scheduler: s,
		logger:    log.WithFields(map[string]interface{}{"component": "scheduler"}),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// RegisterExpiryScan runs scanner every interval. A non-positive interval
// registers nothing. Singleton mode keeps two scans from overlapping; a run
// that is due while the previous one is still going is skipped.
func (m *Manager) RegisterExpiryScan(scanner ExpiryScanner, interval, timeout time.Duration) error {
	if interval <= 0 {
		m.logger.Info(m.ctx, "Expiry scan job disabled", nil)
		return nil
	}
	if timeout <= 0 {
		timeout = interval
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(m.ctx, timeout)
			defer cancel()
			m.runExpiryScan(ctx, scanner)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "expiry-scan"),
		gocron.WithName("expiry-scan"),
	)
	if err != nil {
		return err
	}

	m.logger.Info(m.ctx, "Registered expiry scan job", map[string]interface{}{"interval": interval.String()})
	return nil
}

func (m *Manager) runExpiryScan(ctx context.Context, scanner ExpiryScanner) {
	report, err := scanner.RunExpiryScan(ctx)
	if err != nil {
		m.logger.Error(ctx, "Scheduled expiry scan failed", err, nil)
		return
	}
	if len(report.Failures) > 0 {
		m.logger.Warn(ctx, "Scheduled expiry scan finished with failures", map[string]interface{}{
			"failures": len(report.Failures),
		})
	}
}

// JobCount returns the number of registered jobs
func (m *Manager) JobCount() int {
	return len(m.scheduler.Jobs())
}

func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Info(m.ctx, "Scheduler started", map[string]interface{}{"job_count": m.JobCount()})
}

// Stop cancels running jobs and waits for them to finish
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	m.cancel()
	err := m.scheduler.Shutdown()
	m.started = false
	if err != nil {
		m.logger.Error(context.Background(), "Scheduler shutdown failed", err, nil)
		return err
	}
	m.logger.Info(context.Background(), "Scheduler stopped", nil)
	return nil
}
