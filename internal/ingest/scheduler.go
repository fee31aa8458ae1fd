package ingest

import (
	"clanwatch/internal/ingest/interfaces"
	"clanwatch/internal/providers"
	"clanwatch/internal/services"
	"clanwatch/internal/structures"
	"context"
	"errors"
	"time"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
)

var ErrRunInProgress = errors.New("ingestion run already in progress")

type Runner interface {
	Run(ctx context.Context) (*RunReport, error)
}

// Scheduler runs the updater periodically in serve mode and keeps the
// analytics service in step with the store. At most one run is active.
type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	service services.AnalyticsServiceInterface
	runner  Runner
	cron    *gron.Cron
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *Scheduler) Init() {
	if !s.config.Schedule.Enabled {
		s.logger.Infof(providers.TypeApp, "Scheduled ingestion disabled")
		return
	}
	interval := s.config.Schedule.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(interval), func() {
		err := s.RunOnce(s.ctx)
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Warnf(providers.TypeIngest, "Previous run still in progress, skipping tick")
		}
	})
	s.cron.Start()
	s.logger.Infof(providers.TypeApp, "Scheduled ingestion every %s", interval)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.cancel()
}

// Restore loads the last persisted snapshot into the service.
func (s *Scheduler) Restore() error {
	return s.service.Reload()
}

// RunOnce performs one ingestion run and reloads the service on success.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	report, err := s.runner.Run(ctx)
	if err != nil {
		return err
	}
	s.logger.Infof(providers.TypeIngest, "Run %s finished in %s", report.RunID, report.Duration)

	if err := s.service.Reload(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Reload after run %s failed: %s", report.RunID, err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, service services.AnalyticsServiceInterface, updater *Updater) interfaces.SchedulerInterface {
	return newScheduler(config, logger, service, updater)
}

func newScheduler(config *structures.Config, logger providers.Logger, service services.AnalyticsServiceInterface, runner Runner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:  config,
		logger:  logger,
		service: service,
		runner:  runner,
		ctx:     ctx,
		cancel:  cancel,
	}
}
