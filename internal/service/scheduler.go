package service

import (
	"context"
	"fmt"
	"time"

	"montecarlo-dashboard/config"
	"montecarlo-dashboard/pkg/logger"

	"github.com/robfig/cron/v3"
)

const defaultRefreshTimeout = 5 * time.Minute

// RefreshScheduler periodically regenerates the served ensemble.
type RefreshScheduler interface {
	Start(ctx context.Context) error
	Stop()
}

type refreshScheduler struct {
	cfg               *config.Config
	log               *logger.Logger
	cronParser        cron.Parser
	cron              *cron.Cron
	simulationService SimulationService
}

func NewRefreshScheduler(cfg *config.Config, log *logger.Logger, simulationService SimulationService) RefreshScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &refreshScheduler{
		cfg:               cfg,
		log:               log,
		cronParser:        parser,
		cron:              cron.New(cron.WithParser(parser)),
		simulationService: simulationService,
	}
}

// Start registers the refresh job. An empty schedule disables refreshing.
func (s *refreshScheduler) Start(ctx context.Context) error {
	spec := s.cfg.Simulation.RefreshSchedule
	if spec == "" {
		s.log.InfoContext(ctx, "Simulation refresh disabled")
		return nil
	}

	schedule, err := s.cronParser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, defaultRefreshTimeout)
		defer cancel()
		runCtx = logger.NewContext(runCtx, s.log.With(logger.StringField("job", "simulation_refresh")))

		if err := s.simulationService.Refresh(runCtx); err != nil {
			s.log.ErrorContext(ctx, "Scheduled simulation refresh failed", logger.ErrorField(err))
		}
	}))
	s.cron.Start()

	s.log.InfoContext(ctx, "Simulation refresh scheduled",
		logger.StringField("schedule", spec),
		logger.StringField("next_run", schedule.Next(time.Now()).Format(time.RFC3339)),
	)
	return nil
}

func (s *refreshScheduler) Stop() {
	<-s.cron.Stop().Done()
}
