package crawl

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// Standard five-field specs plus descriptors such as @hourly and @every 30m.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule validates a cron spec.
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// ActiveCrawlerLister lists crawlers eligible for scheduled runs.
type ActiveCrawlerLister interface {
	ListActiveCrawlers(ctx context.Context) ([]domain.Crawler, error)
}

// Triggerer starts a background run.
type Triggerer interface {
	Trigger(ctx context.Context, crawlerID string) error
}

// Scheduler triggers a run for every active crawler on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	lister  ActiveCrawlerLister
	trigger Triggerer
	log     logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler registers spec. Start must be called to begin ticking.
func NewScheduler(spec string, lister ActiveCrawlerLister, trigger Triggerer, log logger.Logger) (*Scheduler, error) {
	if _, err := ParseSchedule(spec); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cronLog := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		lister:  lister,
		trigger: trigger,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc(spec, func() { s.Tick(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("add schedule: %w", err)
	}
	log.Info("Crawl schedule registered", logger.String("schedule", spec))
	return s, nil
}

// Start begins ticking in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Tick triggers every active crawler once. Per-crawler failures are logged.
func (s *Scheduler) Tick(ctx context.Context) {
	crawlers, err := s.lister.ListActiveCrawlers(ctx)
	if err != nil {
		s.log.Error("Scheduled crawl: failed to list active crawlers", logger.Error(err))
		return
	}

	triggered := 0
	for i := range crawlers {
		id := crawlers[i].ID
		err := s.trigger.Trigger(ctx, id)
		switch {
		case err == nil:
			triggered++
		case errors.Is(err, ErrRunnerClosed):
			return
		default:
			s.log.Warn("Scheduled crawl: trigger failed", logger.CrawlerID(id), logger.Error(err))
		}
	}

	s.log.Info("Scheduled crawl tick",
		logger.Int("active_crawlers", len(crawlers)),
		logger.Int("triggered", triggered),
	)
}

// cronLogger routes cron's own logging, including recovered job panics,
// through logger.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, cronFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(cronFields(keysAndValues), logger.Error(err))...)
}

func cronFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}

// Stop halts the schedule and waits for a running tick, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}
