package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jcaisse/curated-content-portal-sub001/internal/crawl"
	"github.com/jcaisse/curated-content-portal-sub001/internal/database"
	"github.com/jcaisse/curated-content-portal-sub001/internal/events"
	"github.com/jcaisse/curated-content-portal-sub001/internal/metrics"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
	"github.com/jcaisse/curated-content-portal-sub001/internal/scoring"
)

// Services are the domain services built on top of the store.
type Services struct {
	Metrics    *metrics.Metrics
	Publisher  *events.Publisher
	Controller *crawl.Controller
	Runner     *crawl.Runner
	Moderation *moderation.Service
	// Scheduler is nil when no crawl schedule is configured.
	Scheduler *crawl.Scheduler
}

// SetupServices builds the services. redisClient may be nil.
func SetupServices(deps *CommandDeps, store *database.Store, redisClient *redis.Client) (*Services, error) {
	cfg, log := deps.Config, deps.Logger

	m := metrics.New()
	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream, log)

	scorer := scoring.New(scoring.WithCallCounter(m.ScoringCalls))
	discoverer := crawl.NewSourceDiscoverer(crawl.FetchConfig{
		Timeout:           cfg.Crawl.FetchTimeout,
		UserAgent:         cfg.Crawl.UserAgent,
		MaxAttempts:       cfg.Crawl.FetchMaxAttempts,
		RequestsPerSecond: cfg.Crawl.RequestsPerSecond,
	})

	controller := crawl.NewController(store, discoverer, log,
		crawl.WithScorer(scorer),
		crawl.WithRecorder(m),
		crawl.WithPublisher(publisher),
		crawl.WithMaxItemsPerSource(cfg.Crawl.MaxItemsPerSource),
	)
	runner := crawl.NewRunner(controller, store, log)

	moderationSvc := moderation.NewService(store, store, log,
		moderation.WithChunkSize(cfg.Moderation.BatchChunkSize),
		moderation.WithPublisher(publisher),
		moderation.WithRecorder(m),
	)

	var scheduler *crawl.Scheduler
	if cfg.Crawl.Schedule != "" {
		var err error
		scheduler, err = crawl.NewScheduler(cfg.Crawl.Schedule, store, runner, log)
		if err != nil {
			return nil, fmt.Errorf("create scheduler: %w", err)
		}
	}

	return &Services{
		Metrics:    m,
		Publisher:  publisher,
		Controller: controller,
		Runner:     runner,
		Moderation: moderationSvc,
		Scheduler:  scheduler,
	}, nil
}
