package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// ErrRunnerClosed is returned by Trigger after Shutdown.
var ErrRunnerClosed = errors.New("runner is shut down")

// Executor runs one crawl synchronously. *Controller implements it.
type Executor interface {
	Run(ctx context.Context, crawlerID string) (*domain.CrawlRun, error)
}

// Runner executes crawl runs in the background. Runs are detached from the
// caller's context and cancelled only by Shutdown.
type Runner struct {
	exec     Executor
	crawlers CrawlerStore
	log      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]int
	closed bool
}

// NewRunner returns a Runner.
func NewRunner(exec Executor, crawlers CrawlerStore, log logger.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		exec:     exec,
		crawlers: crawlers,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		active:   make(map[string]int),
	}
}

// Trigger checks that the crawler exists and is active, then starts a run
// in the background and returns immediately. Errors of the run itself are
// logged only. A crawler that already has a run in flight gets another one;
// a warning is logged.
func (r *Runner) Trigger(ctx context.Context, crawlerID string) error {
	crawler, err := r.crawlers.GetCrawler(ctx, crawlerID)
	if err != nil {
		return fmt.Errorf("get crawler: %w", err)
	}
	if !crawler.IsActive {
		return domain.ErrCrawlerInactive
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRunnerClosed
	}
	inFlight := r.active[crawlerID]
	r.active[crawlerID]++
	r.wg.Add(1)
	r.mu.Unlock()

	if inFlight > 0 {
		r.log.Warn("Crawler already has a run in flight",
			logger.CrawlerID(crawlerID),
			logger.Int("in_flight", inFlight),
		)
	}

	go r.run(crawlerID)
	return nil
}

func (r *Runner) run(crawlerID string) {
	defer r.wg.Done()
	defer r.release(crawlerID)
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Crawl run panicked",
				logger.CrawlerID(crawlerID),
				logger.Any("panic", p),
			)
		}
	}()

	run, err := r.exec.Run(r.ctx, crawlerID)
	if err != nil {
		fields := []logger.Field{logger.CrawlerID(crawlerID), logger.Error(err)}
		if run != nil {
			fields = append(fields, logger.RunID(run.ID))
		}
		r.log.Error("Background crawl run failed", fields...)
	}
}

func (r *Runner) release(crawlerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[crawlerID] <= 1 {
		delete(r.active, crawlerID)
		return
	}
	r.active[crawlerID]--
}

// Active reports how many runs of crawlerID are in flight.
func (r *Runner) Active(crawlerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[crawlerID]
}

// Shutdown stops accepting runs, cancels in-flight ones and waits for them
// to record their final status, or for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	inFlight := 0
	for _, n := range r.active {
		inFlight += n
	}
	r.mu.Unlock()

	if inFlight > 0 {
		r.log.Info("Cancelling in-flight crawl runs", logger.Int("runs", inFlight))
	}
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for crawl runs: %w", ctx.Err())
	}
}
