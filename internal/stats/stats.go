// Package stats aggregates crawl run history into rolling windows.
package stats

import (
	"time"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
)

// Window lengths reported for every crawler.
const (
	Hour = time.Hour
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// Summary describes the runs in one window.
type Summary struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	AvgMs float64 `json:"avgMs"`
}

// CrawlerStats is the rolling-window view of one crawler's runs.
type CrawlerStats struct {
	LastHour Summary `json:"lastHour"`
	LastDay  Summary `json:"lastDay"`
	LastWeek Summary `json:"lastWeek"`
}

// Summarize counts runs, sums itemsProcessed and averages the duration of the
// runs that have one. Runs without a positive duration are left out of the
// average rather than counted as zero.
func Summarize(runs []domain.CrawlRun) Summary {
	var (
		s         Summary
		totalMs   float64
		durations int
	)

	for i := range runs {
		s.Count++
		s.Pages += runs[i].ItemsProcessed
		if d, ok := runs[i].Duration(); ok {
			totalMs += float64(d) / float64(time.Millisecond)
			durations++
		}
	}

	if durations > 0 {
		s.AvgMs = totalMs / float64(durations)
	}
	return s
}

// InWindow returns the runs whose StartedAt is at or after now-window.
// Runs that never started are excluded.
func InWindow(runs []domain.CrawlRun, now time.Time, window time.Duration) []domain.CrawlRun {
	since := now.Add(-window)
	out := make([]domain.CrawlRun, 0, len(runs))
	for _, r := range runs {
		if r.StartedAt != nil && !r.StartedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out
}

// ForCrawler builds the hour, day and week summaries as of now.
func ForCrawler(runs []domain.CrawlRun, now time.Time) CrawlerStats {
	return CrawlerStats{
		LastHour: Summarize(InWindow(runs, now, Hour)),
		LastDay:  Summarize(InWindow(runs, now, Day)),
		LastWeek: Summarize(InWindow(runs, now, Week)),
	}
}
