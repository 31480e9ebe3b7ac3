package domain

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a CrawlRun.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

var runTransitions = map[RunStatus][]RunStatus{
	RunStatusPending: {RunStatusRunning, RunStatusFailed},
	RunStatusRunning: {RunStatusCompleted, RunStatusFailed},
}

// ValidateRunTransition returns ErrInvalidTransition unless from may move to to.
func ValidateRunTransition(from, to RunStatus) error {
	for _, allowed := range runTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

// CrawlRun is one execution of a crawler. CompletedAt is set exactly when the
// status is terminal.
type CrawlRun struct {
	ID             string     `db:"id"              json:"id"`
	CrawlerID      string     `db:"crawler_id"      json:"crawlerId"`
	Status         RunStatus  `db:"status"          json:"status"`
	Keywords       []string   `db:"-"               json:"keywords"`
	StartedAt      *time.Time `db:"started_at"      json:"startedAt,omitempty"`
	CompletedAt    *time.Time `db:"completed_at"    json:"completedAt,omitempty"`
	ItemsProcessed int        `db:"items_processed" json:"itemsProcessed"`
	ItemsQueued    int        `db:"items_queued"    json:"itemsQueued"`
	ErrorMessage   *string    `db:"error_message"   json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `db:"created_at"      json:"createdAt"`
}

// NewCrawlRun returns a PENDING run for crawlerID driven by keywords.
func NewCrawlRun(id, crawlerID string, keywords []string, now time.Time) *CrawlRun {
	return &CrawlRun{
		ID:        id,
		CrawlerID: crawlerID,
		Status:    RunStatusPending,
		Keywords:  keywords,
		CreatedAt: now,
	}
}

// Start moves the run to RUNNING and stamps StartedAt.
func (r *CrawlRun) Start(now time.Time) error {
	if err := ValidateRunTransition(r.Status, RunStatusRunning); err != nil {
		return err
	}
	r.Status = RunStatusRunning
	r.StartedAt = &now
	return nil
}

// Complete moves the run to COMPLETED and stamps CompletedAt.
func (r *CrawlRun) Complete(now time.Time) error {
	if err := ValidateRunTransition(r.Status, RunStatusCompleted); err != nil {
		return err
	}
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
	return nil
}

// Fail moves the run to FAILED, stamps CompletedAt and records reason.
// Progress counters are left as they are.
func (r *CrawlRun) Fail(now time.Time, reason string) error {
	if err := ValidateRunTransition(r.Status, RunStatusFailed); err != nil {
		return err
	}
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	r.ErrorMessage = &reason
	return nil
}

// Duration returns CompletedAt - StartedAt. ok is false unless both are set
// and the duration is strictly positive.
func (r *CrawlRun) Duration() (d time.Duration, ok bool) {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0, false
	}
	d = r.CompletedAt.Sub(*r.StartedAt)
	return d, d > 0
}
