package runner

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
)

// Task pairs one analysis type with its input artifact, report path, and
// script log for a single session.
type Task struct {
	Analysis   domain.AnalysisType
	SessionID  string
	InputPath  string
	OutputPath string
	LogPath    string
}

// Invoker runs one analysis procedure to completion. Implementations must
// honor context cancellation so a timed-out task cannot keep running.
type Invoker interface {
	Invoke(ctx context.Context, t Task) error
}

// DefaultTimeout is the per-task execution budget.
const DefaultTimeout = 15 * time.Minute

// Runner executes the selected analyses of one session concurrently. Each
// task gets its own timeout and its own outcome slot; one task failing or
// timing out never touches its siblings.
type Runner struct {
	Invoker Invoker
	Timeout time.Duration
}

func New(inv Invoker, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Invoker: inv, Timeout: timeout}
}

// RunSelected launches every runnable task, waits for all of them, and
// returns one terminal outcome per task. Tasks whose input artifact was
// never generated are not launched and come back skipped.
func (r *Runner) RunSelected(ctx context.Context, tasks []Task) map[domain.AnalysisType]domain.Outcome {
	outcomes := make(map[domain.AnalysisType]domain.Outcome, len(tasks))

	// all skips are recorded before any worker starts, so the map is never
	// written from two goroutines without the lock
	runnable := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if _, err := os.Stat(t.InputPath); err != nil {
			outcomes[t.Analysis] = domain.Outcome{State: domain.OutcomeSkipped, Reason: "missing input"}
			log.Printf("runner: session=%s analysis=%s skipped, no input at %s", t.SessionID, t.Analysis, t.InputPath)
			continue
		}
		runnable = append(runnable, t)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, t := range runnable {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			out := r.runOne(ctx, t)
			mu.Lock()
			outcomes[t.Analysis] = out
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	return outcomes
}

func (r *Runner) runOne(ctx context.Context, t Task) domain.Outcome {
	// stale output from an earlier run must not survive a failed rerun
	if err := os.Remove(t.OutputPath); err != nil && !os.IsNotExist(err) {
		log.Printf("runner: session=%s analysis=%s removing stale report: %v", t.SessionID, t.Analysis, err)
	}

	tctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	start := time.Now()
	err := r.Invoker.Invoke(tctx, t)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		reason := err.Error()
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		log.Printf("runner: session=%s analysis=%s failed after %dms: %v", t.SessionID, t.Analysis, elapsed, err)
		return domain.Outcome{State: domain.OutcomeFailed, Reason: reason, DurationMS: elapsed}
	}

	if _, err := os.Stat(t.OutputPath); err != nil {
		log.Printf("runner: session=%s analysis=%s produced no report at %s", t.SessionID, t.Analysis, t.OutputPath)
		return domain.Outcome{State: domain.OutcomeFailed, Reason: "no report produced", DurationMS: elapsed}
	}

	return domain.Outcome{State: domain.OutcomeSucceeded, ReportPath: t.OutputPath, DurationMS: elapsed}
}
