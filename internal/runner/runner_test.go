package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
)

// fakeInvoker scripts per-analysis behavior: write a report, fail, or hang
// until the context is cancelled.
type fakeInvoker struct {
	fail map[domain.AnalysisType]bool
	hang map[domain.AnalysisType]bool
	// noReport succeeds without writing the output file
	noReport map[domain.AnalysisType]bool
}

func (f *fakeInvoker) Invoke(ctx context.Context, t Task) error {
	if f.hang[t.Analysis] {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.fail[t.Analysis] {
		return errors.New("exit 2: traceback")
	}
	if f.noReport[t.Analysis] {
		return nil
	}
	return os.WriteFile(t.OutputPath, []byte("<html>report</html>"), 0o644)
}

func makeTasks(t *testing.T, dir string, types ...domain.AnalysisType) []Task {
	t.Helper()
	inDir := filepath.Join(dir, "input")
	outDir := filepath.Join(dir, "output")
	logDir := filepath.Join(dir, "log")
	for _, d := range []string{inDir, outDir, logDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	var tasks []Task
	for _, ty := range types {
		tasks = append(tasks, Task{
			Analysis:   ty,
			SessionID:  "s1",
			InputPath:  filepath.Join(inDir, domain.InputFileName(ty)),
			OutputPath: filepath.Join(outDir, domain.ReportFileName(ty)),
			LogPath:    filepath.Join(logDir, "s1.log"),
		})
	}
	return tasks
}

func writeInputs(t *testing.T, tasks []Task) {
	t.Helper()
	for _, task := range tasks {
		if err := os.WriteFile(task.InputPath, []byte("input"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunSelectedAllSucceed(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(t, dir, domain.AllAnalysisTypes()...)
	writeInputs(t, tasks)

	r := New(&fakeInvoker{}, time.Minute)
	outcomes := r.RunSelected(context.Background(), tasks)

	if len(outcomes) != 4 {
		t.Fatalf("got %d outcomes, want 4", len(outcomes))
	}
	for ty, out := range outcomes {
		if out.State != domain.OutcomeSucceeded {
			t.Errorf("%s: state = %s, want succeeded (%s)", ty, out.State, out.Reason)
		}
		if out.ReportPath == "" {
			t.Errorf("%s: succeeded outcome missing report path", ty)
		}
	}
}

func TestRunSelectedMissingInputSkipped(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(t, dir, domain.AnalysisCCR, domain.AnalysisCHR)
	// only CCR gets an input artifact
	if err := os.WriteFile(tasks[0].InputPath, []byte("input"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(&fakeInvoker{}, time.Minute)
	outcomes := r.RunSelected(context.Background(), tasks)

	if outcomes[domain.AnalysisCCR].State != domain.OutcomeSucceeded {
		t.Errorf("ccr = %+v, want succeeded", outcomes[domain.AnalysisCCR])
	}
	chr := outcomes[domain.AnalysisCHR]
	if chr.State != domain.OutcomeSkipped {
		t.Errorf("chr state = %s, want skipped", chr.State)
	}
	if chr.Reason != "missing input" {
		t.Errorf("chr reason = %q, want %q", chr.Reason, "missing input")
	}
}

func TestRunSelectedSkipBetweenWorkers(t *testing.T) {
	// a skip recorded while earlier workers are already writing outcomes
	// must not touch the map concurrently; run repeatedly so the race
	// detector gets a chance to catch a regression
	dir := t.TempDir()
	tasks := makeTasks(t, dir, domain.AllAnalysisTypes()...)
	// chr, the second task, never gets an input artifact
	for _, task := range tasks {
		if task.Analysis == domain.AnalysisCHR {
			continue
		}
		if err := os.WriteFile(task.InputPath, []byte("input"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := New(&fakeInvoker{}, time.Minute)
	for i := 0; i < 100; i++ {
		outcomes := r.RunSelected(context.Background(), tasks)
		if len(outcomes) != 4 {
			t.Fatalf("iteration %d: got %d outcomes, want 4", i, len(outcomes))
		}
		if outcomes[domain.AnalysisCHR].State != domain.OutcomeSkipped {
			t.Fatalf("iteration %d: chr = %+v, want skipped", i, outcomes[domain.AnalysisCHR])
		}
		for _, ty := range []domain.AnalysisType{domain.AnalysisCCR, domain.AnalysisBucket, domain.AnalysisKeyword} {
			if outcomes[ty].State != domain.OutcomeSucceeded {
				t.Fatalf("iteration %d: %s = %+v, want succeeded", i, ty, outcomes[ty])
			}
		}
	}
}

func TestRunSelectedIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(t, dir, domain.AllAnalysisTypes()...)
	writeInputs(t, tasks)

	inv := &fakeInvoker{
		fail: map[domain.AnalysisType]bool{domain.AnalysisCHR: true},
		hang: map[domain.AnalysisType]bool{domain.AnalysisBucket: true},
	}
	r := New(inv, 50*time.Millisecond)
	outcomes := r.RunSelected(context.Background(), tasks)

	if outcomes[domain.AnalysisCCR].State != domain.OutcomeSucceeded {
		t.Errorf("ccr = %+v, want succeeded", outcomes[domain.AnalysisCCR])
	}
	if outcomes[domain.AnalysisKeyword].State != domain.OutcomeSucceeded {
		t.Errorf("keyword = %+v, want succeeded", outcomes[domain.AnalysisKeyword])
	}
	if outcomes[domain.AnalysisCHR].State != domain.OutcomeFailed {
		t.Errorf("chr = %+v, want failed", outcomes[domain.AnalysisCHR])
	}
	bucket := outcomes[domain.AnalysisBucket]
	if bucket.State != domain.OutcomeFailed {
		t.Errorf("bucket state = %s, want failed", bucket.State)
	}
	if bucket.Reason != "timeout" {
		t.Errorf("bucket reason = %q, want %q", bucket.Reason, "timeout")
	}
}

func TestRunOneNoReportProduced(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(t, dir, domain.AnalysisCCR)
	writeInputs(t, tasks)

	inv := &fakeInvoker{noReport: map[domain.AnalysisType]bool{domain.AnalysisCCR: true}}
	r := New(inv, time.Minute)
	outcomes := r.RunSelected(context.Background(), tasks)

	out := outcomes[domain.AnalysisCCR]
	if out.State != domain.OutcomeFailed {
		t.Fatalf("state = %s, want failed", out.State)
	}
	if out.Reason != "no report produced" {
		t.Errorf("reason = %q", out.Reason)
	}
}

func TestRunOneRemovesStaleReport(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(t, dir, domain.AnalysisCCR)
	writeInputs(t, tasks)

	// a report from an earlier run is already on disk
	if err := os.WriteFile(tasks[0].OutputPath, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := &fakeInvoker{fail: map[domain.AnalysisType]bool{domain.AnalysisCCR: true}}
	r := New(inv, time.Minute)
	outcomes := r.RunSelected(context.Background(), tasks)

	if outcomes[domain.AnalysisCCR].State != domain.OutcomeFailed {
		t.Fatalf("state = %s, want failed", outcomes[domain.AnalysisCCR].State)
	}
	if _, err := os.Stat(tasks[0].OutputPath); !os.IsNotExist(err) {
		t.Errorf("stale report must not survive a failed rerun")
	}
}

func TestScriptInvokerMissingScript(t *testing.T) {
	inv := NewScriptInvoker("python3", t.TempDir())
	err := inv.Invoke(context.Background(), Task{
		Analysis:  domain.AnalysisCCR,
		SessionID: "s1",
		InputPath: "in.txt", OutputPath: "out.html", LogPath: "run.log",
	})
	if err == nil {
		t.Fatal("expected error for missing script")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"one line", "one line"},
		{"first\nsecond", "first"},
		{"  padded  \nrest", "padded"},
	}
	for _, tt := range tests {
		if got := firstLine([]byte(tt.in)); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
