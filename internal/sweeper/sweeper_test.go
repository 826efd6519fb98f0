package sweeper

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
}

func touchDir(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
}

const day = 24 * time.Hour

func newSweeper(root string) *Sweeper {
	return &Sweeper{
		Root:         root,
		RawRetention: 30 * day,
		IORetention:  360 * day,
	}
}

func TestSweepDeletesExpiredRawArchives(t *testing.T) {
	root := t.TempDir()
	sess := filepath.Join(root, "alice", "case-1", "sess-1")
	touch(t, filepath.Join(sess, "logs.tar"), 31*day)
	touch(t, filepath.Join(sess, "fresh.tar.gz"), 5*day)

	newSweeper(root).Sweep()

	if _, err := os.Stat(filepath.Join(sess, "logs.tar")); !os.IsNotExist(err) {
		t.Errorf("expired raw archive should be deleted")
	}
	if _, err := os.Stat(filepath.Join(sess, "fresh.tar.gz")); err != nil {
		t.Errorf("fresh raw archive must stay: %v", err)
	}
}

func TestSweepRawVersusIORetention(t *testing.T) {
	root := t.TempDir()
	sess := filepath.Join(root, "bob", "no-case", "sess-2")
	// past raw retention but well within io retention
	touch(t, filepath.Join(sess, "output", "ccr_output.html"), 100*day)
	// past io retention
	touch(t, filepath.Join(sess, "output", "ancient.html"), 361*day)

	newSweeper(root).Sweep()

	if _, err := os.Stat(filepath.Join(sess, "output", "ccr_output.html")); err != nil {
		t.Errorf("report within io retention must stay: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sess, "output", "ancient.html")); !os.IsNotExist(err) {
		t.Errorf("report past io retention should be deleted")
	}
}

func TestSweepRemovesExpiredGeneratedFolders(t *testing.T) {
	root := t.TempDir()
	sess := filepath.Join(root, "carol", "case-9", "sess-3")
	inputDir := filepath.Join(sess, "input")
	touch(t, filepath.Join(inputDir, "CCR_input.txt"), 361*day)
	touchDir(t, inputDir, 361*day)

	newSweeper(root).Sweep()

	if _, err := os.Stat(inputDir); !os.IsNotExist(err) {
		t.Errorf("expired input folder should be removed entirely")
	}
}

func TestSweepPreservesConfigDir(t *testing.T) {
	root := t.TempDir()
	sess := filepath.Join(root, "dave", "case-2", "sess-4")
	configDir := filepath.Join(sess, "config")
	touch(t, filepath.Join(configDir, "default.cfg"), 500*day)
	touchDir(t, configDir, 500*day)
	// the session folder itself is also ancient
	touchDir(t, sess, 500*day)

	newSweeper(root).Sweep()

	if _, err := os.Stat(filepath.Join(configDir, "default.cfg")); err != nil {
		t.Errorf("config content must never be swept: %v", err)
	}
}

func TestSweepRemovesExpiredIntermediateFolders(t *testing.T) {
	root := t.TempDir()
	sess := filepath.Join(root, "erin", "case-3", "sess-5")
	flash := filepath.Join(sess, "flash")
	touch(t, filepath.Join(flash, "boot.cfg"), 40*day)
	touchDir(t, flash, 40*day)
	keep := filepath.Join(sess, "mswitch")
	touchDir(t, keep, 5*day)

	newSweeper(root).Sweep()

	if _, err := os.Stat(flash); !os.IsNotExist(err) {
		t.Errorf("expired extraction tree should be removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("fresh extraction tree must stay: %v", err)
	}
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC),
			time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		if got := nextRun(tt.now); !got.Equal(tt.want) {
			t.Errorf("nextRun(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}
