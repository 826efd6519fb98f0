package sweeper

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Sweeper deletes expired artifacts under the upload root. Raw archives and
// intermediate extraction trees age out after RawRetention; generated
// input/output/log material after IORetention. A config directory is always
// preserved so other tooling can reuse it. Every deletion failure is logged
// and skipped; one bad entry never stops the pass.
type Sweeper struct {
	Root         string
	RawRetention time.Duration
	IORetention  time.Duration
	Now          func() time.Time // nil means time.Now
}

var rawExts = []string{".tar", ".tar.gz", ".tgz", ".gz", ".7z"}
var ioExts = []string{".html", ".json", ".txt", ".log"}

func hasAnySuffix(name string, exts []string) bool {
	name = strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

// Sweep walks the upload root bottom-up and applies the retention policy.
func (s *Sweeper) Sweep() {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var files, dirs, configDirs []string
	filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == s.Root {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			if d.Name() == "config" {
				configDirs = append(configDirs, path)
			}
		} else {
			files = append(files, path)
		}
		return nil
	})

	for _, path := range files {
		info, err := os.Lstat(path)
		if err != nil {
			continue // vanished since the walk
		}
		age := now.Sub(info.ModTime())
		name := filepath.Base(path)
		switch {
		case hasAnySuffix(name, rawExts):
			if age > s.RawRetention {
				s.remove(path, os.Remove, "raw file")
			}
		case hasAnySuffix(name, ioExts):
			if age > s.IORetention {
				s.remove(path, os.Remove, "generated file")
			}
		}
	}

	// deepest directories first, so children are judged before parents
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(os.PathSeparator)) > strings.Count(dirs[j], string(os.PathSeparator))
	})
	for _, path := range dirs {
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		base := filepath.Base(path)
		switch {
		case base == "input" || base == "output" || base == "log":
			if age > s.IORetention {
				s.remove(path, os.RemoveAll, "generated folder")
			}
		case base == "config":
			// preserved for reuse by other tooling
		default:
			if guardsConfig(path, configDirs) {
				continue // removing it would take a config dir with it
			}
			if age > s.RawRetention {
				s.remove(path, os.RemoveAll, "intermediate folder")
			}
		}
	}
}

// guardsConfig reports whether path is a config dir or holds one below it.
func guardsConfig(path string, configDirs []string) bool {
	for _, c := range configDirs {
		if c == path || strings.HasPrefix(c, path+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func (s *Sweeper) remove(path string, rm func(string) error, kind string) {
	if err := rm(path); err != nil {
		log.Printf("sweeper: error deleting %s %s: %v", kind, path, err)
		return
	}
	log.Printf("sweeper: deleted %s: %s", kind, path)
}

// Start runs Sweep every day at 02:00 UTC until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		for {
			next := nextRun(time.Now().UTC())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.Sweep()
			}
		}
	}()
	log.Printf("sweeper: scheduled daily at 02:00 UTC for %s", s.Root)
}

func nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
