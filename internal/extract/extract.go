package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// MaxDepth bounds nested archive recursion. Vendor bundles are routinely
// archives-inside-archives; anything deeper than this is either broken or
// hostile and the branch is cut.
const MaxDepth = 10

var (
	ErrArchiveNotFound = errors.New("archive not found")
	ErrDepthExceeded   = errors.New("max extraction depth exceeded")
)

// Opener unpacks a single archive file into a directory. It is an interface
// so the worklist logic can be tested without real archives on disk.
type Opener interface {
	Open(ctx context.Context, archivePath, destDir string) error
}

// Result reports what one Extract call did. Failed branches never abort the
// whole extraction; callers decide what a partial result means.
type Result struct {
	Extracted []string
	Skipped   []string // branches cut by the depth bound
	Failed    map[string]error
}

type Extractor struct {
	Opener   Opener
	MaxDepth int
	// RemoveNested deletes nested archives after unpacking them, keeping
	// only the uploaded archive itself on disk.
	RemoveNested bool
}

func New(op Opener) *Extractor {
	return &Extractor{Opener: op, MaxDepth: MaxDepth, RemoveNested: true}
}

type node struct {
	path  string
	dest  string
	depth int
}

// Extract unpacks archivePath into destDir, then keeps unpacking any nested
// archives it finds in the tree, breadth-first, until the worklist is empty.
// Each physical path is opened at most once; branches deeper than the depth
// bound are skipped. Config bundles (configs.tar.gz and friends) are
// relocated into a config/ subdirectory before being unpacked there, and an
// extracted flash tree is merged into that config area afterwards. Only a
// missing or unreadable root archive is a hard error.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) (*Result, error) {
	res := &Result{Failed: make(map[string]error)}

	if _, err := os.Stat(archivePath); err != nil {
		return res, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	maxDepth := e.MaxDepth
	if maxDepth <= 0 {
		maxDepth = MaxDepth
	}
	configDir := filepath.Join(destDir, "config")

	visited := map[string]bool{}
	work := []node{{path: archivePath, dest: destDir, depth: 0}}

	for len(work) > 0 {
		n := work[0]
		work = work[1:]

		if visited[n.path] {
			continue
		}
		visited[n.path] = true

		if n.depth > maxDepth {
			log.Printf("extract: depth %d exceeded at %s, branch skipped", n.depth, n.path)
			res.Skipped = append(res.Skipped, n.path)
			continue
		}

		if err := e.Opener.Open(ctx, n.path, n.dest); err != nil {
			if n.depth == 0 {
				// the uploaded archive itself is unreadable
				return res, fmt.Errorf("extracting %s: %w", n.path, err)
			}
			log.Printf("extract: %s failed: %v", n.path, err)
			res.Failed[n.path] = err
			continue
		}
		res.Extracted = append(res.Extracted, n.path)

		if e.RemoveNested && n.depth > 0 {
			if err := os.Remove(n.path); err != nil && !os.IsNotExist(err) {
				log.Printf("extract: removing nested archive %s: %v", n.path, err)
			}
		}

		// scan for nested archives produced by this unpack
		for _, p := range findArchives(n.dest, visited) {
			next := node{path: p, dest: n.dest, depth: n.depth + 1}
			if isConfigBundle(p, configDir) {
				moved, err := relocateConfigBundle(p, configDir)
				if err != nil {
					log.Printf("extract: relocating %s: %v", p, err)
					res.Failed[p] = err
					visited[p] = true
					continue
				}
				next.path = moved
				next.dest = configDir
			}
			work = append(work, next)
		}
	}

	if err := mergeFlash(destDir, configDir); err != nil {
		// conventional layout only; never fatal
		log.Printf("extract: merging flash tree into config: %v", err)
	}

	return res, nil
}

// findArchives walks dir for files that look like archives and are not yet
// visited.
func findArchives(dir string, visited map[string]bool) []string {
	var found []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are handled as missing branches
		}
		if d.IsDir() || visited[path] || !IsArchiveName(d.Name()) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	return found
}

// IsArchiveName reports whether a file name indicates a nested archive by
// extension.
func IsArchiveName(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".tar") ||
		strings.HasSuffix(name, ".tar.gz") ||
		strings.HasSuffix(name, ".tgz") ||
		strings.HasSuffix(name, ".7z")
}
