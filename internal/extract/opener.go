package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

const copyBufferSize = 64 * 1024

// ArchiveOpener unpacks real archives using format auto-detection, so tar,
// tar.gz, tgz and 7z-handled containers all go through the same path.
type ArchiveOpener struct{}

func (ArchiveOpener) Open(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	format, input, err := archives.Identify(ctx, archivePath, f)
	if err != nil {
		return fmt.Errorf("identify %s: %w", filepath.Base(archivePath), err)
	}
	ex, ok := format.(archives.Extractor)
	if !ok {
		return fmt.Errorf("format %T does not support extraction", format)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	return ex.Extract(ctx, input, func(ctx context.Context, fi archives.FileInfo) error {
		return writeEntry(destDir, fi)
	})
}

func writeEntry(destDir string, fi archives.FileInfo) error {
	target := filepath.Clean(filepath.Join(destDir, fi.NameInArchive))

	// path traversal guard
	root := filepath.Clean(destDir) + string(os.PathSeparator)
	if !strings.HasPrefix(target+string(os.PathSeparator), root) {
		return fmt.Errorf("entry escapes destination: %s", fi.NameInArchive)
	}

	if fi.IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		// symlinks in vendor bundles point at device paths; skip them
		return nil
	}

	reader, err := fi.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	mode := fi.Mode() & 0o777
	if mode == 0 {
		mode = 0o644
	}
	w, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.CopyBuffer(w, reader, make([]byte, copyBufferSize)); err != nil {
		w.Close()
		os.Remove(target)
		return err
	}
	return w.Close()
}
