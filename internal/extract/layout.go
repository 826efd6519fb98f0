package extract

import (
	"os"
	"path/filepath"
	"strings"
)

// Vendor bundles ship device configuration as configs.tar.gz (sometimes a
// plain configs.tar one level in). Downstream tooling expects that content
// under a config/ directory, so the bundle is moved there before unpacking.

func isConfigBundle(path, configDir string) bool {
	base := strings.ToLower(filepath.Base(path))
	if base != "configs.tar.gz" && base != "configs.tar" && base != "configs.tgz" {
		return false
	}
	// already relocated
	return !strings.HasPrefix(path, configDir+string(os.PathSeparator))
}

func relocateConfigBundle(path, configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}
	moved := filepath.Join(configDir, filepath.Base(path))
	if err := os.Rename(path, moved); err != nil {
		return "", err
	}
	return moved, nil
}

// mergeFlash copies an extracted flash tree into the config area so keyword
// tooling sees the conventional config/flash layout. The original flash tree
// stays in place.
func mergeFlash(destDir, configDir string) error {
	flashDir := filepath.Join(destDir, "flash")
	info, err := os.Stat(flashDir)
	if err != nil || !info.IsDir() {
		return nil // nothing to merge
	}
	if _, err := os.Stat(configDir); err != nil {
		return nil // no config area was produced
	}
	target := filepath.Join(configDir, "flash")
	if _, err := os.Stat(target); err == nil {
		return nil // bundle already carried its own flash tree
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	return os.CopyFS(target, os.DirFS(flashDir))
}
