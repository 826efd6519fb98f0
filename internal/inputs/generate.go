package inputs

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TechSupportLog is the canonical diagnostic log inside a vendor bundle.
const TechSupportLog = "tech-support.log"

// FindTechSupportLog walks the transaction folder for the first file named
// tech-support.log. Returns "" when the bundle has none.
func FindTechSupportLog(workDir string) string {
	var found string
	filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == TechSupportLog {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func readLogLines(workDir string) ([]string, error) {
	logPath := FindTechSupportLog(workDir)
	if logPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", logPath, err)
	}
	text := strings.ToValidUTF8(string(data), "�")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n"), nil
}

// GenerateCCR extracts the running-config, vrrp stats, and active-AP blocks
// from the tech-support log. An absent log yields empty output, not an
// error; the CCR analysis is then skipped downstream.
func GenerateCCR(workDir string) (string, error) {
	lines, err := readLogLines(workDir)
	if err != nil || lines == nil {
		return "", err
	}
	runningConfig := ExtractBlock(lines, "show running-config", StopOnEnd)
	vrrp := ExtractBlock(lines, "show vrrp stats all", StopOnNextShow("show vrrp stats all"))
	apActive := ExtractBlock(lines, "show ap active", StopOnNextShow("show ap active"))
	return runningConfig + "\n" + vrrp + "\n" + apActive, nil
}

// GenerateCHR extracts only the running-config block.
func GenerateCHR(workDir string) (string, error) {
	lines, err := readLogLines(workDir)
	if err != nil || lines == nil {
		return "", err
	}
	return ExtractBlock(lines, "show running-config", StopOnEnd), nil
}

// GenerateBucket returns the complete tech-support log unmodified.
func GenerateBucket(workDir string) (string, error) {
	logPath := FindTechSupportLog(workDir)
	if logPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", logPath, err)
	}
	return string(data), nil
}

// keywordBaseDirs are the bundle subtrees the keyword analysis indexes; the
// config directory is added when extraction produced one.
var keywordBaseDirs = []string{"flash", "mswitch", "var"}

// GenerateKeyword writes a JSON document mapping each regular file's path
// (relative to workDir) to its text content. Entries are streamed to w one
// file at a time; the tree is never held in memory as a whole. Returns the
// number of files recorded.
func GenerateKeyword(workDir string, w io.Writer) (int, error) {
	dirs := keywordBaseDirs
	if info, err := os.Stat(filepath.Join(workDir, "config")); err == nil && info.IsDir() {
		dirs = append(append([]string{}, dirs...), "config")
	}

	if _, err := io.WriteString(w, "{"); err != nil {
		return 0, err
	}
	count := 0
	for _, d := range dirs {
		dirPath := filepath.Join(workDir, d)
		if _, err := os.Stat(dirPath); err != nil {
			continue
		}
		walkErr := filepath.WalkDir(dirPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() || !entry.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(workDir, path)
			if err != nil {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				// unreadable file is skipped, not fatal
				return nil
			}
			content := strings.ToValidUTF8(string(data), "�")
			if err := writeKeywordEntry(w, count, filepath.ToSlash(rel), content); err != nil {
				return err
			}
			count++
			return nil
		})
		if walkErr != nil {
			return count, walkErr
		}
	}
	if _, err := io.WriteString(w, "\n}\n"); err != nil {
		return count, err
	}
	return count, nil
}

func writeKeywordEntry(w io.Writer, index int, key, content string) error {
	sep := ",\n  "
	if index == 0 {
		sep = "\n  "
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s%s: %s", sep, k, v)
	return err
}
