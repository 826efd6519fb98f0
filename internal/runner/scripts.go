package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
)

// ScriptInvoker runs the analysis scripts as external processes. The
// CommandContext kill on deadline is what enforces the task timeout.
type ScriptInvoker struct {
	Python     string
	ScriptsDir string
}

func NewScriptInvoker(python, scriptsDir string) *ScriptInvoker {
	if python == "" {
		python = "python3"
	}
	return &ScriptInvoker{Python: python, ScriptsDir: scriptsDir}
}

func (s *ScriptInvoker) scriptPath(t domain.AnalysisType) string {
	switch t {
	case domain.AnalysisCCR:
		return filepath.Join(s.ScriptsDir, "CCR", "Script-with-Default-Profile.py")
	case domain.AnalysisCHR:
		return filepath.Join(s.ScriptsDir, "CHR", "script_chr.py")
	case domain.AnalysisBucket:
		return filepath.Join(s.ScriptsDir, "Bucket", "script_bucket.py")
	case domain.AnalysisKeyword:
		return filepath.Join(s.ScriptsDir, "KeyWord", "script_keyword.py")
	}
	return ""
}

func (s *ScriptInvoker) Invoke(ctx context.Context, t Task) error {
	script := s.scriptPath(t.Analysis)
	if script == "" {
		return fmt.Errorf("unsupported analysis: %s", t.Analysis)
	}
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("script not found: %s", script)
	}

	var cmd *exec.Cmd
	if t.Analysis == domain.AnalysisKeyword {
		// the keyword script takes directories and names its own report
		cmd = exec.CommandContext(ctx, s.Python, script,
			filepath.Dir(t.InputPath), filepath.Dir(t.OutputPath), t.LogPath, t.SessionID)
	} else {
		cmd = exec.CommandContext(ctx, s.Python, script, t.InputPath, t.OutputPath, t.LogPath)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("exit %d: %s", ee.ExitCode(), firstLine(out))
		}
		return fmt.Errorf("run error: %w", err)
	}
	return nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
