package sessions

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/techsupport-portal/internal/application"
	"github.com/bryanwahyu/techsupport-portal/internal/domain/runerrors"
	domain "github.com/bryanwahyu/techsupport-portal/internal/domain/sessions"
	"github.com/bryanwahyu/techsupport-portal/internal/extract"
	"github.com/bryanwahyu/techsupport-portal/internal/inputs"
	"github.com/bryanwahyu/techsupport-portal/internal/runner"
)

// Service implements the upload-to-report use cases. One Service is shared
// by all requests; per-session state lives on the Session and its
// transaction folder only.
type Service struct {
	Repo      domain.Repository
	RunErrors runerrors.Repository // optional audit trail
	Extractor *extract.Extractor
	Runner    *runner.Runner
	Reports   domain.ReportStore // optional object-storage mirror
	Mailer    domain.Mailer      // optional
	Clock     application.Clock

	UploadRoot    string
	DeleteArchive bool
}

// UploadCommand carries one accepted upload.
type UploadCommand struct {
	Owner      string
	CaseNumber string
	FileName   string
	Archive    io.Reader
	Analyses   []domain.AnalysisType
}

// CreateSession allocates the identifier and transaction folder, stores the
// uploaded archive under its canonical name, and persists the session row.
// Folder or persistence failures here are the caller's problem: without a
// durable row the upload is not auditable and must be rejected.
func (s *Service) CreateSession(ctx context.Context, cmd UploadCommand) (*domain.Session, error) {
	caseNumber := strings.TrimSpace(cmd.CaseNumber)
	if caseNumber == "" {
		caseNumber = domain.NoCase
	}

	id := domain.SessionID(uuid.New().String())
	folder := filepath.Join(s.UploadRoot, cmd.Owner, caseNumber, string(id))

	sess := &domain.Session{
		ID:          id,
		Owner:       cmd.Owner,
		CaseNumber:  caseNumber,
		Folder:      folder,
		ArchiveName: canonicalArchiveName(cmd.FileName),
		UploadedAt:  s.Clock.Now(),
		Analyses:    cmd.Analyses,
		Status:      domain.StatusCreated,
		Outcomes:    make(map[domain.AnalysisType]domain.Outcome, len(cmd.Analyses)),
	}
	for _, a := range cmd.Analyses {
		sess.Outcomes[a] = domain.Outcome{State: domain.OutcomePending}
	}

	for _, dir := range []string{folder, sess.InputDir(), sess.OutputDir(), sess.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating transaction folder: %w", err)
		}
	}

	dst, err := os.Create(sess.ArchivePath())
	if err != nil {
		return nil, fmt.Errorf("saving archive: %w", err)
	}
	if _, err := io.Copy(dst, cmd.Archive); err != nil {
		dst.Close()
		return nil, fmt.Errorf("saving archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("saving archive: %w", err)
	}

	if err := s.Repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session metadata: %w", err)
	}
	return sess, nil
}

// canonicalArchiveName keeps the real extension so format detection and the
// retention sweeper both see what the file is, but drops the uploader's name.
func canonicalArchiveName(fileName string) string {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"):
		return "logs.tar.gz"
	case strings.HasSuffix(lower, ".tgz"):
		return "logs.tgz"
	case strings.HasSuffix(lower, ".7z"):
		return "logs.7z"
	default:
		return "logs.tar"
	}
}

// Run drives one session through extraction, input generation, and analysis.
// Branch failures are recorded and tolerated; only an unreadable upload or a
// metadata write failure fails the session.
func (s *Service) Run(ctx context.Context, sess *domain.Session) error {
	if err := s.setStatus(ctx, sess, domain.StatusExtracting); err != nil {
		return err
	}

	res, err := s.Extractor.Extract(ctx, sess.ArchivePath(), sess.Folder)
	if err != nil {
		s.recordError(ctx, sess, "extract", "", sess.ArchivePath(), err)
		s.fail(ctx, sess)
		return fmt.Errorf("extraction failed: %w", err)
	}
	for path, ferr := range res.Failed {
		s.recordError(ctx, sess, "extract", "", path, ferr)
	}
	for _, path := range res.Skipped {
		s.recordError(ctx, sess, "extract", "", path, extract.ErrDepthExceeded)
	}

	if s.DeleteArchive {
		if err := os.Remove(sess.ArchivePath()); err != nil {
			log.Printf("session=%s removing archive after extraction: %v", sess.ID, err)
		}
	}

	if err := s.setStatus(ctx, sess, domain.StatusGeneratingInputs); err != nil {
		return err
	}
	s.generateInputs(ctx, sess)

	if err := s.setStatus(ctx, sess, domain.StatusAnalyzing); err != nil {
		return err
	}
	outcomes := s.Runner.RunSelected(ctx, s.buildTasks(sess))
	for a, out := range outcomes {
		if out.State == domain.OutcomeFailed {
			s.recordError(ctx, sess, "analyze", string(a), out.ReportPath, fmt.Errorf("%s", out.Reason))
		}
	}
	s.mirrorReports(ctx, sess, outcomes)

	sess.Outcomes = outcomes
	sess.Status = domain.StatusComplete
	if err := s.Repo.UpdateOutcomes(ctx, sess.Owner, sess.ID, sess.Status, outcomes); err != nil {
		s.recordError(ctx, sess, "persist", "", "", err)
		return fmt.Errorf("saving session outcomes: %w", err)
	}
	return nil
}

// RunDetached jalanin pipeline dengan context.Background()
// cocok dipanggil dari goroutine di router supaya gak kena context canceled
func (s *Service) RunDetached(sess *domain.Session) {
	go func() {
		if err := s.Run(context.Background(), sess); err != nil {
			log.Printf("background pipeline error session=%s owner=%s: %v", sess.ID, sess.Owner, err)
		}
	}()
}

func (s *Service) generateInputs(ctx context.Context, sess *domain.Session) {
	for _, a := range sess.Analyses {
		switch a {
		case domain.AnalysisCCR:
			s.writeTextInput(ctx, sess, a, inputs.GenerateCCR)
		case domain.AnalysisCHR:
			s.writeTextInput(ctx, sess, a, inputs.GenerateCHR)
		case domain.AnalysisBucket:
			s.writeTextInput(ctx, sess, a, inputs.GenerateBucket)
		case domain.AnalysisKeyword:
			s.writeKeywordInput(ctx, sess)
		}
	}
}

func (s *Service) writeTextInput(ctx context.Context, sess *domain.Session, a domain.AnalysisType, gen func(string) (string, error)) {
	content, err := gen(sess.Folder)
	if err != nil {
		s.recordError(ctx, sess, "generate", string(a), sess.InputPath(a), err)
		return
	}
	if strings.TrimSpace(content) == "" {
		// no source material; the analysis will be skipped, not failed
		log.Printf("session=%s analysis=%s has no input material", sess.ID, a)
		return
	}
	if err := os.WriteFile(sess.InputPath(a), []byte(content), 0o644); err != nil {
		s.recordError(ctx, sess, "generate", string(a), sess.InputPath(a), err)
	}
}

func (s *Service) writeKeywordInput(ctx context.Context, sess *domain.Session) {
	a := domain.AnalysisKeyword
	f, err := os.Create(sess.InputPath(a))
	if err != nil {
		s.recordError(ctx, sess, "generate", string(a), sess.InputPath(a), err)
		return
	}
	count, err := inputs.GenerateKeyword(sess.Folder, f)
	cerr := f.Close()
	if err != nil || cerr != nil {
		if err == nil {
			err = cerr
		}
		s.recordError(ctx, sess, "generate", string(a), sess.InputPath(a), err)
		os.Remove(sess.InputPath(a))
		return
	}
	log.Printf("session=%s keyword dataset built with %d files", sess.ID, count)
}

func (s *Service) buildTasks(sess *domain.Session) []runner.Task {
	tasks := make([]runner.Task, 0, len(sess.Analyses))
	for _, a := range sess.Analyses {
		tasks = append(tasks, runner.Task{
			Analysis:   a,
			SessionID:  string(sess.ID),
			InputPath:  sess.InputPath(a),
			OutputPath: sess.ReportPath(a),
			LogPath:    sess.RunLogPath(),
		})
	}
	return tasks
}

// mirrorReports pushes finished reports to object storage. Mirror failures
// are logged only; the local report is still served.
func (s *Service) mirrorReports(ctx context.Context, sess *domain.Session, outcomes map[domain.AnalysisType]domain.Outcome) {
	if s.Reports == nil {
		return
	}
	for a, out := range outcomes {
		if out.State != domain.OutcomeSucceeded {
			continue
		}
		key := fmt.Sprintf("%s/%s/%s/%s", sess.Owner, sess.CaseNumber, sess.ID, filepath.Base(out.ReportPath))
		url, err := s.Reports.Upload(ctx, out.ReportPath, key)
		if err != nil {
			log.Printf("session=%s analysis=%s mirror upload failed: %v", sess.ID, a, err)
			continue
		}
		out.MirrorURL = url
		outcomes[a] = out
	}
}

func (s *Service) setStatus(ctx context.Context, sess *domain.Session, st domain.Status) error {
	sess.Status = st
	if err := s.Repo.UpdateStatus(ctx, sess.Owner, sess.ID, st); err != nil {
		s.recordError(ctx, sess, "persist", "", "", err)
		return fmt.Errorf("updating session status: %w", err)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, sess *domain.Session) {
	sess.Status = domain.StatusFailed
	if err := s.Repo.UpdateStatus(ctx, sess.Owner, sess.ID, domain.StatusFailed); err != nil {
		log.Printf("session=%s marking failed: %v", sess.ID, err)
	}
}

func (s *Service) recordError(ctx context.Context, sess *domain.Session, phase, analysis, path string, err error) {
	log.Printf("session=%s phase=%s analysis=%s path=%s: %v", sess.ID, phase, analysis, path, err)
	if s.RunErrors == nil {
		return
	}
	entry := &runerrors.RunError{
		Owner:     sess.Owner,
		SessionID: string(sess.ID),
		Analysis:  analysis,
		Phase:     phase,
		Message:   err.Error(),
		Path:      path,
		CreatedAt: s.Clock.Now(),
	}
	if serr := s.RunErrors.Save(ctx, entry); serr != nil {
		log.Printf("session=%s saving error entry: %v", sess.ID, serr)
	}
}

//
// ==== RETRIEVAL ====
//

// Get ambil 1 session by id
func (s *Service) Get(ctx context.Context, owner string, id domain.SessionID) (*domain.Session, error) {
	return s.Repo.Get(ctx, owner, id)
}

// Latest ambil N session terakhir
func (s *Service) Latest(ctx context.Context, owner string, limit int) ([]*domain.Session, error) {
	return s.Repo.Latest(ctx, owner, limit)
}

// Paginate list session dengan filter case_number/status
func (s *Service) Paginate(ctx context.Context, owner string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, owner, page, pageSize, filters)
}

// Summary rekap usage N hari terakhir
func (s *Service) Summary(ctx context.Context, owner string, sinceDays int) (map[string]any, error) {
	total, complete, failed, err := s.Repo.Summary(ctx, owner, sinceDays)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_sessions": total,
		"complete":       complete,
		"failed":         failed,
		"in_flight":      total - complete - failed,
	}, nil
}

// ListErrors ambil error audit rows untuk 1 session
func (s *Service) ListErrors(ctx context.Context, owner string, id domain.SessionID, limit int) ([]*runerrors.RunError, error) {
	if s.RunErrors == nil {
		return nil, nil
	}
	return s.RunErrors.ListBySession(ctx, owner, string(id), limit)
}

// ReportFile resolves a session's report for one analysis and confirms it
// still exists on disk; the sweeper may have raced it away. An analysis
// whose outcome is not terminal yet never serves a report, even if a file
// from an earlier run is still on disk.
func (s *Service) ReportFile(ctx context.Context, owner string, id domain.SessionID, analysis domain.AnalysisType) (string, error) {
	sess, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return "", err
	}
	if out, ok := sess.Outcomes[analysis]; ok && !out.Terminal() {
		return "", fmt.Errorf("report not available while analysis is %s: %w", out.State, os.ErrNotExist)
	}
	path := sess.ReportPath(analysis)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("report not available: %w", err)
	}
	return path, nil
}

// EmailReport sends one finished report to the session owner.
func (s *Service) EmailReport(ctx context.Context, owner string, id domain.SessionID, analysis domain.AnalysisType) error {
	if s.Mailer == nil {
		return fmt.Errorf("mail is not configured")
	}
	path, err := s.ReportFile(ctx, owner, id, analysis)
	if err != nil {
		return err
	}
	report, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	return s.Mailer.SendReport(ctx, owner, filepath.Base(path), report)
}
