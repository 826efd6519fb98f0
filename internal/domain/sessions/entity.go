package sessions

import (
	"path/filepath"
	"time"
)

// ID tipe untuk Session
type SessionID string

// AnalysisType enum
type AnalysisType string

const (
	AnalysisCCR     AnalysisType = "ccr"
	AnalysisCHR     AnalysisType = "chr"
	AnalysisBucket  AnalysisType = "bucket"
	AnalysisKeyword AnalysisType = "keyword"
)

// AllAnalysisTypes lists every supported analysis in a stable order.
func AllAnalysisTypes() []AnalysisType {
	return []AnalysisType{AnalysisCCR, AnalysisCHR, AnalysisBucket, AnalysisKeyword}
}

// Status enum (session lifecycle)
type Status string

const (
	StatusCreated          Status = "created"
	StatusExtracting       Status = "extracting"
	StatusGeneratingInputs Status = "generating_inputs"
	StatusAnalyzing        Status = "analyzing"
	StatusComplete         Status = "complete"
	StatusFailed           Status = "failed"
)

// OutcomeState enum (per-analysis result)
type OutcomeState string

const (
	OutcomePending   OutcomeState = "pending"
	OutcomeSucceeded OutcomeState = "succeeded"
	OutcomeFailed    OutcomeState = "failed"
	OutcomeSkipped   OutcomeState = "skipped"
)

// Outcome value object: terminal result of one analysis run
type Outcome struct {
	State      OutcomeState `json:"state"`
	ReportPath string       `json:"report_path,omitempty"`
	MirrorURL  string       `json:"mirror_url,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	DurationMS int64        `json:"duration_ms,omitempty"`
}

// NoCase is recorded when the uploader left the case number empty.
const NoCase = "no-case"

// Aggregate Root: Session (one upload-to-report transaction)
type Session struct {
	ID          SessionID                `json:"id"`
	Owner       string                   `json:"owner"`
	CaseNumber  string                   `json:"case_number"`
	Folder      string                   `json:"folder"`
	ArchiveName string                   `json:"archive_name,omitempty"`
	UploadedAt  time.Time                `json:"uploaded_at"`
	Analyses    []AnalysisType           `json:"analyses"`
	Status      Status                   `json:"status"`
	Outcomes    map[AnalysisType]Outcome `json:"outcomes"`
}

// Transaction folder layout. Everything the pipeline produces for one
// session lives under Folder; these never point outside it.
func (s *Session) InputDir() string  { return filepath.Join(s.Folder, "input") }
func (s *Session) OutputDir() string { return filepath.Join(s.Folder, "output") }
func (s *Session) LogDir() string    { return filepath.Join(s.Folder, "log") }

// ArchivePath is the canonical location of the uploaded archive.
func (s *Session) ArchivePath() string { return filepath.Join(s.Folder, s.ArchiveName) }

// RunLogPath is the session-wide pipeline log handed to every script.
func (s *Session) RunLogPath() string {
	return filepath.Join(s.LogDir(), string(s.ID)+".log")
}

// InputFileName is the generated artifact consumed by one analysis script.
func InputFileName(t AnalysisType) string {
	switch t {
	case AnalysisCCR:
		return "CCR_input.txt"
	case AnalysisCHR:
		return "CHR_input.txt"
	case AnalysisBucket:
		return "bucket_input.txt"
	case AnalysisKeyword:
		return "keyword_input.json"
	}
	return ""
}

// ReportFileName is the HTML report each script writes. The keyword script
// names its own output.
func ReportFileName(t AnalysisType) string {
	if t == AnalysisKeyword {
		return "keywordsearch.html"
	}
	return string(t) + "_output.html"
}

func (s *Session) InputPath(t AnalysisType) string {
	return filepath.Join(s.InputDir(), InputFileName(t))
}

func (s *Session) ReportPath(t AnalysisType) string {
	return filepath.Join(s.OutputDir(), ReportFileName(t))
}

// ParseAnalysisType validates a user-supplied analysis tag.
func ParseAnalysisType(v string) (AnalysisType, bool) {
	switch AnalysisType(v) {
	case AnalysisCCR, AnalysisCHR, AnalysisBucket, AnalysisKeyword:
		return AnalysisType(v), true
	}
	return "", false
}

// Terminal reports whether no further outcome transitions are allowed.
func (o Outcome) Terminal() bool {
	return o.State == OutcomeSucceeded || o.State == OutcomeFailed || o.State == OutcomeSkipped
}
