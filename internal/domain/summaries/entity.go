package summaries

import "time"

// SummaryID identifier type
type SummaryID string

// Summary represents an AI report digest stored for auditing and retrieval
type Summary struct {
	ID        SummaryID `json:"id"`
	Owner     string    `json:"owner"`
	SessionID string    `json:"session_id"`
	Analysis  string    `json:"analysis"`
	ReportURL string    `json:"report_url"`
	Result    string    `json:"result"` // JSON string from the model
	CreatedAt time.Time `json:"created_at"`
}
