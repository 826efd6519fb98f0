package runerrors

import "time"

// RunError represents a persisted pipeline error entry
type RunError struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	SessionID string    `json:"session_id"`
	Analysis  string    `json:"analysis,omitempty"`
	Phase     string    `json:"phase,omitempty"` // extract | generate | analyze | persist
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
