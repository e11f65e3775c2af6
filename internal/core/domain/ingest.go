package domain

import "time"

type IngestStatus string

const (
	StatusQueued     IngestStatus = "queued"
	StatusInProgress IngestStatus = "in_progress"
	StatusCompleted  IngestStatus = "completed"
	StatusFailed     IngestStatus = "failed"
)

// Terminal reports whether no further transition is possible for this
// status short of submitting a brand-new batch.
func (s IngestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IngestTask tracks one session's ingestion batch. Mutated only by the
// coordinator running that batch; polled by the surrounding application.
type IngestTask struct {
	SessionID string       `json:"session_id"`
	Status    IngestStatus `json:"status"`
	Detail    string       `json:"detail"`
	Percent   int          `json:"percent"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IngestBatch is the set of files submitted together for one session.
type IngestBatch struct {
	SessionID string   `json:"session_id"`
	FilePaths []string `json:"file_paths"`
}

// SessionMeta is the durable record of a completed ingestion batch.
type SessionMeta struct {
	SessionID string    `json:"session_id"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}
