// Package eventstore persists build events so past builds can be inspected
// after the fact (`sitebuilder history`).
package eventstore

import "time"

// Event types appended by the build pipeline.
const (
	TypeBuildStarted  = "build_started"
	TypeDocumentError = "document_error"
	TypeBuildFinished = "build_finished"
)

// Event is one persisted build event.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// FinishedPayload is the JSON payload of a build_finished event.
type FinishedPayload struct {
	Outcome    string `json:"outcome"`
	Documents  int    `json:"documents"`
	Pages      int    `json:"pages"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// DocumentErrorPayload is the JSON payload of a document_error event.
type DocumentErrorPayload struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}
