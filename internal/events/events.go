package events

import (
	"encoding/json"
	"time"
)

// Event types emitted on a bulk job stream. A consumer sees
// job_started, then interleaved item_* events with a job_progress
// after every item terminal event, terminated by exactly one
// job_completed (or a stream error). Heartbeats may appear anywhere.
const (
	TypeJobStarted    = "job_started"
	TypeItemStarted   = "item_started"
	TypeItemStep      = "item_step"
	TypeItemCompleted = "item_completed"
	TypeJobProgress   = "job_progress"
	TypeJobCompleted  = "job_completed"
	TypeHeartbeat = "heartbeat"

	// TypeError is reserved for an unrecoverable stream failure. The
	// per-job design has none today: item errors ride item_completed
	// and the coordinator always reaches job_completed. Consumers
	// should still treat it as terminal if it ever appears.
	TypeError = "error"
)

type Event struct {
	Type  string          `json:"type"`
	At    time.Time       `json:"at"`
	JobID string          `json:"job_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Make(jobID, typ string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	return Event{
		Type:  typ,
		At:    time.Now().UTC(),
		JobID: jobID,
		Data:  raw,
	}
}

// Encode renders the event as a single JSON line for hub broadcast.
func (e Event) Encode() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Payload shapes. Field names are part of the stream contract.

type JobStarted struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

type ItemStarted struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

type ItemStep struct {
	Index int    `json:"index"`
	Step  string `json:"step"`
}

type ItemCompleted struct {
	Index   int    `json:"index"`
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type JobProgress struct {
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Pending     int     `json:"pending"`
	ProgressPct float64 `json:"progress_pct"`
}

type JobCompleted struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

type StreamError struct {
	Message string `json:"message"`
}
