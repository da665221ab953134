// Package cliutil holds presentation helpers shared by the CLI commands.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Paintersrp/rstrtr/internal/supervisor"
)

// LogRecord represents a structured supervisor event ready for JSON encoding.
type LogRecord struct {
	Timestamp  time.Time `json:"ts"`
	Type       string    `json:"type"`
	Generation int       `json:"generation"`
	Pid        int       `json:"pid,omitempty"`
	ExitStatus string    `json:"exitStatus,omitempty"`
	Level      string    `json:"level"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewLogRecord converts a supervisor event into a structured log record.
func NewLogRecord(event supervisor.Event) LogRecord {
	record := LogRecord{
		Timestamp:  event.Timestamp,
		Type:       string(event.Type),
		Generation: event.Generation,
		Pid:        event.Pid,
		ExitStatus: event.ExitStatus,
		Level:      "info",
		Reason:     event.Reason,
	}
	if event.Type == supervisor.EventTypeError {
		record.Level = "error"
	}
	if event.Err != nil {
		record.Error = event.Err.Error()
	}
	return record
}

// EncodeLogEvent encodes a supervisor event to JSON, reporting encoding
// failures to stderr rather than interrupting the event stream.
func EncodeLogEvent(enc *json.Encoder, stderr io.Writer, event supervisor.Event) {
	if enc == nil {
		return
	}
	record := NewLogRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}
