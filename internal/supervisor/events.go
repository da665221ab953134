package supervisor

import "time"

// EventType captures the lifecycle notifications emitted by the supervision
// loop.
type EventType string

const (
	// EventTypeStarting fires when a new child generation has been spawned.
	EventTypeStarting EventType = "starting"
	// EventTypeExited fires when a generation is observed to have exited on
	// its own, before the loop decides to respawn.
	EventTypeExited EventType = "exited"
	// EventTypeRestarting fires when the loop is about to spawn the next
	// generation, whether due to a control write or a self-exit.
	EventTypeRestarting EventType = "restarting"
	// EventTypeQuitting is the final event of a run.
	EventTypeQuitting EventType = "quitting"
	// EventTypeError reports a diagnostic, fatal or recoverable.
	EventTypeError EventType = "error"
)

// Reasons attached to events so consumers can tell the triggers apart
// without parsing messages.
const (
	ReasonControlModified = "control_modified"
	ReasonControlRemoved  = "control_removed"
	ReasonSelfExit        = "self_exit"
	ReasonShutdown        = "shutdown"
	ReasonSpawnFailure    = "spawn_failure"
	ReasonKillFailure     = "kill_failure"
	ReasonWatchError      = "watch_error"
	ReasonWaitFailure     = "wait_failure"
)

// Event is a single lifecycle or diagnostic notification.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Generation int
	Pid        int
	// ExitStatus is the rendered child exit status, set on exited events.
	ExitStatus string
	// ExitCode is the numeric exit code, -1 for signal-killed children.
	ExitCode int
	Reason   string
	Err      error
}
