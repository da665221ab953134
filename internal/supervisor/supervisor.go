// Package supervisor implements the restart/quit state machine at the heart
// of rstrtr: spawn the command, watch the control file, kill-and-respawn on
// writes, kill-and-exit on removal, and respawn whenever the child exits on
// its own.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/Paintersrp/rstrtr/internal/metrics"
	"github.com/Paintersrp/rstrtr/internal/proc"
	"github.com/Paintersrp/rstrtr/internal/watch"
)

// DefaultPollInterval bounds each wait on the control event stream. It
// doubles as the child health-check cadence, so exit detection latency is at
// most this plus the watcher's debounce window.
const DefaultPollInterval = 50 * time.Millisecond

// Child is the handle the loop holds on one spawned generation.
type Child interface {
	Pid() int
	TryWait() (proc.Status, bool)
	Kill() error
}

// Source delivers classified control file events. *watch.Watcher satisfies
// it; tests substitute a scripted fake.
type Source interface {
	Poll(timeout time.Duration) (watch.Event, bool)
	Errors() <-chan error
}

// Supervisor drives one supervised command for the lifetime of a run.
type Supervisor struct {
	command []string
	source  Source
	events  chan<- Event

	pollInterval time.Duration
	spawn        func(command []string) (Child, error)
}

// New constructs a supervisor for command, consuming control events from
// source. Lifecycle events are delivered on events, which the caller must
// drain; a nil channel discards them.
func New(command []string, source Source, events chan<- Event) *Supervisor {
	return &Supervisor{
		command:      command,
		source:       source,
		events:       events,
		pollInterval: DefaultPollInterval,
		spawn: func(command []string) (Child, error) {
			return proc.Start(command)
		},
	}
}

// Run executes the supervision loop until a quit request arrives, either as
// a control file removal or as ctx cancellation. A spawn failure aborts the
// run with an error and no retry: it indicates a misconfigured command, not
// a transient condition. All other runtime failures are reported as error
// events and survived.
func (s *Supervisor) Run(ctx context.Context) error {
	keepGoing := true
	quitReason := ReasonControlRemoved
	generation := 0

	for keepGoing {
		generation++
		child, err := s.spawn(s.command)
		if err != nil {
			err = fmt.Errorf("spawn generation %d: %w", generation, err)
			s.send(Event{Type: EventTypeError, Generation: generation, Reason: ReasonSpawnFailure, Err: err})
			return err
		}
		s.send(Event{Type: EventTypeStarting, Generation: generation, Pid: child.Pid()})

		running := true
		for running {
			restart := false

			select {
			case <-ctx.Done():
				keepGoing = false
				quitReason = ReasonShutdown
			default:
			}

			if keepGoing {
				s.drainWatchErrors(generation)
				if event, ok := s.source.Poll(s.pollInterval); ok {
					metrics.IncControlSignal(event.Kind.String())
					switch event.Kind {
					case watch.Modified:
						restart = true
					case watch.Removed:
						// Quit outranks any restart inferred this cycle.
						keepGoing = false
						quitReason = ReasonControlRemoved
					}
				}
			}

			if restart || !keepGoing {
				if err := child.Kill(); err != nil {
					// Best effort: proceed as if the kill landed.
					s.send(Event{Type: EventTypeError, Generation: generation, Pid: child.Pid(), Reason: ReasonKillFailure, Err: err})
				}
			}
			if !keepGoing {
				break
			}

			if status, exited := child.TryWait(); exited {
				if status.Err != nil {
					s.send(Event{Type: EventTypeError, Generation: generation, Pid: child.Pid(), Reason: ReasonWaitFailure, Err: status.Err})
				}
				metrics.IncChildExit(status.Code)
				s.send(Event{
					Type:       EventTypeExited,
					Generation: generation,
					Pid:        child.Pid(),
					ExitStatus: status.String(),
					ExitCode:   status.Code,
				})
				running = false
			} else if restart {
				// The kill was issued; respawn without waiting for the
				// old generation to be reaped.
				running = false
			}
		}

		if keepGoing {
			metrics.IncChildRestart()
			s.send(Event{Type: EventTypeRestarting, Generation: generation})
		}
	}

	s.send(Event{Type: EventTypeQuitting, Generation: generation, Reason: quitReason})
	return nil
}

// drainWatchErrors surfaces transient watcher errors without blocking. They
// are diagnostics only; the poll cycle carries on.
func (s *Supervisor) drainWatchErrors(generation int) {
	for {
		select {
		case err, ok := <-s.source.Errors():
			if !ok {
				return
			}
			metrics.IncWatchError()
			s.send(Event{Type: EventTypeError, Generation: generation, Reason: ReasonWatchError, Err: err})
		default:
			return
		}
	}
}

func (s *Supervisor) send(event Event) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now()
	s.events <- event
}
