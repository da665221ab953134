package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/rstrtr/internal/cliutil"
	"github.com/Paintersrp/rstrtr/internal/config"
	"github.com/Paintersrp/rstrtr/internal/control"
	"github.com/Paintersrp/rstrtr/internal/supervisor"
	"github.com/Paintersrp/rstrtr/internal/watch"
)

func newRunCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -- <command...>",
		Short: "Run the command and restart it on control file writes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			return runSupervised(cmd, settings, args)
		},
	}
	cmd.Flags().StringVar(&ctx.logFormat, "log-format", "", "Event output format: text, json, or auto (default text)")
	return cmd
}

func runSupervised(cmd *cobra.Command, settings config.Settings, command []string) error {
	if err := control.Init(settings.ControlPath); err != nil {
		return err
	}

	watcher, err := watch.Open(settings.ControlPath)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events := make(chan supervisor.Event, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderEvents(settings.LogFormat, cmd.OutOrStdout(), cmd.ErrOrStderr(), events)
	}()

	sup := supervisor.New(command, watcher, events)
	runErr := sup.Run(cmd.Context())

	close(events)
	wg.Wait()
	return runErr
}

// renderEvents drains the supervisor event stream until it closes. Text mode
// emits the classic status lines on stdout and diagnostics on stderr; json
// mode emits one structured record per event.
func renderEvents(format config.LogFormat, stdout, stderr io.Writer, events <-chan supervisor.Event) {
	if format == config.LogFormatAuto {
		format = config.LogFormatJSON
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = config.LogFormatText
		}
	}

	var enc *json.Encoder
	if format == config.LogFormatJSON {
		enc = json.NewEncoder(stdout)
	}

	for event := range events {
		if enc != nil {
			cliutil.EncodeLogEvent(enc, stderr, event)
			continue
		}
		switch event.Type {
		case supervisor.EventTypeExited:
			fmt.Fprintf(stdout, "Exit %s\n", event.ExitStatus)
		case supervisor.EventTypeRestarting:
			fmt.Fprintln(stdout, "Restarting...")
		case supervisor.EventTypeQuitting:
			fmt.Fprintln(stdout, "Quitting...")
		case supervisor.EventTypeError:
			fmt.Fprintf(stderr, "error: %v\n", event.Err)
		}
	}
}
