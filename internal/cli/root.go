// Package cli wires the rstrtr command tree: run supervises a command,
// restart and quit signal a running supervisor through its control file.
package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/rstrtr/internal/config"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{}

	root := &cobra.Command{
		Use:   "rstrtr",
		Short: "Run a command and restart or stop it via a control file",
		Long: "rstrtr supervises a single command and keeps it running. Other rstrtr\n" +
			"invocations signal the supervisor by writing to (restart) or deleting\n" +
			"(quit) a shared control file.",
	}

	root.PersistentFlags().StringVarP(&ctx.control, "control", "c", config.DefaultControlPath, "Control file path")
	root.PersistentFlags().BoolVarP(&ctx.tmpDir, "tmp-dir", "t", false, "Derive the control file path under the OS temp dir, keyed by the working directory")
	root.PersistentFlags().StringVar(&ctx.configFile, "config", "", "Optional yaml configuration file")

	ctx.root = root
	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newRestartCmd(ctx))
	root.AddCommand(newQuitCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// context carries the raw persistent flag values shared by every verb.
type context struct {
	root *cobra.Command

	control    string
	tmpDir     bool
	configFile string
	logFormat  string
}

// settings resolves the effective configuration for one command invocation,
// honouring flag > environment > config file > default precedence.
func (c *context) settings() (config.Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.Settings{}, fmt.Errorf("determine working directory: %w", err)
	}

	flags := config.Flags{
		Control:    c.control,
		ControlSet: c.root.PersistentFlags().Changed("control"),
		TmpDir:     c.tmpDir,
		TmpDirSet:  c.root.PersistentFlags().Changed("tmp-dir"),
		LogFormat:  c.logFormat,
		ConfigFile: c.configFile,
	}
	return config.Resolve(flags, cwd)
}
