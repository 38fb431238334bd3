package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/michael-freling/agent-hooks/internal/config"
	"github.com/michael-freling/agent-hooks/internal/generator"
	"github.com/michael-freling/agent-hooks/internal/hooks"
	"github.com/michael-freling/agent-hooks/internal/logging"
	"github.com/michael-freling/agent-hooks/internal/runner"
	"github.com/michael-freling/agent-hooks/internal/state"
)

const defaultSession = "default"

func main() {
	opts := &rootOptions{}
	err := newRootCommand(opts).Execute()
	opts.closeLog()
	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

// exitError ends the process with a specific code once the command has
// written its own output.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string {
	return e.message
}

// rootOptions holds persistent flags and the configuration they resolve to.
type rootOptions struct {
	configFile  string
	hookFiles   []string
	budgetLimit float64
	maxTurns    int
	stateDir    string
	logLevel    string
	logFormat   string
	session     string

	cfg     *config.Config
	logger  zerolog.Logger
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agent-hooks",
		Short: "Lifecycle hook engine for coding agents",
		Long: `A CLI tool that evaluates declarative hooks at points of an agent's lifecycle: before and after tool calls, at turn boundaries and when budget or turn limits are crossed.
Blocked and stopped decisions exit with code 2.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		// Not reached when a command fails; main closes the log file as well.
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			opts.closeLog()
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default searches $XDG_CONFIG_HOME/agent-hooks, ~/.config/agent-hooks and .)")
	flags.StringSliceVar(&opts.hookFiles, "hooks", nil, "hook definition files (yaml, json or toml)")
	flags.Float64Var(&opts.budgetLimit, "budget-limit", 0, "session budget in cost units (0 disables budget hooks)")
	flags.IntVar(&opts.maxTurns, "max-turns", 0, "session turn limit (0 disables)")
	flags.StringVar(&opts.stateDir, "state-dir", "", "directory for session state")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")
	flags.StringVar(&opts.session, "session", "", "session id")

	rootCmd.AddCommand(newDispatchCmd(opts))
	rootCmd.AddCommand(newToolUseCmd(opts, "pre-tool-use", hooks.EventPreToolUse))
	rootCmd.AddCommand(newToolUseCmd(opts, "post-tool-use", hooks.EventPostToolUse))
	rootCmd.AddCommand(newStreamCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newSessionCmd(opts))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newTemplatesCmd())

	return rootCmd
}

// load resolves configuration: defaults < config file < env < flags.
func (o *rootOptions) load(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if o.configFile != "" {
		loader.SetConfigFile(o.configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("hooks") {
		loader.Set("hooks.files", o.hookFiles)
	}
	if flags.Changed("budget-limit") {
		loader.Set("budget.limit", o.budgetLimit)
	}
	if flags.Changed("max-turns") {
		loader.Set("budget.max_turns", o.maxTurns)
	}
	if flags.Changed("state-dir") {
		loader.Set("state.dir", o.stateDir)
	}
	if flags.Changed("log-level") {
		loader.Set("logging.level", o.logLevel)
	}
	if flags.Changed("log-format") {
		loader.Set("logging.format", o.logFormat)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	o.cfg = cfg

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	}
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		o.logFile = file
		logCfg.Output = file
	}
	logging.Init(logCfg)
	o.logger = logging.Component("cli")
	return nil
}

// closeLog closes the log file opened by load, if any. Later log events are
// discarded.
func (o *rootOptions) closeLog() {
	if o.logFile == nil {
		return
	}
	logging.Init(logging.Config{Level: zerolog.Disabled.String(), Output: io.Discard})
	_ = o.logFile.Close()
	o.logFile = nil
}

func (o *rootOptions) newRunner() *runner.Runner {
	return runner.New(
		config.NewRegistryLoader(o.cfg.Hooks.Files...),
		state.NewFileStore(o.cfg.State.Dir),
		o.cfg.Limits(),
		runner.WithLogger(logging.Component("dispatcher")),
	)
}

func (o *rootOptions) sessionID(fallback string) string {
	if o.session != "" {
		return o.session
	}
	if fallback != "" {
		return fallback
	}
	return defaultSession
}

// report writes warnings and the blocking message to stderr and turns a
// blocked or stopped decision into exit code 2.
func report(w io.Writer, decision *hooks.Decision) error {
	for _, warning := range decision.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	if decision.Proceeds() {
		return nil
	}

	verb := "Blocked"
	if decision.Outcome == hooks.OutcomeStopped {
		verb = "Stopped"
	}
	message := fmt.Sprintf("%s by hook %s: %s", verb, decision.Hook, decision.Message)
	fmt.Fprintln(w, message)
	return &exitError{code: decision.ExitCode(), message: message}
}

func newDispatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Evaluate one lifecycle event",
		Long:  `Reads a lifecycle event as JSON from stdin, evaluates the hooks registered for it and writes the decision as JSON to stdout. Returns exit code 0 to proceed, exit code 2 when blocked or stopped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := hooks.ParseEvent(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to parse event: %w", err)
			}

			decision, err := opts.newRunner().Dispatch(cmd.Context(), opts.sessionID(""), *event)
			if err != nil {
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), decision); err != nil {
				return err
			}
			return report(cmd.ErrOrStderr(), decision)
		},
	}
}

func newToolUseCmd(opts *rootOptions, use string, kind hooks.EventKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Evaluate %s hooks for a Claude Code tool call", kind),
		Long:  `Reads Claude Code hook input from stdin as JSON and evaluates the configured hooks. Returns exit code 0 to allow, exit code 2 to block.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			toolInput, err := hooks.ParseToolInput(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to parse tool input: %w", err)
			}

			decision, err := opts.newRunner().Dispatch(cmd.Context(), opts.sessionID(toolInput.SessionID), toolInput.Event(kind))
			if err != nil {
				return err
			}
			return report(cmd.ErrOrStderr(), decision)
		},
	}
}

func newStreamCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stream",
		Short: "Evaluate a stream of lifecycle events",
		Long:  `Reads lifecycle events as JSON lines from stdin and writes one decision per line to stdout, keeping the session in memory. Hook files are reloaded on change when hooks.watch is enabled.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sessionID := opts.session
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			opts.logger.Info().Str("session", sessionID).Msg("stream started")

			r := opts.newRunner()
			if opts.cfg.Hooks.Watch {
				watcher, err := config.NewWatcher(
					config.NewRegistryLoader(opts.cfg.Hooks.Files...),
					r.SetRegistry,
					config.WithWatcherLogger(logging.Component("watcher")),
				)
				if err != nil {
					return err
				}
				defer watcher.Close()
				if err := watcher.Start(ctx); err != nil {
					return err
				}
			}

			err := r.Stream(ctx, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil && ctx.Err() != nil {
				opts.logger.Info().Str("session", sessionID).Msg("stream interrupted")
				return nil
			}
			return err
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate hook definition files",
		Long:  `Parses and compiles hook definition files, reporting the first invalid definition of each. Validates the configured hook files when none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				files = opts.cfg.Hooks.Files
			}

			var failed int
			for _, file := range files {
				registry, err := config.NewRegistryLoader(file).LoadRegistry()
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", file, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d hooks)\n", file, registry.Len())
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d hook files are invalid", failed, len(files))
			}
			return nil
		},
	}
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persisted session state",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Print a new session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), uuid.NewString())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a session's budget counters and stopped state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.newRunner().Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <id>",
		Short: "Discard a session's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newRunner().Reset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' reset\n", args[0])
			return nil
		},
	})

	return cmd
}

func newInitCmd() *cobra.Command {
	var (
		output   string
		force    bool
		warnAt   float64
		maxTurns int
	)

	cmd := &cobra.Command{
		Use:   "init [templates...]",
		Short: "Write a starter hook file",
		Long:  `Writes the hooks of the named starter templates to a hook file, encoded by its extension. All templates are used when none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := generator.NewGenerator()
			if err != nil {
				return fmt.Errorf("failed to create generator: %w", err)
			}

			names := args
			if len(names) == 0 {
				names = gen.List()
			}

			data := generator.DefaultTemplateData()
			data.WarnAt = warnAt
			data.MaxTurns = maxTurns

			n, err := gen.InitHooksFile(output, names, data, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d hooks to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", filepath.Join(".claude", "hooks.yaml"), "hook file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().Float64Var(&warnAt, "warn-at", generator.DefaultTemplateData().WarnAt, "budget fraction of the warning hook")
	cmd.Flags().IntVar(&maxTurns, "turn-limit", 0, "add a turn limit hook")

	return cmd
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List starter hook templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := generator.NewGenerator()
			if err != nil {
				return fmt.Errorf("failed to create generator: %w", err)
			}

			for _, name := range gen.List() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
