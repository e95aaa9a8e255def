package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mobserve/internal/adapters/logger"
	"github.com/emiliopalmerini/mobserve/internal/app"
	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/observer"
)

// maxLineSize bounds a single event line.
const maxLineSize = 4 * 1024 * 1024

type observeOptions struct {
	file                string
	format              string
	pretty              bool
	verbose             bool
	catalog             string
	model               string
	costThreshold       float64
	speedThreshold      time.Duration
	windowSize          int
	confidenceThreshold float64
}

func newObserveCmd() *cobra.Command {
	var opts observeOptions

	cmd := &cobra.Command{
		Use:     "observe",
		Aliases: []string{"hook"},
		Short:   "Observe a stream of lifecycle events",
		Long: `Reads lifecycle events, one JSON object per line, from stdin or --file and
writes the advisories they raise to stdout.

Events use the names session:start, tool:pre, tool:post, provider:post,
turn:advance and session:end. Claude Code hook names (SessionStart,
PreToolUse, PostToolUse, Stop, SessionEnd) are accepted too:

  {"hook_event_name":"tool:post","session_id":"s1","tool_name":"glob","tool_use_id":"t1"}

Output formats:
  json    one {"source","kind","level","message"} object per advisory (default)
  pretty  styled text for a terminal
  hook    one Claude Code hook response per event that raised advisories

State lives in this process for the whole stream. Run one long-lived observe per
agent session and pipe every event into it; a process per hook invocation starts
from zero each time and never reaches a digest or a summary.

Configuration is read from MOBSERVE_* environment variables; flags win.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObserve(cmd, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Read events from a file instead of stdin")
	f.StringVar(&opts.format, "format", formatJSON, "Output format: json, pretty or hook")
	f.BoolVar(&opts.pretty, "pretty", false, "Shorthand for --format pretty")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug messages to stderr")
	f.StringVar(&opts.catalog, "catalog", "", "TOML file extending the phase catalog and pricing")
	f.StringVar(&opts.model, "model", "", "Model used to price calls of unknown models")
	f.Float64Var(&opts.costThreshold, "cost-threshold", 0, "Warn each time cumulative cost crosses a multiple of this (USD)")
	f.DurationVar(&opts.speedThreshold, "speed-threshold", 0, "Warn about tool calls at least this slow")
	f.IntVar(&opts.windowSize, "window-size", 0, "Number of recent tools the phase is scored on")
	f.Float64Var(&opts.confidenceThreshold, "confidence-threshold", 0, "Minimal confidence for a phase change")
	return cmd
}

// applyFlags overrides environment values with the flags the user set.
func applyFlags(cmd *cobra.Command, opts *observeOptions, cfg *app.Config) {
	f := cmd.Flags()
	if f.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if f.Changed("catalog") {
		cfg.CatalogFile = opts.catalog
	}
	if f.Changed("model") {
		cfg.Model = opts.model
	}
	if f.Changed("cost-threshold") {
		cfg.CostThreshold = opts.costThreshold
	}
	if f.Changed("speed-threshold") {
		cfg.SpeedThreshold = opts.speedThreshold
	}
	if f.Changed("window-size") {
		cfg.WindowSize = opts.windowSize
	}
	if f.Changed("confidence-threshold") {
		cfg.ConfidenceThreshold = opts.confidenceThreshold
	}
}

func runObserve(cmd *cobra.Command, opts *observeOptions) error {
	cfg, err := app.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)

	format := opts.format
	if opts.pretty {
		format = formatPretty
	}
	out, err := newAdvisoryWriter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if opts.file != "" {
		file, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open event file: %w", err)
		}
		defer file.Close()
		in = file
	}

	log := logger.New(cmd.ErrOrStderr(), cfg.Verbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Hub.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error(fmt.Sprintf("closing exporters: %v", err))
		}
	}()

	return observe(ctx, in, out, a.Hub, log)
}

// observe dispatches every event of the stream and writes the advisories.
// Malformed lines are logged and skipped so a bad event never stops the host.
func observe(ctx context.Context, in io.Reader, out advisoryWriter, hub *observer.Hub, log domain.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	sessionID := uuid.NewString()
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		event, err := domain.ParseHookEvent(raw)
		if err != nil {
			log.Error(fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if event.Session() == "" {
			if event.EventName() == domain.EventSessionStart {
				sessionID = uuid.NewString()
			}
			if s, ok := event.(interface{ SetSessionID(string) }); ok {
				s.SetSessionID(sessionID)
			}
		}

		if err := out.write(hub.Dispatch(ctx, event)); err != nil {
			return fmt.Errorf("failed to write advisories: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	return nil
}
