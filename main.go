package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"

	"github.com/ansel1/testdash/config"
	"github.com/ansel1/testdash/dashboard"
	"github.com/ansel1/testdash/engine"
	"github.com/ansel1/testdash/output"
	"github.com/ansel1/testdash/results"
	"github.com/ansel1/testdash/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

// exitError carries a process exit code out of RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

type options struct {
	file       string
	follow     bool
	replay     bool
	rate       float64
	notty      bool
	outfile    string
	jsonfile   string
	configPath string
	debug      bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdin, stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "testdash [flags] [-- runner command]",
		Short: "Live dashboard for test runs",
		Long: `testdash shows a live dashboard of a test run: passing and failing tests,
errors, console output, run status and elapsed time.

Events are read as JSON lines from stdin, from a file, or from the output
of a runner command given after "--". Both reporter lifecycle events and
"go test -json" output are understood.

Examples:
  go test -json ./... | testdash
  testdash -- go test -json ./...
  testdash -f events.jsonl --follow
  testdash -f run.json --replay --rate 0.5`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args, stdin, stdout)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "read events from a file instead of stdin")
	flags.BoolVar(&opts.follow, "follow", false, "keep reading --file as it grows")
	flags.BoolVar(&opts.replay, "replay", false, "replay --file with the timing of the original run")
	flags.Float64Var(&opts.rate, "rate", 1.0, "replay rate multiplier (0=instant, 1=original speed, 0.5=2x speed)")
	flags.BoolVar(&opts.notty, "notty", false, "plain output even on a terminal")
	flags.StringVar(&opts.outfile, "outfile", "", "save all input lines to a file")
	flags.StringVar(&opts.jsonfile, "jsonfile", "", "save event lines to a file")
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "config file")
	flags.BoolVar(&opts.debug, "debug", false, "write a debug log")

	return cmd
}

func validate(opts options, runner []string) error {
	switch {
	case opts.replay && opts.file == "":
		return usageError("--replay requires --file")
	case opts.follow && opts.file == "":
		return usageError("--follow requires --file")
	case opts.follow && opts.replay:
		return usageError("--follow and --replay cannot be combined")
	case opts.rate < 0:
		return usageError("--rate must be >= 0")
	case len(runner) > 0 && opts.file != "":
		return usageError("a runner command cannot be combined with --file")
	}
	return nil
}

func run(cmd *cobra.Command, opts options, runner []string, stdin io.Reader, stdout io.Writer) error {
	if err := validate(opts, runner); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	logger := log.New(io.Discard, "", 0)
	if opts.debug || cfg.Debug || os.Getenv("TESTDASH_DEBUG") != "" {
		f, err := tea.LogToFile(cfg.LogFile, "testdash")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
		logger = log.Default()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	var engineOpts []engine.Option
	if opts.outfile != "" {
		f, err := os.Create(opts.outfile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithRawOutput(f))
	}
	if opts.jsonfile != "" {
		f, err := os.Create(opts.jsonfile)
		if err != nil {
			return fmt.Errorf("create JSON file: %w", err)
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithJSONOutput(f))
	}
	eng := engine.NewEngine(engineOpts...)

	useTUI := !opts.notty && isTerminal(stdout) && (opts.file == "" || opts.replay || opts.follow)

	src := &source{logger: logger}
	if len(runner) > 0 {
		src.forwardKeys = useTUI && cfg.ForwardKeys
		if !useTUI {
			src.stdin = stdin
		}
	}
	events, err := src.open(ctx, eng, opts, runner, stdin)
	if err != nil {
		return err
	}
	defer src.close()

	state := results.NewState()
	var failed bool
	if useTUI {
		failed, err = runTUI(ctx, cfg, state, events, src, logger, stdout)
	} else {
		failed, err = runPlain(state, events, logger, stdout)
	}
	if err != nil {
		return err
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// hasFailures reads the failure flag under the dashboard's lock; the
// collector may still be writing when the user quits.
func hasFailures(d *dashboard.Dashboard) bool {
	var failed bool
	d.View(func(s *results.State) {
		failed = s.HasFailures()
	})
	return failed
}

// runPlain drives the plain surface until the input ends.
func runPlain(state *results.State, events <-chan engine.Event, logger *log.Logger, stdout io.Writer) (bool, error) {
	plain := output.NewPlain(stdout, false)
	d := dashboard.New(state, plain, dashboard.WithLogger(logger))

	collector := results.NewCollector(d,
		results.WithRawSink(d.AppendRaw),
		results.WithCollectorLogger(logger),
	)
	collector.ProcessEvents(events)
	logger.Printf("input finished: %s", plain)
	return hasFailures(d), plain.Err()
}

// runTUI drives the bubbletea dashboard until the user quits.
func runTUI(ctx context.Context, cfg config.Config, state *results.State, events <-chan engine.Event, src *source, logger *log.Logger, stdout io.Writer) (bool, error) {
	m := tui.NewModel(
		tui.WithTheme(themeOf(cfg)),
		tui.WithKeyFunc(src.sendKey),
	)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(stdout))

	// The dashboard renders on creation, and Send blocks until the program
	// runs, so it is created alongside the collector.
	ready := make(chan *dashboard.Dashboard, 1)
	go func() {
		d := dashboard.New(state, tui.NewSurface(p), dashboard.WithLogger(logger))
		ready <- d
		collector := results.NewCollector(d,
			results.WithRawSink(d.AppendRaw),
			results.WithCollectorLogger(logger),
		)
		collector.ProcessEvents(events)
		logger.Printf("input finished")
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return false, fmt.Errorf("run dashboard: %w", err)
	}

	var failed bool
	d := <-ready
	d.View(func(s *results.State) {
		failed = s.HasFailures()
		summary := output.Summary{
			Passed:  len(s.PassingTitles),
			Failed:  len(s.FailingTitles),
			Failing: s.FailingTitles,
		}
		for _, e := range s.Errors {
			summary.Errors = append(summary.Errors, e.Text())
		}
		fmt.Fprint(stdout, output.NewSummaryFormatter(80, true).Format(summary))
	})
	return failed, nil
}

func themeOf(cfg config.Config) tui.Theme {
	return tui.Theme{
		Border: lipgloss.Color(cfg.BorderColor),
		Pass:   lipgloss.Color(cfg.Colors.Pass),
		Fail:   lipgloss.Color(cfg.Colors.Fail),
		Error:  lipgloss.Color(cfg.Colors.Error),
		Warn:   lipgloss.Color(cfg.Colors.Warn),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// source opens the event stream and owns whatever it started: input
// files and the runner process.
type source struct {
	logger      *log.Logger
	forwardKeys bool
	stdin       io.Reader // Runner stdin when keys are not forwarded

	keys    io.WriteCloser
	closers []io.Closer
}

func (s *source) open(ctx context.Context, eng *engine.Engine, opts options, runner []string, stdin io.Reader) (<-chan engine.Event, error) {
	switch {
	case len(runner) > 0:
		return s.startRunner(ctx, eng, runner)

	case opts.follow:
		events, err := eng.Tail(ctx, opts.file)
		if err != nil {
			return nil, fmt.Errorf("follow input file: %w", err)
		}
		return events, nil

	case opts.file != "":
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		s.closers = append(s.closers, f)
		if !opts.replay {
			return eng.Stream(f), nil
		}
		r, err := engine.NewReplayReader(f, opts.rate)
		if err != nil {
			return nil, fmt.Errorf("create replay reader: %w", err)
		}
		return eng.Stream(r), nil

	default:
		return eng.Stream(stdin), nil
	}
}

// startRunner spawns the runner and streams its combined output.
func (s *source) startRunner(ctx context.Context, eng *engine.Engine, runner []string) (<-chan engine.Event, error) {
	c := exec.CommandContext(ctx, runner[0], runner[1:]...)
	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw

	if s.forwardKeys {
		w, err := c.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("runner stdin: %w", err)
		}
		s.keys = w
	} else {
		c.Stdin = s.stdin
	}

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start runner: %w", err)
	}
	s.logger.Printf("runner started: %v (pid %d)", runner, c.Process.Pid)

	go func() {
		err := c.Wait()
		s.logger.Printf("runner exited: %v", err)
		pw.Close()
	}()
	return eng.Stream(pr), nil
}

// sendKey forwards a watch-mode key to the runner.
func (s *source) sendKey(key string) {
	if s.keys == nil {
		return
	}
	in := key
	if key == "enter" {
		in = "\n"
	}
	if _, err := io.WriteString(s.keys, in); err != nil {
		s.logger.Printf("forward key %q: %v", key, err)
	}
}

func (s *source) close() {
	if s.keys != nil {
		s.keys.Close()
	}
	for _, c := range s.closers {
		c.Close()
	}
}
