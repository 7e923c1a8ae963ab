package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ndx/internal/models"
	"github.com/desertthunder/ndx/internal/query"
	"github.com/desertthunder/ndx/internal/repositories"
	"github.com/desertthunder/ndx/internal/services"
	"github.com/desertthunder/ndx/internal/shared"
	"github.com/desertthunder/ndx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *services.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader

	mu sync.Mutex // guards output while a gate and the progress printer share it
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *services.Client
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Client == nil {
		opts.Client = services.NewClient(opts.Config.Client.ServerURL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while a full-screen program runs.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, matchCommand, tuiCommand, generateCommand, serveCommand, historyCommand, choicesCommand, pingCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newHTTPClient bounds how long the server may take to start answering. The body itself is not
// timed: a search stream stays open while the user answers prompts.
func newHTTPClient(timeoutSeconds int) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = time.Duration(timeoutSeconds) * time.Second
	return &http.Client{Transport: transport}
}

func (r *Runner) openDB() (*sql.DB, error) {
	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	return db, nil
}

// loadQueries gathers queries from --from-dir, --file and the positional arguments, in that order.
// "-" as the file or the only argument reads standard input.
func (r *Runner) loadQueries(cmd *cli.Command) ([]string, error) {
	var queries []string

	if dir := cmd.String("from-dir"); dir != "" {
		found, err := query.FromAudioFiles(dir)
		if err != nil {
			return nil, err
		}
		queries = append(queries, found...)
	}

	if path := cmd.String("file"); path != "" {
		var (
			found []string
			err   error
		)
		if path == "-" {
			found, err = query.FromReader(r.input)
		} else {
			found, err = query.FromFile(path)
		}
		if err != nil {
			return nil, err
		}
		queries = append(queries, found...)
	}

	if args := cmd.Args().Slice(); len(args) > 0 {
		var (
			found []string
			err   error
		)
		if len(args) == 1 && args[0] == "-" {
			found, err = query.FromReader(r.input)
		} else {
			found, err = query.FromArgs(args)
		}
		if err != nil {
			return nil, err
		}
		queries = append(queries, found...)
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: pass queries as arguments, --file or --from-dir", shared.ErrEmptyInput)
	}
	return queries, nil
}

// matchSetup is what the match and tui commands share: the reconciler and, when a database is
// open, history and remembered choices.
type matchSetup struct {
	reconciler *tasks.Reconciler
	recorder   tasks.RunRecorder
	runs       *repositories.RunRepository
	autoSelect *tasks.Switch
}

func (r *Runner) newMatchSetup(cmd *cli.Command, db *sql.DB, gate tasks.Gate) (*matchSetup, error) {
	policyName := r.config.Match.Policy
	if cmd.IsSet("policy") {
		policyName = cmd.String("policy")
	}
	policy, err := tasks.PolicyByName(policyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	setup := &matchSetup{autoSelect: tasks.NewSwitch(r.config.Match.AutoSelect || cmd.Bool("auto-select"))}

	if db != nil {
		if r.remember(cmd) {
			store := repositories.NewChoiceStoreAdapter(repositories.NewChoiceRepository(db))
			gate = tasks.NewRememberingGate(store, gate, r.logger)
		}
		if !cmd.Bool("no-history") {
			setup.runs = repositories.NewRunRepository(db)
			setup.recorder = repositories.NewRunRecorderAdapter(setup.runs, r.client.BaseURL())
		}
	}

	setup.reconciler = tasks.NewReconciler(tasks.ReconcilerOpts{
		Policy:     policy,
		AutoSelect: setup.autoSelect,
		Gate:       gate,
		Logger:     r.logger,
	})
	return setup, nil
}

func (r *Runner) remember(cmd *cli.Command) bool {
	return r.config.Match.RememberChoices || cmd.Bool("remember")
}

// needsDB reports whether a match-like command has anything to store.
func (r *Runner) needsDB(cmd *cli.Command) bool {
	return r.remember(cmd) || !cmd.Bool("no-history")
}

// findRun resolves a run reference: empty or "latest", a sequence number, or a run id.
func findRun(runs *repositories.RunRepository, ref string) (*models.RunRecord, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "latest" {
		return runs.Latest()
	}
	if seq, err := strconv.Atoi(ref); err == nil {
		return runs.GetBySequence(seq)
	}
	return runs.Get(ref)
}

// syncWriter shares the runner's output with writers running on other goroutines.
type syncWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (s syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
