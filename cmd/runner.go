package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/Jakson-Almeida/shortsgrab/internal/platform"
	"github.com/Jakson-Almeida/shortsgrab/internal/repositories"
	"github.com/Jakson-Almeida/shortsgrab/internal/search"
	"github.com/Jakson-Almeida/shortsgrab/internal/services"
	"github.com/Jakson-Almeida/shortsgrab/internal/session"
	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
	"github.com/Jakson-Almeida/shortsgrab/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    search.Service
	backend    *services.BackendService
	session    *session.Manager
	engine     tasks.Engine
	store      *platform.FileStore
	history    *repositories.HistoryRepository
	searches   *repositories.SearchRepository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    search.Service
	Backend    *services.BackendService
	Session    *session.Manager
	Engine     tasks.Engine
	Store      *platform.FileStore
	History    *repositories.HistoryRepository
	Searches   *repositories.SearchRepository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		backend:    opts.Backend,
		session:    opts.Session,
		engine:     opts.Engine,
		store:      opts.Store,
		history:    opts.History,
		searches:   opts.Searches,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, searchCommand, formatsCommand, downloadCommand, batchCommand, historyCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, used when an interactive UI needs the
// terminal to itself.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) newSearcher() *search.Searcher {
	return search.NewSearcher(r.catalog, r.searches, r.logger)
}

func (r *Runner) requireSession() error {
	if r.session == nil || !r.session.IsAuthenticated() {
		return fmt.Errorf("%w: run 'shortsgrab auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
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
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
