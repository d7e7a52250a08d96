package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/ChrisT3B/beats-repeats-test/internal/auth"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/spotify"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	store      auth.VerifierStore
	httpClient *http.Client
	logger     *log.Logger
	trace      *trace.Log
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Store      auth.VerifierStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Trace      *trace.Log
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
	if opts.Store == nil {
		opts.Store = auth.NewFileStore(auth.DefaultStoreDir())
	}
	if opts.Trace == nil {
		opts.Trace = trace.New(opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		trace:      opts.Trace,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, sessionCommand, playbackCommand, probeCommand, diagnoseCommand, reportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger and re-targets trace mirroring.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.trace = trace.New(logger)
}

// broker builds the credential broker from the configured public client.
// The runner's HTTP client carries through to the token exchange.
func (r *Runner) broker() (*auth.Broker, error) {
	broker, err := auth.NewBroker(
		r.config.Credentials.Spotify.ClientID,
		r.config.RedirectURI(),
		r.store,
		r.trace,
	)
	if err != nil {
		return nil, err
	}
	broker.SetHTTPClient(r.httpClient)
	return broker, nil
}

// token resolves the access token for non-auth commands: the --token flag
// wins, then the environment. Tokens are never read from disk.
func (r *Runner) token(cmd *cli.Command) (string, error) {
	token := cmd.String("token")
	if token == "" {
		token = os.Getenv("BRT_TOKEN")
	}
	if token == "" {
		return "", fmt.Errorf("%w: provide an access token via --token or BRT_TOKEN (run 'auth login' to obtain one)", shared.ErrNotAuthenticated)
	}
	return token, nil
}

// client builds a REST client bound to a fixed token.
func (r *Runner) client(token string) *spotify.Client {
	return spotify.NewClient(func() string { return token }, r.httpClient)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
