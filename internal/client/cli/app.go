package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/client/client"
	"github.com/dmitrijs2005/scrumlink/internal/client/config"
	"github.com/dmitrijs2005/scrumlink/internal/client/models"
	"github.com/dmitrijs2005/scrumlink/internal/client/notify"
	"github.com/dmitrijs2005/scrumlink/internal/client/transport"
	"github.com/dmitrijs2005/scrumlink/internal/logging"
)

// sessionClient is the part of *client.Client the CLI drives. Tests provide
// a stub.
type sessionClient interface {
	Connect(ctx context.Context, hostBaseURL, username, password string, handler notify.Handler) (string, error)
	ConnectWithRefreshToken(ctx context.Context, hostBaseURL string, handler notify.Handler) (string, error)
	Disconnect() error
	IsConnected() bool
	HostURL() string
	RefreshToken() string
	RestoreRefreshToken(token string)
	SessionExpiry() (time.Time, bool)
	FetchProjects(ctx context.Context) ([]models.Project, error)
	FetchProjectSprints(ctx context.Context, p models.Project) ([]models.Sprint, error)
	FetchSprintByURI(ctx context.Context, uri string) (models.Sprint, bool, error)
	FetchSprintBacklogItemsByURI(ctx context.Context, uri string) ([]models.BacklogItem, error)
}

var _ sessionClient = (*client.Client)(nil)

type App struct {
	config   *config.Config
	client   sessionClient
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	userName string
	projects []models.Project
}

// NewApp builds the REST transport and session client described by c. A
// refresh token from the configuration is handed to the client so "resume"
// works without a password.
func NewApp(c *config.Config, logger logging.Logger) *App {
	t := transport.NewREST(
		transport.WithTimeout(c.RequestTimeout),
		transport.WithLogger(logger),
	)
	cl := client.New(t, client.WithLogger(logger))
	if c.RefreshToken != "" {
		cl.RestoreRefreshToken(c.RefreshToken)
	}

	return &App{
		config: c,
		client: cl,
		logger: logger.With("component", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run starts the REPL and returns when the user exits or stdin is closed.
// A configured refresh token is tried first so a saved session resumes
// without prompting.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to scrumlink (type 'help' for commands)")

	if a.client.RefreshToken() != "" {
		if err := a.Resume(ctx); err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	if a.client.IsConnected() {
		_ = a.client.Disconnect()
	}
}

// onNotification prints session notifications (reconnecting, reconnected, ...) to
// the user.
func (a *App) onNotification(_ context.Context, message string, level notify.Level) {
	fmt.Fprintf(a.out, "[%s] %s\n", level, message)
}

func (a *App) isConnected() bool {
	return a.client.IsConnected()
}

func (a *App) getStatus() string {
	if !a.client.IsConnected() {
		return "(offline)"
	}
	if a.userName != "" {
		return fmt.Sprintf("(%s@%s)", a.userName, a.client.HostURL())
	}
	return fmt.Sprintf("(%s)", a.client.HostURL())
}
