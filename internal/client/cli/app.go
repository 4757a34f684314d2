package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/securevault/securevault/internal/client/api"
	"github.com/securevault/securevault/internal/client/authflow"
	"github.com/securevault/securevault/internal/client/config"
	"github.com/securevault/securevault/internal/client/files"
	"github.com/securevault/securevault/internal/client/session"
	"github.com/securevault/securevault/internal/client/upload"
	"github.com/securevault/securevault/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// flowService is the authentication surface the CLI drives.
type flowService interface {
	State() authflow.State
	Email() string
	Notice() string
	TOTPSecret() string
	TOTPURI() string
	SignUp(ctx context.Context, name, email, password, confirm string) error
	ResendCode(ctx context.Context) error
	ConfirmEmail(ctx context.Context, code, password string) error
	VerifySetup(ctx context.Context, code string) error
	LogIn(ctx context.Context, email, password string) error
	SubmitChallenge(ctx context.Context, code string) error
	Cancel()
	Logout() error
}

// vaultService is the read/delete surface over stored files.
type vaultService interface {
	List(ctx context.Context) ([]api.FileEntry, error)
	Stats(ctx context.Context, scope string) (*api.StatsResponse, error)
	ViewURL(ctx context.Context, key string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type uploadService interface {
	UploadAll(ctx context.Context, paths []string) error
	Tasks() []upload.Task
}

type sessionInfo interface {
	Authenticated() bool
	User() *session.User
}

type pinger interface {
	Health(ctx context.Context) error
}

type App struct {
	config  *config.Config
	session sessionInfo
	flow    flowService
	vault   vaultService
	uploads uploadService
	pinger  pinger
	Mode    Mode
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logging.NewDefault(cfg.LogLevel)

	sess, err := session.NewStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	apiClient := api.New(cfg.APIBaseURL, sess, log, cfg.RequestTimeout)

	a := &App{
		config:  cfg,
		session: sess,
		flow:    authflow.NewFlow(apiClient, sess, log),
		vault:   files.New(apiClient, log),
		pinger:  apiClient,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	a.uploads = upload.New(apiClient, log, upload.Options{
		Concurrency: cfg.MaxConcurrentUploads,
		Observer:    a.printTask,
		OnUploaded:  a.refreshListing,
	})
	return a, nil
}

// refreshListing reprints the vault summary after each completed upload, so
// the user sees the new state without an explicit 'list'. A listing failure
// here is not worth interrupting the upload output for.
func (a *App) refreshListing() {
	items, err := a.vault.List(context.Background())
	if err != nil {
		return
	}
	var total int64
	for _, e := range items {
		total += e.Size
	}
	fmt.Fprintf(a.out, "Vault: %d files, %d bytes\n", len(items), total)
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to SecureVault CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

func (a *App) getStatus() string {
	s := ""
	if u := a.session.User(); u != nil {
		s = u.Email + " "
	} else if a.flow.Email() != "" {
		s = a.flow.Email() + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", strings.TrimSpace(s))
	}
	return s
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.pinger.Health(ctx); err != nil {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
}

// StartOnlineStatusWatcher probes the API health endpoint on the given
// interval and flips Mode accordingly. It returns when ctx is cancelled.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// printTask reports upload progress. Intermediate states stay quiet; the
// user sees each task start and finish.
func (a *App) printTask(t upload.Task) {
	switch t.Status {
	case upload.StatusHashing:
		fmt.Fprintf(a.out, "%s: uploading...\n", t.Name)
	case upload.StatusDone:
		fmt.Fprintf(a.out, "%s: done (%s)\n", t.Name, t.RemoteKey)
	case upload.StatusError:
		fmt.Fprintf(a.out, "%s: failed: %v\n", t.Name, t.Err)
	}
}
