package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Tiliavir/medrem/internal/apiclient"
	"github.com/Tiliavir/medrem/internal/cache"
	"github.com/Tiliavir/medrem/internal/config"
	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/notify"
	"github.com/Tiliavir/medrem/internal/orchestrator"
	"github.com/Tiliavir/medrem/internal/session"
	"github.com/Tiliavir/medrem/internal/view"
)

// mustLoadConfig loads the layered configuration and applies --server.
func mustLoadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if serverURL != "" {
		cfg.Client.BaseURL = serverURL
	}
	return cfg
}

func mustNewClient(cfg config.Config) *apiclient.Client {
	client, err := apiclient.NewClient(cfg.Client.BaseURL, cfg.Client.Timeout())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return client
}

// app bundles what a client command needs.
type app struct {
	client *apiclient.Client
	screen *view.Screen
	orch   *orchestrator.Orchestrator
}

func newApp(cfg config.Config, surface session.Surface, confirm orchestrator.ConfirmFunc) *app {
	client := mustNewClient(cfg)
	screen := view.NewScreen()
	c := cache.New()
	return &app{
		client: client,
		screen: screen,
		orch: orchestrator.New(orchestrator.Options{
			Gateway:  client,
			Cache:    c,
			Session:  session.New(c, surface),
			Renderer: view.NewRenderer(screen),
			Notifier: notify.NewToast(os.Stderr, cfg.Client.NotifyDuration()),
			Confirm:  confirm,
		}),
	}
}

// promptConfirm returns a ConfirmFunc asking on out and reading answers
// from in.
func promptConfirm(in *bufio.Reader, out io.Writer) orchestrator.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// exitCode maps a flow error to the process exit status: 2 when the server
// could not be reached, 1 otherwise.
func exitCode(err error) int {
	var nerr *apiclient.NetworkError
	if errors.As(err, &nerr) {
		return 2
	}
	return 1
}

// exitOnError terminates the process if err is non-nil. Flow errors have
// already been shown as a notification; only transport details and
// unexpected errors are printed again.
func exitOnError(err error) {
	if err == nil {
		return
	}
	var (
		nerr *apiclient.NetworkError
		serr *apiclient.ServerError
		verr *model.ValidationError
	)
	switch {
	case errors.Is(err, orchestrator.ErrDeclined):
		fmt.Fprintln(os.Stderr, "Aborted.")
	case errors.As(err, &nerr):
		fmt.Fprintln(os.Stderr, err)
	case errors.As(err, &serr), errors.As(err, &verr), errors.Is(err, orchestrator.ErrNoSession):
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
