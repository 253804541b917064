package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/board"
	"taskboard/client"
	"taskboard/domain"
)

const dateLayout = "2006-01-02"

type app struct {
	out    io.Writer
	getenv func(string) string

	configPath string
	apiURL     string
	token      string
	timeout    time.Duration
	verbose    bool

	logger *log.Logger
	api    *client.Client
}

func newRootCmd(out io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{out: out, getenv: getenv}
	root := &cobra.Command{
		Use:               "boardctl",
		Short:             "Inspect and edit project boards",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default $BOARDCTL_CONFIG or ~/.config/boardctl.yaml)")
	f.StringVar(&a.apiURL, "api-url", "", "gateway base URL")
	f.StringVar(&a.token, "token", "", "bearer token")
	f.DurationVar(&a.timeout, "timeout", 0, "request timeout")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log board activity to stderr")

	root.AddCommand(projectsCmd(a))
	root.AddCommand(projectCmd(a))
	root.AddCommand(boardCmd(a))
	root.AddCommand(taskCmd(a))
	root.AddCommand(columnsCmd(a))
	return root
}

// setup resolves configuration as file, then environment, then flags.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCLIConfig(a.configPath, a.getenv)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("token") {
		cfg.Token = a.token
	}
	if flags.Changed("timeout") && a.timeout > 0 {
		cfg.Timeout = a.timeout
	}

	a.logger = log.New()
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.logger.SetLevel(log.WarnLevel)
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	a.api = client.New(cfg.APIURL,
		client.WithToken(cfg.Token),
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithLogger(a.logger),
	)
	return nil
}

// loadBoard returns a store holding projectID.
func (a *app) loadBoard(ctx context.Context, projectID string) (*board.Store, error) {
	store := board.NewStore(a.api,
		board.WithLogger(a.logger),
		board.WithOnChange(func(s board.State) {
			a.logger.WithFields(log.Fields{
				"project_id": s.ProjectID,
				"columns":    len(s.Columns),
				"tasks":      len(s.Tasks),
				"loading":    s.Loading,
			}).Debug("board changed")
		}),
	)
	if err := store.LoadProject(ctx, projectID); err != nil {
		return nil, err
	}
	return store, nil
}

// resolveColumn matches arg against column ids first, then titles ignoring case.
func resolveColumn(store *board.Store, arg string) (domain.Column, error) {
	cols := store.Columns()
	for _, c := range cols {
		if c.ID == arg {
			return c, nil
		}
	}
	var found []domain.Column
	for _, c := range cols {
		if strings.EqualFold(c.Title, strings.TrimSpace(arg)) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return domain.Column{}, fmt.Errorf("no column %q on this board", arg)
	default:
		return domain.Column{}, fmt.Errorf("column title %q is ambiguous; use its id", arg)
	}
}

func resolveTask(store *board.Store, id string) (domain.Task, error) {
	t, ok := store.Task(id)
	if !ok {
		return domain.Task{}, fmt.Errorf("no task %q on this board", id)
	}
	return t, nil
}

// resolveTarget parses a drag target written as task:<id> or column:<id|title>.
func resolveTarget(store *board.Store, arg string) (board.Entity, error) {
	kind, ref, ok := strings.Cut(arg, ":")
	if !ok || ref == "" {
		return board.Entity{}, fmt.Errorf("target %q must be task:<id> or column:<id|title>", arg)
	}
	switch strings.ToLower(kind) {
	case "task":
		t, err := resolveTask(store, ref)
		if err != nil {
			return board.Entity{}, err
		}
		return board.TaskRef(t.ID), nil
	case "column":
		c, err := resolveColumn(store, ref)
		if err != nil {
			return board.Entity{}, err
		}
		return board.ColumnRef(c.ID), nil
	default:
		return board.Entity{}, fmt.Errorf("unknown target kind %q", kind)
	}
}

func parseDate(s string) (*time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return &d, nil
}
