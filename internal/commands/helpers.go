// Package commands implements the readinessctl subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/readiness"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/utilities"
)

var (
	// ConfigPath overrides the config file lookup when set.
	ConfigPath string
	// Verbose sends structured logs to stdout next to command output.
	Verbose bool
)

// env is everything a command needs to talk to the store.
type env struct {
	cfg     *config.Config
	session *database.Session
	svc     *readiness.Service
	logger  *zap.SugaredLogger
}

func (e *env) Close() {
	_ = e.session.Close()
	_ = e.logger.Sync()
}

// openEnv loads config, connects and makes sure the schema exists.
func openEnv(ctx context.Context) (*env, error) {
	path := ConfigPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := zap.NewNop().Sugar()
	if Verbose {
		lg, err := utilities.Init(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		logger = lg.Sugar()
	}

	session, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	svc := readiness.NewService(session, logger)
	if err := svc.EnsureSchema(ctx); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &env{cfg: cfg, session: session, svc: svc, logger: logger}, nil
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	bold      = color.New(color.Bold)
)

func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		bold.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
