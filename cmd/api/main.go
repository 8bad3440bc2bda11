package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/query"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/readiness"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/report"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/utilities"
)

func main() {
	// best-effort: without a .env the real environment and defaults apply
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-readiness-go", "driver", cfg.Database.Driver, "addr", cfg.HTTP.Addr)

	session, err := database.Open(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer session.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewPrometheus(reg)
	if err != nil {
		sugar.Fatalf("metrics: %v", err)
	}

	svc := readiness.NewService(session, sugar.Named("readiness"), readiness.WithMetrics(rec))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.EnsureSchema(ctx); err != nil {
		sugar.Fatalf("ensure schema: %v", err)
	}

	deps := router.Deps{
		Session:  session,
		Service:  svc,
		Engine:   query.NewEngine(session),
		Gatherer: reg,
	}
	if cfg.Report.Enabled() {
		pub, err := report.NewS3Publisher(ctx, cfg.Report)
		if err != nil {
			sugar.Fatalf("report publisher: %v", err)
		}
		deps.Publisher = pub
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router.RegisterRoutes(sugar, deps),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	sugar.Info("service is running; press Ctrl+C to stop, SIGHUP to reconnect")
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-hup:
			reconnect(ctx, sugar, session, svc)
		}
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

// reconnect reloads the configuration and swaps the store connection. The
// current connection stays in use when anything fails.
func reconnect(ctx context.Context, sugar *zap.SugaredLogger, session *database.Session, svc *readiness.Service) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		sugar.Warnw("reload config failed", "err", err)
		return
	}
	if err := session.Reconnect(cfg.Database); err != nil {
		sugar.Warnw("reconnect failed", "driver", cfg.Database.Driver, "err", err)
		return
	}
	if err := svc.EnsureSchema(ctx); err != nil {
		sugar.Warnw("ensure schema after reconnect failed", "err", err)
		return
	}
	sugar.Infow("store reconnected", "driver", cfg.Database.Driver)
}
