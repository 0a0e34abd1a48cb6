package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/job-tracker/internal/config"
	"github.com/MimeLyc/job-tracker/internal/httpapi"
	"github.com/MimeLyc/job-tracker/internal/snapshot"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronRunner interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func (a *app) serveCommand(ctx context.Context) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and scheduled exports when EXPORT_CRON is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				config.WithHTTPAddr(addr)(a.cfg)
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	format, err := a.cfg.Export.ExportFormat()
	if err != nil {
		return err
	}
	cronEngine := cron.New()
	exporter := snapshot.NewExporter(snapshot.Config{
		CronExpr: a.cfg.Export.CronExpr,
		Format:   format,
		Dir:      a.cfg.Export.Dir,
		Keep:     a.cfg.Export.Keep,
	}, store, cronEngine)

	srv := httpapi.NewServer(store, httpapi.WithUI(a.cfg.HTTP.UIStaticDir, a.cfg.HTTP.UIEnabled))
	return runWithComponents(ctx, a.cfg, exporter, cronEngine, srv)
}

// runWithComponents schedules background work, serves HTTP until ctx is
// done, then shuts both down.
func runWithComponents(ctx context.Context, cfg *config.Config, sched scheduler, cronEngine cronRunner, httpSrv httpServer) error {
	if err := sched.Schedule(ctx); err != nil {
		return err
	}
	cronEngine.Start()
	defer func() {
		// wait for running cron jobs, if the engine reports them
		if done := cronEngine.Stop().Done(); done != nil {
			<-done
		}
		log.Info("Scheduler stopped")
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down HTTP server")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
