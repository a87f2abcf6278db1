package main

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/briefer/internal/app"
	"github.com/mohammad-safakhou/briefer/internal/scheduler"
	srv "github.com/mohammad-safakhou/briefer/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				cfg := a.Config
				addr := cfg.Server.Address
				if serveAddr != "" {
					addr = serveAddr
				}
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				if cfg.Scheduler.Enabled && len(cfg.Scheduler.Jobs) > 0 {
					var locker scheduler.Locker
					if a.Cache != nil {
						locker = a.Cache
					}
					sched, err := scheduler.New(cfg.Scheduler, a, locker)
					if err != nil {
						return err
					}
					sched.Metrics = a.Metrics
					done := make(chan struct{})
					go func() {
						sched.Start(ctx)
						close(done)
					}()
					defer func() {
						cancel()
						<-done
					}()
				} else if cfg.Scheduler.Enabled {
					log.Printf("scheduler enabled without jobs")
				}

				return srv.Run(ctx, addr, srv.Deps{
					Briefings:      a,
					Chat:           a,
					Index:          a,
					Metrics:        a.Metrics,
					DefaultCountry: cfg.General.DefaultCountry,
					DefaultRange:   cfg.General.SynonymRange,
				})
			})
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.address)")

	return serve
}
