// Package main provides the statecache operations CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/setup"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "statecache",
		Usage: "Operate the gateway entity cache",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Serve the cache until interrupted, writing a cold resume snapshot on shutdown",
				Action: func(ctx context.Context, _ *cli.Command) error {
					app, err := setup.InitializeApp(ctx)
					if err != nil {
						return err
					}
					defer app.CleanupApp()

					sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					app.Logger.Info("Cache serving", zap.Any("stats", app.Stats.Snapshot()))
					<-sigCtx.Done()

					app.Logger.Info("Shutting down, writing cold resume snapshot")

					// The signal context is already done; the snapshot gets its
					// own deadline so shutdown cannot hang on a dead backend.
					snapshotCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()

					if err := app.Cache.PrepareColdResume(snapshotCtx, nil); err != nil {
						app.Logger.Error("Failed to write cold resume snapshot", zap.Error(err))
					}

					return nil
				},
			},
			{
				Name:  "check",
				Usage: "Verify the backing store is reachable and the cache is consistent enough to serve",
				Action: func(ctx context.Context, _ *cli.Command) error {
					app, err := setup.InitializeApp(ctx)
					if err != nil {
						return err
					}
					defer app.CleanupApp()

					app.Logger.Info("Cache backend reachable")

					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "Print the current aggregate entity counts",
				Action: func(ctx context.Context, _ *cli.Command) error {
					app, err := setup.InitializeApp(ctx)
					if err != nil {
						return err
					}
					defer app.CleanupApp()

					snapshot := app.Stats.Snapshot()

					fmt.Printf("guilds:             %d\n", snapshot.Guilds)
					fmt.Printf("unavailable guilds: %d\n", snapshot.UnavailableGuilds)
					fmt.Printf("channels:           %d\n", snapshot.Channels)
					fmt.Printf("members:            %d\n", snapshot.Members)
					fmt.Printf("roles:              %d\n", snapshot.Roles)
					fmt.Printf("users:              %d\n", snapshot.Users)

					return nil
				},
			},
			{
				Name:  "snapshot",
				Usage: "Write a cold resume snapshot of the cached guild data",
				Action: func(ctx context.Context, _ *cli.Command) error {
					app, err := setup.InitializeApp(ctx)
					if err != nil {
						return err
					}
					defer app.CleanupApp()

					if err := app.Cache.PrepareColdResume(ctx, nil); err != nil {
						return err
					}

					app.Logger.Info("Cold resume snapshot written",
						zap.Int("ttlSeconds", app.Config.Cache.ColdResumeTTL))

					return nil
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}
