package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"hirecal/internal/config"
	appLog "hirecal/internal/log"
	"hirecal/internal/refresh"
	"hirecal/internal/store"
	"hirecal/internal/web"
)

func main() {
	// .env is optional; real config lives in the YAML file.
	_ = godotenv.Load()

	appLog.SetLevel(appLog.ParseLevel(os.Getenv("LOG_LEVEL")))

	app := &cli.App{
		Name:  "hirecal",
		Usage: "Interview scheduling calendar service for the recruiting dashboard.",
		Commands: []*cli.Command{
			serveCommand(),
			importCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("hirecal failed", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the API server and the feed refresh loop.",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config)"},
			&cli.StringFlag{Name: "cache-dir", Value: "./var/feed-cache", Usage: "Feed cache directory"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if listen := c.String("listen"); listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("hirecal starting",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"week_start", cfg.WeekStart,
				"refresh", cfg.RefreshCron,
				"cancel_grace_ms", cfg.CancelGraceMS,
				"feed_count", len(cfg.Feeds),
			)

			ctx, cancel := signalContext()
			defer cancel()

			events := store.New(cfg.CancelGrace())
			defer events.Close()

			g, gctx := errgroup.WithContext(ctx)

			runner := refresh.New(cfg, events, c.String("cache-dir"))
			g.Go(func() error { return runner.Start(gctx) })

			srv := web.NewServer(cfg, events)
			g.Go(func() error { return srv.Run(gctx) })

			err = g.Wait()
			appLog.Info("hirecal exiting")
			return err
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Run a single feed import cycle and exit.",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "cache-dir", Value: "./var/feed-cache", Usage: "Feed cache directory"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			events := store.New(cfg.CancelGrace())
			defer events.Close()

			runner := refresh.New(cfg, events, c.String("cache-dir"))
			if err := runner.RunOnce(ctx); err != nil {
				return err
			}
			appLog.Info("import finished", "event_count", events.Len())
			return nil
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Value:   "./hirecal.yaml",
		Usage:   "Path to the YAML config file",
		EnvVars: []string{"HIRECAL_CONFIG"},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", path)
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
