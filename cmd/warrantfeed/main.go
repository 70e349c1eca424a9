package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"warrantfeed/internal/application/usecase/poller"
	"warrantfeed/internal/infrastructure/catalog"
	"warrantfeed/internal/infrastructure/config"
	"warrantfeed/internal/infrastructure/container"
	"warrantfeed/internal/infrastructure/logger"
	"warrantfeed/internal/infrastructure/relay/composite"
	"warrantfeed/internal/interfaces/console"
	"warrantfeed/internal/interfaces/httpapi"
	"warrantfeed/internal/interfaces/ws"
)

const clientBuffer = 16

func main() {
	logger.Setup("info", "")

	defaultConfig := "configs/config.toml"
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		defaultConfig = v
	}
	configPath := flag.String("config", defaultConfig, "path to config.toml")
	importPath := flag.String("import", "", "copy Code/Name rows from a .xlsx or .csv file into the SQL catalog and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importPath != "" {
		err = runImport(ctx, cfg, *importPath)
	} else {
		err = run(ctx, cfg)
	}
	if err != nil {
		stop()
		log.Fatal().Err(err).Msg("warrantfeed exited")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	sinks := c.Sinks()
	if cfg.App.PrintQuotes {
		sinks = append(sinks, console.NewSink(os.Stdout, true))
	}

	hub := ws.NewHub(clientBuffer)
	svc := poller.NewService(poller.ServiceDeps{
		Catalog:     c.Catalog(),
		Fetcher:     c.Fetcher(),
		Broadcaster: hub,
		Sink:        composite.New(sinks...),
		Interval:    cfg.PollInterval(),
	})
	if err := svc.Load(ctx); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg.Addr(), hub, svc.Status)

	log.Info().
		Str("addr", cfg.Addr()).
		Str("catalog", cfg.Catalog.Source).
		Dur("interval", cfg.PollInterval()).
		Bool("redis", cfg.Redis.Enabled).
		Msg("warrantfeed started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		if err := svc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hub.CloseAll()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	log.Info().Msg("warrantfeed stopped")
	return err
}

func runImport(ctx context.Context, cfg *config.Config, path string) error {
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	sc := c.SQLCatalog()
	if sc == nil {
		return fmt.Errorf("import needs catalog.source %q or %q, got %q", config.CatalogSQLite, config.CatalogPostgres, cfg.Catalog.Source)
	}

	rows, err := catalog.NewFile(path, cfg.Catalog.Sheet, "", 0).Rows(ctx)
	if err != nil {
		return err
	}
	n, err := sc.Import(ctx, rows)
	if err != nil {
		return err
	}

	log.Info().Str("file", path).Int("rows", n).Msg("catalog imported")
	return nil
}
