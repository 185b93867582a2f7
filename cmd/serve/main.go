// Command serve runs the prediction web application on top of the
// artifacts written by train.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/bcpredict/config"
	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/inference"
	"github.com/YuminosukeSato/bcpredict/pipeline"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
	"github.com/YuminosukeSato/bcpredict/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		if errors.Is(err, errors.ErrModelLoad) {
			fmt.Fprintln(os.Stderr, "serve: run train first to produce the model artifacts")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	closer, err := log.Setup(cfg.Log.LogOptions())
	if err != nil {
		return errors.Wrap(err, "setup logging")
	}
	defer closer.Close()
	logger := log.GetLoggerWithName("serve")

	svc, err := inference.NewService(pipeline.NewArtifactStore(cfg.Model.Dir), logger)
	if err != nil {
		logger.Error("Cannot load model artifacts", err, log.ArtifactKey, cfg.Model.Dir)
		return err
	}
	ds, err := dataset.Load(cfg.Data.Path)
	if err != nil {
		logger.Error("Cannot load dataset", err, log.SourceKey, cfg.Data.Path)
		return err
	}

	srv, err := server.New(ds, svc, server.Options{
		Addr:            cfg.Server.Addr,
		RequestTimeout:  cfg.Server.RequestTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ChartCacheSize:  cfg.Server.ChartCacheSize,
		Watch:           cfg.Model.Watch,
	}, logger)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
