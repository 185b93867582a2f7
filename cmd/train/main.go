// Command train fits the scaler and classifier on the diagnostic table and
// writes the artifacts the server loads.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/YuminosukeSato/bcpredict/config"
	"github.com/YuminosukeSato/bcpredict/pipeline"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "train: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	dataPath := fs.String("data", "", "dataset CSV (overrides data.path)")
	outDir := fs.String("out", "", "artifact directory (overrides model.dir)")
	seed := fs.Int64("seed", 0, "split and solver seed (overrides train.seed)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data.Path = *dataPath
		case "out":
			cfg.Model.Dir = *outDir
		case "seed":
			cfg.Train.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	closer, err := log.Setup(cfg.Log.LogOptions())
	if err != nil {
		return errors.Wrap(err, "setup logging")
	}
	defer closer.Close()
	logger := log.GetLoggerWithName("train")

	store := pipeline.NewArtifactStore(cfg.Model.Dir)
	res, err := pipeline.Run(cfg.Data.Path, store, cfg.Train.Options(), logger)
	if err != nil {
		logger.Error("Training failed", err, log.SourceKey, cfg.Data.Path)
		return err
	}

	fmt.Printf("Accuracy: %.4f\n", res.Metrics.Accuracy)
	fmt.Printf("ROC AUC:  %.4f\n", res.AUC)
	fmt.Printf("Log loss: %.4f\n\n", res.LogLoss)
	fmt.Println(res.Metrics.String())
	fmt.Printf("Artifacts written to %s\n", store.Dir)
	return nil
}
