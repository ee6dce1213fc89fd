package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/drakos74/ardu-ann/infra/config"
	"github.com/drakos74/ardu-ann/internal/dataset"
	"github.com/drakos74/ardu-ann/internal/metrics"
	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/report"
	"github.com/drakos74/ardu-ann/internal/storage"
	"github.com/drakos74/ardu-ann/internal/storage/file"
	"github.com/drakos74/ardu-ann/internal/train"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	optionsPath string
	epochs      int
	targetError float64
	metricsAddr string
	create      bool
	configPath  string
	debug       bool
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.Flags().StringVar(&optionsPath, "options", "", "training options file (json or yaml)")
	rootCmd.Flags().IntVar(&epochs, "epochs", 0, "maximum number of epochs, overrides the options file")
	rootCmd.Flags().Float64Var(&targetError, "target-error", 0, "stop once the average error falls below it, overrides the options file")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while training")
	rootCmd.Flags().BoolVar(&create, "create", false, "create a new network if the network file does not exist")
	rootCmd.Flags().StringVar(&configPath, "config", "", "network config file (json or yaml) for --create, defaults to 8/7/4 nodes")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "train <network> <data>",
	Short: "Train a network on normalised logs",
	Long: `Loads the network, trains it on a normalised log or on every normalised log under a directory,
and saves it back to the same file.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		training := config.DefaultTraining()
		if optionsPath != "" {
			var err error
			if training, err = config.LoadTraining(optionsPath); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("epochs") {
			training.Epochs = epochs
		}
		if cmd.Flags().Changed("target-error") {
			training.TargetError = targetError
		}

		var fallback *config.Network
		if create {
			cfg := config.DefaultNetwork()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadNetwork(configPath); err != nil {
					return err
				}
			}
			fallback = &cfg
		}

		return trainNetwork(args[0], args[1], training, fallback, metricsAddr)
	},
}

// loadNetwork reads the network file. If the file does not exist and a fallback config is given,
// a new network is created from it instead.
func loadNetwork(path string, fallback *config.Network) (*ml.Network[float32], error) {
	network, err := file.Load[float32](path)
	if err == nil {
		return network, nil
	}
	if fallback == nil || !errors.Is(err, storage.NotFoundErr) {
		return nil, fmt.Errorf("could not load network: %w", err)
	}
	network, err = ml.New(fallback.ToML())
	if err != nil {
		return nil, fmt.Errorf("could not create network: %w", err)
	}
	log.Info().
		Str("path", path).
		Int("inputs", network.NumInputNodes()).
		Int("hidden", network.NumHiddenNodes()).
		Int("outputs", network.NumOutputNodes()).
		Msg("created network")
	return network, nil
}

func trainNetwork(networkPath, dataPath string, training config.Training, fallback *config.Network, addr string) error {
	network, err := loadNetwork(networkPath, fallback)
	if err != nil {
		return err
	}

	set, err := dataset.Load(dataPath)
	if err != nil {
		return fmt.Errorf("could not load training data: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	trainSet, validationSet := set, dataset.NewSet()
	if training.Validation > 0 {
		trainSet, validationSet = set.Split(training.Validation, rng)
	}

	run := uuid.New().String()
	options := []train.Option{train.WithSource(rng), train.WithRun(run)}
	if addr != "" {
		m := metrics.New(run)
		registry := prometheus.NewRegistry()
		if err := m.Register(registry); err != nil {
			return err
		}
		srv := metrics.Serve(addr, registry)
		defer srv.Shutdown(context.Background())
		options = append(options, train.WithMetrics(m))
	}
	if training.Checkpoints != "" {
		store, err := file.NewStore(training.Checkpoints, storage.FormatOf(networkPath))
		if err != nil {
			return fmt.Errorf("could not create checkpoint store: %w", err)
		}
		options = append(options, train.WithCheckpoint(store))
	}
	trainer := train.New(network, training.ToOptions(), options...)

	log.Info().
		Str("run", trainer.Run()).
		Str("network", networkPath).
		Int("examples", trainSet.Len()).
		Int("validation", validationSet.Len()).
		Msg("training")

	result, err := trainer.Fit(trainSet, validationSet)
	if err != nil {
		return err
	}
	if len(result.EpochErrors) > 1 {
		fmt.Println(report.Plot(result.EpochErrors, "average error per epoch"))
	}
	fmt.Printf("Finished training after %d examples. Error rate is %f\n", result.Examples, result.LastError)
	fmt.Println(network.String())

	return file.Save(networkPath, network)
}
