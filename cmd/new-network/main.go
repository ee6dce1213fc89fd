package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/drakos74/ardu-ann/infra/config"
	"github.com/drakos74/ardu-ann/internal/ml"
	"github.com/drakos74/ardu-ann/internal/storage/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath       string
	hiddenActivation string
	outputActivation string
	errorFunction    string
	debug            bool
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.Flags().StringVar(&configPath, "config", "", "network config file (json or yaml), replaces the positional parameters")
	rootCmd.Flags().StringVar(&hiddenActivation, "hidden-activation", ml.Sigmoid.String(), "activation of the hidden layer")
	rootCmd.Flags().StringVar(&outputActivation, "output-activation", ml.Sigmoid.String(), "activation of the output layer")
	rootCmd.Flags().StringVar(&errorFunction, "error-function", ml.SumSquared.String(), "error function")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "new-network <file> <inputs> <hidden> <outputs> <learning-rate> <momentum> <initial-weight-max>",
	Short: "Create a network with random weights",
	Long: `Creates a network with random weights and saves it to the given file.
The format follows the extension: .h for the Arduino header, .json for json and the plain format otherwise.
An existing file is never overwritten.`,
	SilenceUsage: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(7)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		var cfg config.Network
		var err error
		if configPath != "" {
			cfg, err = config.LoadNetwork(configPath)
		} else {
			cfg, err = parseNetwork(args[1:])
		}
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if configPath == "" || flags.Changed("hidden-activation") {
			cfg.HiddenActivation = hiddenActivation
		}
		if configPath == "" || flags.Changed("output-activation") {
			cfg.OutputActivation = outputActivation
		}
		if configPath == "" || flags.Changed("error-function") {
			cfg.ErrorFunction = errorFunction
		}

		return newNetwork(args[0], cfg)
	},
}

// parseNetwork reads the topology and the hyper parameters in the order of the command line.
func parseNetwork(args []string) (config.Network, error) {
	cfg := config.DefaultNetwork()
	counts := []*int{&cfg.Inputs, &cfg.Hidden, &cfg.Outputs}
	for i, c := range counts {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return cfg, fmt.Errorf("invalid number of nodes '%s': %w", args[i], err)
		}
		*c = v
	}
	params := []*float64{&cfg.LearningRate, &cfg.Momentum, &cfg.InitialWeightMax}
	for i, p := range params {
		v, err := strconv.ParseFloat(args[len(counts)+i], 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid parameter '%s': %w", args[len(counts)+i], err)
		}
		*p = v
	}
	return cfg, nil
}

func newNetwork(path string, cfg config.Network) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("'%s' already exists", path)
	}

	network, err := ml.New(cfg.ToML())
	if err != nil {
		return fmt.Errorf("could not create network: %w", err)
	}
	if err := file.Save(path, network); err != nil {
		return err
	}

	log.Info().
		Str("path", path).
		Int("inputs", network.NumInputNodes()).
		Int("hidden", network.NumHiddenNodes()).
		Int("outputs", network.NumOutputNodes()).
		Str("hidden-activation", network.HiddenActivation().String()).
		Str("output-activation", network.OutputActivation().String()).
		Str("error-function", network.ErrorFunction().String()).
		Msg("created network")
	return nil
}
