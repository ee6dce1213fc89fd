package main

import (
	"fmt"
	"io"
	"os"

	"github.com/drakos74/ardu-ann/infra/config"
	"github.com/drakos74/ardu-ann/internal/dataset"
	"github.com/drakos74/ardu-ann/internal/report"
	"github.com/drakos74/ardu-ann/internal/storage/file"
	"github.com/drakos74/ardu-ann/internal/train"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	optionsPath string
	debug       bool
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.Flags().StringVar(&optionsPath, "options", "", "training options file (json or yaml)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "evaluate <network> [<trainingdir>] <validationdir>",
	Short: "Evaluate a network on normalised logs",
	Long: `Loads the network, optionally trains it on the logs under the training directory,
then classifies the logs under the validation directory and prints the confusion matrix.
The network is saved back to the same file.`,
	Args:         cobra.RangeArgs(2, 3),
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

		var trainingDir string
		validationDir := args[1]
		if len(args) == 3 {
			trainingDir, validationDir = args[1], args[2]
		}
		return evaluate(os.Stdout, args[0], trainingDir, validationDir, training)
	},
}

func evaluate(w io.Writer, networkPath, trainingDir, validationDir string, training config.Training) error {
	network, err := file.Load[float32](networkPath)
	if err != nil {
		return fmt.Errorf("could not load network: %w", err)
	}
	trainer := train.New(network, training.ToOptions())

	if trainingDir != "" {
		set, err := dataset.LoadDir(trainingDir)
		if err != nil {
			return fmt.Errorf("could not load training data: %w", err)
		}
		result, err := trainer.Fit(set, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Finished training after %d examples. Error rate is %f\n\n", result.Examples, result.LastError)
	}

	fmt.Fprintln(w, "Validating...")
	set, err := dataset.LoadDir(validationDir)
	if err != nil {
		return fmt.Errorf("could not load validation data: %w", err)
	}
	v, err := trainer.Validate(set)
	if err != nil {
		return err
	}
	confusion, err := report.Evaluate(v.Outputs, v.Targets)
	if err != nil {
		return fmt.Errorf("could not evaluate network: %w", err)
	}
	report.Print(w, confusion)
	fmt.Fprintf(w, "Loss: %f (std %f)\n", v.Loss, v.StDev)

	return file.Save(networkPath, network)
}
