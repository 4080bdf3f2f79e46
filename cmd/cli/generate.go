package main

import (
	"encoding/json"
	"os"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/envstruct"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/mystery"
	"github.com/spf13/cobra"
)

var generateFlags struct {
	era        string
	tone       string
	difficulty string
	suspects   int
	reveal     bool
	verbose    bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and validate a mystery, printing the public case file as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(generateFlags.verbose)

		var aiCfg ai.Config
		if err := envstruct.Populate(&aiCfg, os.LookupEnv); err != nil {
			return errors.Wrap(err, "parse ai configuration")
		}
		client := ai.NewClient(aiCfg, logger)

		settings := config.Settings{
			Era:        generateFlags.era,
			Tone:       generateFlags.tone,
			Difficulty: config.Difficulty(generateFlags.difficulty),
			Suspects:   generateFlags.suspects,
		}

		oracle, err := mystery.Generate(cmd.Context(), client, settings, logger)
		if err != nil {
			return errors.Wrap(err, "generate mystery")
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(oracle.CaseFile()); err != nil {
			return errors.Wrap(err, "encode case file")
		}
		if generateFlags.reveal {
			if err = encoder.Encode(oracle.Solution()); err != nil {
				return errors.Wrap(err, "encode solution")
			}
		}
		return nil
	},
}

func init() {
	defaults := config.DefaultSettings()
	generateCmd.Flags().StringVar(&generateFlags.era, "era", defaults.Era, "era and place of the mystery")
	generateCmd.Flags().StringVar(&generateFlags.tone, "tone", defaults.Tone, "narrative tone")
	generateCmd.Flags().StringVar(&generateFlags.difficulty, "difficulty", string(defaults.Difficulty), "easy, standard or hard")
	generateCmd.Flags().IntVar(&generateFlags.suspects, "suspects", defaults.Suspects, "number of suspects (3-6)")
	generateCmd.Flags().BoolVar(&generateFlags.reveal, "reveal", false, "also print the ground truth solution")
	generateCmd.Flags().BoolVar(&generateFlags.verbose, "verbose", false, "debug logging to stderr")
}
