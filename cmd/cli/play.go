package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/envstruct"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/spf13/cobra"
)

var playFlags struct {
	suspects   int
	difficulty string
	verbose    bool
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a mystery interactively in the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(playFlags.verbose)

		var aiCfg ai.Config
		if err := envstruct.Populate(&aiCfg, os.LookupEnv); err != nil {
			return errors.Wrap(err, "parse ai configuration")
		}
		client := ai.NewClient(aiCfg, logger)

		database, err := db.NewDB(":memory:")
		if err != nil {
			return errors.Wrap(err, "open database")
		}
		defer func() { _ = database.Close() }()

		store := memory.NewStore(database, client, logger)
		registry := game.NewRegistry(client, store, logger)

		settings := config.DefaultSettings()
		settings.Suspects = playFlags.suspects
		settings.Difficulty = config.Difficulty(playFlags.difficulty)

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "Generating your mystery...")
		session, err := registry.Start(cmd.Context(), settings)
		if err != nil {
			return errors.Wrap(err, "start game")
		}
		defer func() { _ = registry.Close(cmd.Context(), session.ID()) }()

		printCaseFile(out, session)
		return gameLoop(cmd, session)
	},
}

func init() {
	defaults := config.DefaultSettings()
	playCmd.Flags().IntVar(&playFlags.suspects, "suspects", defaults.Suspects, "number of suspects (3-6)")
	playCmd.Flags().StringVar(&playFlags.difficulty, "difficulty", string(defaults.Difficulty), "easy, standard or hard")
	playCmd.Flags().BoolVar(&playFlags.verbose, "verbose", false, "debug logging to stderr")
}

func printCaseFile(out io.Writer, session *game.Session) {
	cf := session.State().CaseFile
	_, _ = fmt.Fprintf(out, "\n%s\n\nThe victim: %s. %s\n\nSuspects:\n", cf.Setting, cf.Victim.Name, cf.Victim.Background)
	for _, s := range cf.Suspects {
		_, _ = fmt.Fprintf(out, "  [%s] %s, %s. Claims: %s\n", s.ID, s.Name, s.Role, s.Alibi)
	}
	_, _ = fmt.Fprintln(out, "\nLocations:")
	for _, l := range cf.Locations {
		_, _ = fmt.Fprintf(out, "  [%s] %s\n", l.ID, l.Name)
	}
	_, _ = fmt.Fprintln(out, `
Commands:
  ask <suspect> <question...>   interrogate a suspect
  search <location>             search a location for clues
  recall <query...>             search your notebook
  accuse <suspect> [evidence]   make a formal accusation (3 wrong = lose)
  notebook                      clues and contradictions so far
  quit`)
}

func gameLoop(cmd *cobra.Command, session *game.Session) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		_, _ = fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "ask":
			if len(fields) < 3 {
				_, _ = fmt.Fprintln(out, "usage: ask <suspect> <question...>")
				continue
			}
			err = doAsk(cmd, session, fields[1], strings.Join(fields[2:], " "))
		case "search":
			if len(fields) != 2 {
				_, _ = fmt.Fprintln(out, "usage: search <location>")
				continue
			}
			err = doSearch(cmd, session, fields[1])
		case "recall":
			if len(fields) < 2 {
				_, _ = fmt.Fprintln(out, "usage: recall <query...>")
				continue
			}
			err = doRecall(cmd, session, strings.Join(fields[1:], " "))
		case "accuse":
			if len(fields) < 2 {
				_, _ = fmt.Fprintln(out, "usage: accuse <suspect> [evidence...]")
				continue
			}
			var over bool
			over, err = doAccuse(cmd, session, fields[1], strings.Join(fields[2:], " "))
			if over {
				return err
			}
		case "notebook":
			printNotebook(out, session)
		default:
			_, _ = fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
		if err != nil {
			_, _ = fmt.Fprintln(out, err.Error())
		}
	}
}

func doAsk(cmd *cobra.Command, session *game.Session, suspectID, question string) error {
	outcome, err := session.Interrogate(cmd.Context(), suspectID, question)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "\n%s\n", outcome.Reply)
	if outcome.Contradiction != nil {
		_, _ = fmt.Fprintf(out, "\n!! Contradiction caught: %s\n   Earlier: %s\n",
			outcome.Contradiction.Explanation, outcome.Contradiction.Prior)
	}
	if outcome.RevealedFact != "" {
		_, _ = fmt.Fprintf(out, "\n** %s\n", outcome.RevealedFact)
	}
	return nil
}

func doSearch(cmd *cobra.Command, session *game.Session, locationID string) error {
	outcome, err := session.SearchLocation(cmd.Context(), locationID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !outcome.Found {
		_, _ = fmt.Fprintln(out, "You find nothing new.")
		return nil
	}
	_, _ = fmt.Fprintf(out, "You find: %s\n", outcome.Clue.Content)
	return nil
}

func doRecall(cmd *cobra.Command, session *game.Session, query string) error {
	results, err := session.SearchMemory(cmd.Context(), "", query, 5)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, "Your notebook has nothing on that.")
		return nil
	}
	for _, r := range results {
		_, _ = fmt.Fprintf(out, "  - %s\n", r.Text)
	}
	return nil
}

func doAccuse(cmd *cobra.Command, session *game.Session, suspectID, evidence string) (bool, error) {
	outcome, err := session.Accuse(cmd.Context(), suspectID, evidence)
	if err != nil {
		return false, err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "\n%s\n", outcome.Explanation)

	switch outcome.Status {
	case game.StatusWon:
		_, _ = fmt.Fprintf(out, "\nCase closed: %s (%s)\n", outcome.Solution.CulpritName, outcome.Score.Tier)
		printSolution(out, outcome)
		return true, nil
	case game.StatusLost:
		_, _ = fmt.Fprintln(out, "\nThree wrong accusations. The trail has gone cold.")
		printSolution(out, outcome)
		return true, nil
	default:
		_, _ = fmt.Fprintf(out, "Wrong. %d accusation(s) remaining.\n", 3-outcome.WrongAccusations)
		return false, nil
	}
}

func printSolution(out io.Writer, outcome game.AccusationOutcome) {
	if outcome.Solution == nil {
		return
	}
	_, _ = fmt.Fprintf(out, "\nThe culprit was %s. Motive: %s\n", outcome.Solution.CulpritName, outcome.Solution.Motive)
	for _, secret := range outcome.Solution.Secrets {
		_, _ = fmt.Fprintf(out, "  %s was hiding: %s\n", secret.Name, secret.Secret)
	}
}

func printNotebook(out io.Writer, session *game.Session) {
	snapshot := session.State()
	_, _ = fmt.Fprintln(out, "Clues:")
	if len(snapshot.RevealedClues) == 0 {
		_, _ = fmt.Fprintln(out, "  (none yet)")
	}
	for _, c := range snapshot.RevealedClues {
		_, _ = fmt.Fprintf(out, "  - %s\n", c.Content)
	}
	_, _ = fmt.Fprintln(out, "Contradictions caught:")
	if len(snapshot.Contradictions) == 0 {
		_, _ = fmt.Fprintln(out, "  (none yet)")
	}
	for _, c := range snapshot.Contradictions {
		_, _ = fmt.Fprintf(out, "  - %s (turn %d): %s\n", c.SuspectName, c.Turn, c.Explanation)
	}
}
