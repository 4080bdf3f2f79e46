// Package config holds the tunable mystery-generation settings and the
// optional TOML preset file that names ready-made combinations.
package config

import (
	"log/slog"
	"os"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/pelletier/go-toml/v2"
)

type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyStandard Difficulty = "standard"
	DifficultyHard     Difficulty = "hard"
)

var ErrInvalidSettings = errors.NewSentinel("invalid mystery settings")

// Settings steer mystery generation. Difficulty controls encounter-graph
// density and how convincing the culprit's false alibi reads.
type Settings struct {
	Era        string     `toml:"era" json:"era"`
	Tone       string     `toml:"tone" json:"tone"`
	Difficulty Difficulty `toml:"difficulty" json:"difficulty"`
	Suspects   int        `toml:"suspects" json:"suspects"`
}

func DefaultSettings() Settings {
	return Settings{
		Era:        "a remote manor house in the 1920s",
		Tone:       "classic drawing-room whodunit",
		Difficulty: DifficultyStandard,
		Suspects:   4,
	}
}

func (s Settings) Validate() error {
	switch s.Difficulty {
	case DifficultyEasy, DifficultyStandard, DifficultyHard:
	default:
		return errors.Wrap(ErrInvalidSettings, "unknown difficulty",
			slog.String("difficulty", string(s.Difficulty)))
	}
	if s.Suspects < 3 || s.Suspects > 6 {
		return errors.Wrap(ErrInvalidSettings, "suspect count out of range",
			slog.Int("suspects", s.Suspects))
	}
	if s.Era == "" || s.Tone == "" {
		return errors.Wrap(ErrInvalidSettings, "era and tone must be set")
	}
	return nil
}

// Normalised returns a copy with zero-valued fields filled from the defaults,
// so that a partial request body still yields valid settings.
func (s Settings) Normalised() Settings {
	defaults := DefaultSettings()
	if s.Era == "" {
		s.Era = defaults.Era
	}
	if s.Tone == "" {
		s.Tone = defaults.Tone
	}
	if s.Difficulty == "" {
		s.Difficulty = defaults.Difficulty
	}
	if s.Suspects == 0 {
		s.Suspects = defaults.Suspects
	}
	return s
}

type presetFile struct {
	Presets map[string]Settings `toml:"presets"`
}

// LoadPresets reads named settings presets from a TOML file.
func LoadPresets(path string) (map[string]Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read preset file", slog.String("path", path))
	}
	var file presetFile
	if err = toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parse preset file", slog.String("path", path))
	}
	for name, preset := range file.Presets {
		preset = preset.Normalised()
		if err = preset.Validate(); err != nil {
			return nil, errors.Wrap(err, "validate preset", slog.String("preset", name))
		}
		file.Presets[name] = preset
	}
	return file.Presets, nil
}
