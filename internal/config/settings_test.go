package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/myrjola/whodunit/internal/config"
	"github.com/stretchr/testify/require"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings config.Settings
		wantErr  bool
	}{
		{
			name:     "defaults are valid",
			settings: config.DefaultSettings(),
			wantErr:  false,
		},
		{
			name: "unknown difficulty",
			settings: config.Settings{
				Era: "e", Tone: "t", Difficulty: "nightmare", Suspects: 4,
			},
			wantErr: true,
		},
		{
			name: "too few suspects",
			settings: config.Settings{
				Era: "e", Tone: "t", Difficulty: config.DifficultyEasy, Suspects: 2,
			},
			wantErr: true,
		},
		{
			name: "too many suspects",
			settings: config.Settings{
				Era: "e", Tone: "t", Difficulty: config.DifficultyHard, Suspects: 7,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidSettings)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNormalisedFillsDefaults(t *testing.T) {
	settings := config.Settings{Difficulty: config.DifficultyHard}.Normalised()
	require.NoError(t, settings.Validate())
	require.Equal(t, config.DifficultyHard, settings.Difficulty)
	require.Equal(t, config.DefaultSettings().Era, settings.Era)
	require.Equal(t, 4, settings.Suspects)
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	contents := `
[presets.noir]
era = "a rain-soaked city in 1947"
tone = "hardboiled noir"
difficulty = "hard"
suspects = 5

[presets.cosy]
era = "a seaside village fete"
tone = "gentle and witty"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	presets, err := config.LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	require.Equal(t, 5, presets["noir"].Suspects)
	// Partial presets fall back to defaults.
	require.Equal(t, config.DifficultyStandard, presets["cosy"].Difficulty)
	require.Equal(t, 4, presets["cosy"].Suspects)
}

func TestLoadPresetsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	contents := `
[presets.broken]
era = "somewhere"
tone = "sometone"
suspects = 12
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	_, err := config.LoadPresets(path)
	require.ErrorIs(t, err, config.ErrInvalidSettings)
}
