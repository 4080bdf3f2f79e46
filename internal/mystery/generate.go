package mystery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/errors"
)

// ErrGenerationInvalid signals that the generated scenario failed structural
// validation even after retries with a stricter prompt.
var ErrGenerationInvalid = errors.NewSentinel("generated mystery failed consistency validation")

const generationRetryLimit = 3

// Capability is the slice of the language capability that mystery generation
// and interrogation need.
type Capability interface {
	ai.Completer
	ai.StructuredCompleter
}

// draftMystery is the schema-constrained shape the language capability fills
// in. It is converted and validated before anything trusts it.
type draftMystery struct {
	Setting   string         `json:"setting"`
	Victim    Victim         `json:"victim"`
	Locations []Location     `json:"locations"`
	Suspects  []draftSuspect `json:"suspects"`
	Clues     []Clue         `json:"clues"`
	Events    []draftEvent   `json:"events"`
	CulpritID string         `json:"culprit_id"`
}

type draftSuspect struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	Personality     string `json:"personality"`
	Motive          string `json:"motive"`
	Secret          string `json:"secret"`
	Alibi           string `json:"alibi"`
	AlibiLocationID string `json:"alibi_location_id"`
	Guilty          bool   `json:"guilty"`
}

type draftEvent struct {
	ObserverID string `json:"observer_id"`
	ObservedID string `json:"observed_id"`
	LocationID string `json:"location_id"`
	Slot       string `json:"slot"`
	True       bool   `json:"true"`
}

// Generate produces a validated scenario and returns it sealed inside an
// Oracle. On validation failure generation is retried with a stricter prompt
// up to a fixed ceiling before surfacing ErrGenerationInvalid.
func Generate(
	ctx context.Context,
	capability Capability,
	settings config.Settings,
	logger *slog.Logger,
) (*Oracle, error) {
	settings = settings.Normalised()
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate settings")
	}
	logger = logger.With("source", "mystery.Generate")

	var lastErr error
	for attempt := 1; attempt <= generationRetryLimit; attempt++ {
		var draft draftMystery
		system := generationSystemPrompt(settings, lastErr)
		user := fmt.Sprintf("Generate a murder mystery with exactly %d suspects.", settings.Suspects)
		if err := capability.CompleteStructured(ctx, system, user, "murder_mystery", &draft); err != nil {
			return nil, errors.Wrap(err, "generate mystery draft")
		}

		m, err := draft.toMystery()
		if err == nil {
			err = validate(m, settings)
		}
		if err == nil {
			logger.LogAttrs(ctx, slog.LevelInfo, "generated mystery",
				slog.Int("attempt", attempt),
				slog.Int("suspects", len(m.suspects)),
				slog.Int("clues", len(m.clues)),
				slog.Int("events", len(m.events)))
			return newOracle(m, capability, logger), nil
		}

		lastErr = err
		logger.LogAttrs(ctx, slog.LevelWarn, "generated mystery failed validation",
			slog.Int("attempt", attempt), errors.SlogError(err))
	}
	return nil, errors.Wrap(lastErr, "generation retry ceiling reached")
}

func generationSystemPrompt(settings config.Settings, lastErr error) string {
	var b strings.Builder
	b.WriteString(`You are a murder mystery author. Design one evening, one victim, one culprit.

SETTING
`)
	b.WriteString(fmt.Sprintf("Era and place: %s\nTone: %s\n", settings.Era, settings.Tone))

	b.WriteString(`
STRUCTURE RULES
- Exactly one suspect has guilty=true and their id is culprit_id.
- Every suspect needs a motive, a secret unrelated to guilt for the innocents, and a stated alibi naming one of the locations (alibi_location_id).
- 3 to 6 locations, exactly one with is_murder_scene=true.
- Each clue sits at one location; at least one clue must point at the culprit's lie.
- Events form the true timeline: observer_id was at location_id during slot and saw observed_id there (empty observed_id means they saw nobody). Mark what actually happened with true=true.
- Valid slots in order: early_evening, gathering, dinner, critical_window, discovery, late_evening. The murder happens during critical_window.

CONSISTENCY RULES (the validator rejects violations)
- For every INNOCENT suspect: all true critical_window events involving them must place them at their alibi_location_id.
- For the CULPRIT: the stated alibi must be plausible but false. At least one true critical_window event must place the culprit somewhere other than their alibi_location_id.
`)

	switch settings.Difficulty {
	case config.DifficultyEasy:
		b.WriteString("\nDIFFICULTY: easy. The culprit's lie should be easy to catch: a direct witness contradicts it. Few events beyond the essentials.\n")
	case config.DifficultyHard:
		b.WriteString("\nDIFFICULTY: hard. Make the culprit's false alibi closely resemble a true one, add red-herring events (true=false) that cast suspicion on innocents, and spread many sightings across slots.\n")
	default:
		b.WriteString("\nDIFFICULTY: standard. A careful cross-examination of two suspects should expose the culprit's lie. Include a couple of red-herring events.\n")
	}

	if lastErr != nil {
		b.WriteString(fmt.Sprintf(`
STRICT MODE: your previous attempt was rejected by the validator: %s
Follow the CONSISTENCY RULES literally. Double-check every critical_window event against each suspect's alibi_location_id before answering.
`, lastErr.Error()))
	}
	return b.String()
}

func (d draftMystery) toMystery() (*Mystery, error) {
	m := &Mystery{
		setting:   d.Setting,
		victim:    d.Victim,
		locations: d.Locations,
		clues:     d.Clues,
		culpritID: d.CulpritID,
	}
	for _, s := range d.Suspects {
		m.suspects = append(m.suspects, suspect{
			public: PublicProfile{
				ID:              s.ID,
				Name:            s.Name,
				Role:            s.Role,
				Personality:     s.Personality,
				Motive:          s.Motive,
				Alibi:           s.Alibi,
				AlibiLocationID: s.AlibiLocationID,
			},
			secret: s.Secret,
			guilty: s.Guilty,
		})
	}
	for _, e := range d.Events {
		slot := TimeSlot(e.Slot)
		if !slot.Valid() {
			return nil, errors.Wrap(ErrGenerationInvalid, "unknown time slot",
				slog.String("slot", e.Slot))
		}
		m.events = append(m.events, EncounterEvent{
			ObserverID: e.ObserverID,
			ObservedID: e.ObservedID,
			LocationID: e.LocationID,
			Slot:       slot,
			True:       e.True,
		})
	}
	return m, nil
}
