package mystery

import (
	"log/slog"

	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/errors"
)

// validate checks the structural invariants that make the puzzle solvable:
// exactly one culprit whose stated alibi provably conflicts with the true
// timeline, and innocents whose alibis hold up. Everything else a language
// model may get wrong (dangling references, missing motives) is caught here
// too so a broken scenario never reaches play.
func validate(m *Mystery, settings config.Settings) error {
	if len(m.suspects) != settings.Suspects {
		return errors.Wrap(ErrGenerationInvalid, "wrong suspect count",
			slog.Int("want", settings.Suspects), slog.Int("got", len(m.suspects)))
	}
	if m.victim.Name == "" {
		return errors.Wrap(ErrGenerationInvalid, "missing victim")
	}
	if len(m.locations) == 0 {
		return errors.Wrap(ErrGenerationInvalid, "no locations")
	}

	murderScenes := 0
	for _, l := range m.locations {
		if l.IsMurderScene {
			murderScenes++
		}
	}
	if murderScenes != 1 {
		return errors.Wrap(ErrGenerationInvalid, "need exactly one murder scene",
			slog.Int("got", murderScenes))
	}

	guilty := 0
	for _, s := range m.suspects {
		if s.guilty {
			guilty++
			if s.public.ID != m.culpritID {
				return errors.Wrap(ErrGenerationInvalid, "guilty flag does not match culprit id",
					slog.String("suspect_id", s.public.ID))
			}
		}
		if s.public.Motive == "" {
			return errors.Wrap(ErrGenerationInvalid, "suspect missing motive",
				slog.String("suspect_id", s.public.ID))
		}
		if s.public.Alibi == "" {
			return errors.Wrap(ErrGenerationInvalid, "suspect missing stated alibi",
				slog.String("suspect_id", s.public.ID))
		}
		if _, ok := m.locationByID(s.public.AlibiLocationID); !ok {
			return errors.Wrap(ErrGenerationInvalid, "alibi names unknown location",
				slog.String("suspect_id", s.public.ID),
				slog.String("location_id", s.public.AlibiLocationID))
		}
	}
	if guilty != 1 {
		return errors.Wrap(ErrGenerationInvalid, "need exactly one culprit",
			slog.Int("got", guilty))
	}

	for _, c := range m.clues {
		if _, ok := m.locationByID(c.LocationID); !ok {
			return errors.Wrap(ErrGenerationInvalid, "clue at unknown location",
				slog.String("clue_id", c.ID), slog.String("location_id", c.LocationID))
		}
		if c.SuspectID != "" {
			if _, ok := m.suspectByID(c.SuspectID); !ok {
				return errors.Wrap(ErrGenerationInvalid, "clue references unknown suspect",
					slog.String("clue_id", c.ID), slog.String("suspect_id", c.SuspectID))
			}
		}
	}
	if len(m.clues) == 0 {
		return errors.Wrap(ErrGenerationInvalid, "no clues")
	}

	for _, e := range m.events {
		if _, ok := m.suspectByID(e.ObserverID); !ok {
			return errors.Wrap(ErrGenerationInvalid, "event has unknown observer",
				slog.String("observer_id", e.ObserverID))
		}
		if e.ObservedID != "" {
			if _, ok := m.suspectByID(e.ObservedID); !ok {
				return errors.Wrap(ErrGenerationInvalid, "event has unknown observed suspect",
					slog.String("observed_id", e.ObservedID))
			}
		}
		if _, ok := m.locationByID(e.LocationID); !ok {
			return errors.Wrap(ErrGenerationInvalid, "event at unknown location",
				slog.String("location_id", e.LocationID))
		}
	}

	return validateAlibis(m)
}

// validateAlibis enforces the core puzzle invariant: every innocent's stated
// alibi is consistent with the true critical-window events involving them,
// and the culprit's stated alibi conflicts with at least one such event so
// the lie is detectable through cross-examination.
func validateAlibis(m *Mystery) error {
	for _, s := range m.suspects {
		events := m.trueEventsInvolving(s.public.ID, SlotCriticalWindow)

		if s.guilty {
			conflict := false
			for _, e := range events {
				if e.LocationID != s.public.AlibiLocationID {
					conflict = true
					break
				}
			}
			if !conflict {
				return errors.Wrap(ErrGenerationInvalid, "culprit alibi has no detectable lie",
					slog.String("suspect_id", s.public.ID))
			}
			continue
		}

		for _, e := range events {
			if e.LocationID != s.public.AlibiLocationID {
				return errors.Wrap(ErrGenerationInvalid, "innocent alibi contradicts true timeline",
					slog.String("suspect_id", s.public.ID),
					slog.String("alibi_location", s.public.AlibiLocationID),
					slog.String("event_location", e.LocationID))
			}
		}
	}
	return nil
}
