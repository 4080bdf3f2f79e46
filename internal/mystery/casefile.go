package mystery

import (
	"fmt"
	"sort"
)

// CaseFile is the public briefing handed to a new game session. Everything in
// it is safe to show the player at turn zero.
type CaseFile struct {
	Setting   string          `json:"setting"`
	Victim    Victim          `json:"victim"`
	Suspects  []PublicProfile `json:"suspects"`
	Locations []Location      `json:"locations"`
	ClueCount int             `json:"clue_count"`
}

// TimelineEntry is one sighting from the true encounter graph, surfaced only
// when the solution is revealed.
type TimelineEntry struct {
	Slot         TimeSlot `json:"slot"`
	LocationName string   `json:"location_name"`
	ObserverName string   `json:"observer_name"`
	ObservedName string   `json:"observed_name,omitempty"`
}

// Solution is the full reveal for a finished game.
type Solution struct {
	CulpritID   string          `json:"culprit_id"`
	CulpritName string          `json:"culprit_name"`
	Motive      string          `json:"motive"`
	Secrets     []SecretReveal  `json:"secrets"`
	Timeline    []TimelineEntry `json:"timeline"`
}

// SecretReveal pairs a suspect with the secret they were hiding.
type SecretReveal struct {
	SuspectID string `json:"suspect_id"`
	Name      string `json:"name"`
	Secret    string `json:"secret"`
}

func (o *Oracle) Setting() string { return o.mystery.setting }

func (o *Oracle) Victim() Victim { return o.mystery.victim }

// PublicRoster returns the public profiles of all suspects in generation order.
func (o *Oracle) PublicRoster() []PublicProfile {
	roster := make([]PublicProfile, 0, len(o.mystery.suspects))
	for _, s := range o.mystery.suspects {
		roster = append(roster, s.public)
	}
	return roster
}

func (o *Oracle) PublicProfile(suspectID string) (PublicProfile, bool) {
	s, ok := o.mystery.suspectByID(suspectID)
	if !ok {
		return PublicProfile{}, false
	}
	return s.public, true
}

func (o *Oracle) Locations() []Location {
	locations := make([]Location, len(o.mystery.locations))
	copy(locations, o.mystery.locations)
	return locations
}

func (o *Oracle) ClueCount() int { return len(o.mystery.clues) }

func (o *Oracle) CaseFile() CaseFile {
	return CaseFile{
		Setting:   o.mystery.setting,
		Victim:    o.mystery.victim,
		Suspects:  o.PublicRoster(),
		Locations: o.Locations(),
		ClueCount: len(o.mystery.clues),
	}
}

// RevealClue returns the first clue at the location not already revealed
// according to alreadyRevealed. The second return is false when the location
// does not exist or holds nothing new, so repeat searches are idempotent.
func (o *Oracle) RevealClue(locationID string, alreadyRevealed func(clueID string) bool) (Clue, bool) {
	if _, ok := o.mystery.locationByID(locationID); !ok {
		return Clue{}, false
	}
	for _, c := range o.mystery.clues {
		if c.LocationID != locationID || alreadyRevealed(c.ID) {
			continue
		}
		return c, true
	}
	return Clue{}, false
}

// IsCulprit reports whether the suspect is the culprit. Reserved for terminal
// game states; live gameplay goes through CheckAccusation.
func (o *Oracle) IsCulprit(suspectID string) bool {
	return suspectID == o.mystery.culpritID
}

// Solution reveals the ground truth. Callers must only invoke it once the
// game has reached a terminal state.
func (o *Oracle) Solution() Solution {
	culprit, _ := o.mystery.suspectByID(o.mystery.culpritID)

	secrets := make([]SecretReveal, 0, len(o.mystery.suspects))
	for _, s := range o.mystery.suspects {
		secrets = append(secrets, SecretReveal{
			SuspectID: s.public.ID,
			Name:      s.public.Name,
			Secret:    s.secret,
		})
	}

	var timeline []TimelineEntry
	for _, e := range o.mystery.events {
		if !e.True {
			continue
		}
		entry := TimelineEntry{Slot: e.Slot}
		if l, ok := o.mystery.locationByID(e.LocationID); ok {
			entry.LocationName = l.Name
		}
		entry.ObserverName = o.suspectName(e.ObserverID)
		if e.ObservedID != "" {
			entry.ObservedName = o.suspectName(e.ObservedID)
		}
		timeline = append(timeline, entry)
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return slotIndex(timeline[i].Slot) < slotIndex(timeline[j].Slot)
	})

	return Solution{
		CulpritID:   culprit.public.ID,
		CulpritName: culprit.public.Name,
		Motive:      culprit.public.Motive,
		Secrets:     secrets,
		Timeline:    timeline,
	}
}

func (o *Oracle) suspectName(id string) string {
	if s, ok := o.mystery.suspectByID(id); ok {
		return s.public.Name
	}
	return fmt.Sprintf("unknown (%s)", id)
}

func slotIndex(slot TimeSlot) int {
	for i, s := range TimeSlots {
		if s == slot {
			return i
		}
	}
	return len(TimeSlots)
}
