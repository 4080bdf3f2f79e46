// Package mystery generates internally consistent murder scenarios and holds
// their ground truth behind the Oracle.
//
// The truth (guilt flags, secrets, the encounter graph) lives in unexported
// fields, and the only way to obtain a generated scenario is as an *Oracle.
// Visibility is enforced by the compiler rather than by convention: no code
// outside this package can dereference a private profile or the culprit id.
package mystery

// Victim is public information about the murder victim.
type Victim struct {
	Name       string `json:"name"`
	Background string `json:"background"`
}

// Location is a searchable place in the scenario.
type Location struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	IsMurderScene bool   `json:"is_murder_scene"`
}

// Clue is a piece of evidence placed at a location. Clues start hidden; the
// game session tracks which ones a search has revealed.
type Clue struct {
	ID         string `json:"id"`
	LocationID string `json:"location_id"`
	Content    string `json:"content"`
	// SuspectID optionally ties the clue to a suspect it incriminates or clears.
	SuspectID string `json:"suspect_id,omitempty"`
}

// PublicProfile is the part of a suspect the game session and UI may see.
type PublicProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Motive      string `json:"motive"`
	// Alibi is the suspect's stated account of the critical window.
	Alibi string `json:"alibi"`
	// AlibiLocationID is where the stated alibi places them. Needed so the
	// stated claim can be checked mechanically against the encounter graph.
	AlibiLocationID string `json:"alibi_location_id"`
}

// EncounterEvent records that Observer was at Location during Slot and saw
// Observed there (ObservedID "" means they saw nobody). True distinguishes
// what actually happened from fabricated claims seeded for the culprit and,
// on higher difficulties, red herrings.
type EncounterEvent struct {
	ObserverID string
	ObservedID string
	LocationID string
	Slot       TimeSlot
	True       bool
}

// suspect combines the public profile with the private truth. The private
// part never leaves this package.
type suspect struct {
	public PublicProfile
	secret string
	guilty bool
}

// Mystery is the complete scenario. It is owned by the Oracle and is never
// handed to client-facing components, in part or wholesale.
type Mystery struct {
	setting   string
	victim    Victim
	suspects  []suspect
	locations []Location
	clues     []Clue
	events    []EncounterEvent
	culpritID string
}

func (m *Mystery) suspectByID(id string) (suspect, bool) {
	for _, s := range m.suspects {
		if s.public.ID == id {
			return s, true
		}
	}
	return suspect{}, false
}

func (m *Mystery) locationByID(id string) (Location, bool) {
	for _, l := range m.locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// trueEventsInvolving returns the true encounter events where the suspect
// appears as observer or observed, limited to the given slot.
func (m *Mystery) trueEventsInvolving(suspectID string, slot TimeSlot) []EncounterEvent {
	var events []EncounterEvent
	for _, e := range m.events {
		if !e.True || e.Slot != slot {
			continue
		}
		if e.ObserverID == suspectID || e.ObservedID == suspectID {
			events = append(events, e)
		}
	}
	return events
}
