package mystery

import (
	"io"
	"testing"

	"github.com/myrjola/whodunit/internal/config"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// validDraft builds a four-suspect scenario that satisfies every validation
// rule: the butler is the culprit, his stated alibi (the garden) conflicts
// with a true critical-window sighting in the study, and every innocent's
// alibi matches the true timeline.
func validDraft() draftMystery {
	return draftMystery{
		Setting: "A snowed-in manor house, winter 1923.",
		Victim:  Victim{Name: "Lord Edgar Blackwood", Background: "Owner of the manor."},
		Locations: []Location{
			{ID: "study", Name: "The Study", Description: "Books and a cold fireplace.", IsMurderScene: true},
			{ID: "library", Name: "The Library", Description: "Tall shelves."},
			{ID: "garden", Name: "The Winter Garden", Description: "Frosted glass panes."},
			{ID: "kitchen", Name: "The Kitchen", Description: "Still warm from dinner."},
		},
		Suspects: []draftSuspect{
			{
				ID: "s1", Name: "Clara Voss", Role: "Niece", Personality: "Sharp and impatient.",
				Motive: "Stood to inherit.", Secret: "She forged a letter from her late mother.",
				Alibi: "I was reading in the library all evening.", AlibiLocationID: "library",
			},
			{
				ID: "s2", Name: "Dr. Henry Marsh", Role: "Family physician", Personality: "Measured, evasive.",
				Motive: "Edgar threatened to expose his malpractice.", Secret: "He owes gambling debts.",
				Alibi: "I kept Clara company in the library.", AlibiLocationID: "library",
			},
			{
				ID: "s3", Name: "Mr. Pruitt", Role: "Butler", Personality: "Formal, unreadable.",
				Motive: "Edgar was about to dismiss him without reference.",
				Secret: "He was in the study when the clock struck nine.",
				Alibi:  "I was tending the winter garden.", AlibiLocationID: "garden", Guilty: true,
			},
			{
				ID: "s4", Name: "Rosa Lindqvist", Role: "Cook", Personality: "Warm but guarded.",
				Motive: "Edgar withheld her wages.", Secret: "She has been feeding a stowaway in the cellar.",
				Alibi: "I never left my kitchen.", AlibiLocationID: "kitchen",
			},
		},
		Clues: []Clue{
			{ID: "c1", LocationID: "study", Content: "Mud from the garden path on the study carpet.", SuspectID: "s3"},
			{ID: "c2", LocationID: "study", Content: "A service bell cord, cut clean."},
			{ID: "c3", LocationID: "library", Content: "Two teacups, both still warm."},
		},
		Events: []draftEvent{
			{ObserverID: "s1", ObservedID: "s2", LocationID: "library", Slot: "critical_window", True: true},
			{ObserverID: "s2", ObservedID: "s1", LocationID: "library", Slot: "critical_window", True: true},
			{ObserverID: "s3", ObservedID: "", LocationID: "study", Slot: "critical_window", True: true},
			{ObserverID: "s4", ObservedID: "", LocationID: "kitchen", Slot: "critical_window", True: true},
			{ObserverID: "s4", ObservedID: "s3", LocationID: "garden", Slot: "dinner", True: true},
		},
		CulpritID: "s3",
	}
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.Suspects = 4
	return s
}

func testOracle(t *testing.T, fake *testhelpers.FakeAI) *Oracle {
	t.Helper()
	m, err := validDraft().toMystery()
	require.NoError(t, err)
	require.NoError(t, validate(m, testSettings()))
	return newOracle(m, fake, testhelpers.NewLogger(io.Discard))
}
