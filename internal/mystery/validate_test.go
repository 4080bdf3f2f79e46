package mystery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustMystery(t *testing.T, d draftMystery) *Mystery {
	t.Helper()
	m, err := d.toMystery()
	require.NoError(t, err)
	return m
}

func TestValidateAcceptsConsistentScenario(t *testing.T) {
	t.Parallel()
	require.NoError(t, validate(mustMystery(t, validDraft()), testSettings()))
}

func TestValidateRejectsBrokenScenarios(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		mutate func(d *draftMystery)
	}{
		{
			name: "culprit alibi has no detectable lie",
			mutate: func(d *draftMystery) {
				// Move the culprit's only critical-window sighting to the
				// location his alibi claims.
				for i := range d.Events {
					if d.Events[i].ObserverID == "s3" && d.Events[i].Slot == "critical_window" {
						d.Events[i].LocationID = "garden"
					}
				}
			},
		},
		{
			name: "innocent alibi contradicts true timeline",
			mutate: func(d *draftMystery) {
				d.Events = append(d.Events, draftEvent{
					ObserverID: "s1", LocationID: "kitchen", Slot: "critical_window", True: true,
				})
			},
		},
		{
			name: "two guilty suspects",
			mutate: func(d *draftMystery) {
				d.Suspects[0].Guilty = true
			},
		},
		{
			name: "guilty flag does not match culprit id",
			mutate: func(d *draftMystery) {
				d.CulpritID = "s1"
			},
		},
		{
			name: "no murder scene",
			mutate: func(d *draftMystery) {
				d.Locations[0].IsMurderScene = false
			},
		},
		{
			name: "missing motive",
			mutate: func(d *draftMystery) {
				d.Suspects[1].Motive = ""
			},
		},
		{
			name: "alibi names unknown location",
			mutate: func(d *draftMystery) {
				d.Suspects[3].AlibiLocationID = "attic"
			},
		},
		{
			name: "no clues",
			mutate: func(d *draftMystery) {
				d.Clues = nil
			},
		},
		{
			name: "clue at unknown location",
			mutate: func(d *draftMystery) {
				d.Clues[0].LocationID = "attic"
			},
		},
		{
			name: "event has unknown observer",
			mutate: func(d *draftMystery) {
				d.Events[0].ObserverID = "s9"
			},
		},
		{
			name: "missing victim",
			mutate: func(d *draftMystery) {
				d.Victim = Victim{}
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := validDraft()
			tt.mutate(&d)
			err := validate(mustMystery(t, d), testSettings())
			require.ErrorIs(t, err, ErrGenerationInvalid)
		})
	}
}

func TestToMysteryRejectsUnknownSlot(t *testing.T) {
	t.Parallel()
	d := validDraft()
	d.Events[0].Slot = "midnight"
	_, err := d.toMystery()
	require.ErrorIs(t, err, ErrGenerationInvalid)
}

// The fabricated claims seeded for harder scenarios (true=false events) must
// not count against an innocent's alibi.
func TestValidateIgnoresFabricatedEvents(t *testing.T) {
	t.Parallel()
	d := validDraft()
	d.Events = append(d.Events, draftEvent{
		ObserverID: "s2", ObservedID: "s1", LocationID: "garden", Slot: "critical_window", True: false,
	})
	require.NoError(t, validate(mustMystery(t, d), testSettings()))
}
