package mystery

import (
	"context"
	"strings"
	"testing"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/emotion"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanHistory(n int) []Exchange {
	history := make([]Exchange, n)
	for i := range history {
		history[i] = Exchange{Question: "Where were you?", Answer: "As I said.", Turn: i + 1}
	}
	return history
}

func TestInterrogateKeepsSecretOutOfPromptBeforeReveal(t *testing.T) {
	t.Parallel()

	var system string
	fake := &testhelpers.FakeAI{
		CompleteFunc: func(_ context.Context, sys, _ string) (string, error) {
			system = sys
			return "I was in the library, as I told you.", nil
		},
	}
	oracle := testOracle(t, fake)

	result, err := oracle.Interrogate(context.Background(), InterrogateRequest{
		SuspectID: "s1",
		Question:  "Where were you at nine?",
		State:     emotion.State{Trust: 69, Nervousness: 30},
		History:   cleanHistory(4),
	})
	require.NoError(t, err)
	assert.False(t, result.RevealedSecret)
	assert.NotContains(t, system, "forged a letter")
	// Guilt and the true timeline stay out of the persona entirely.
	assert.NotContains(t, strings.ToLower(system), "guilty")
	assert.NotContains(t, strings.ToLower(system), "innocent")
}

func TestInterrogateRevealsSecretForTrustedInnocent(t *testing.T) {
	t.Parallel()

	var system string
	fake := &testhelpers.FakeAI{
		CompleteFunc: func(_ context.Context, sys, _ string) (string, error) {
			system = sys
			return "Very well. The letter... I wrote it myself.", nil
		},
	}
	oracle := testOracle(t, fake)

	result, err := oracle.Interrogate(context.Background(), InterrogateRequest{
		SuspectID: "s1",
		Question:  "You can tell me anything.",
		State:     emotion.State{Trust: 70, Nervousness: 20},
		History:   cleanHistory(2),
	})
	require.NoError(t, err)
	assert.True(t, result.RevealedSecret)
	assert.Contains(t, result.RevealedFact, "forged a letter")
	assert.Contains(t, system, "forged a letter")
}

func TestInterrogateCulpritHoldsOutLonger(t *testing.T) {
	t.Parallel()

	fake := &testhelpers.FakeAI{}
	oracle := testOracle(t, fake)

	// Trust that unlocks an innocent is not enough for the culprit.
	result, err := oracle.Interrogate(context.Background(), InterrogateRequest{
		SuspectID: "s3",
		Question:  "Tell me the truth, Pruitt.",
		State:     emotion.State{Trust: 84, Nervousness: 60},
		History:   cleanHistory(5),
	})
	require.NoError(t, err)
	assert.False(t, result.RevealedSecret)

	result, err = oracle.Interrogate(context.Background(), InterrogateRequest{
		SuspectID: "s3",
		Question:  "Tell me the truth, Pruitt.",
		State:     emotion.State{Trust: 85, Nervousness: 60},
		History:   cleanHistory(5),
	})
	require.NoError(t, err)
	assert.True(t, result.RevealedSecret)
	assert.Contains(t, result.RevealedFact, "study")
}

func TestInterrogateContradictionsBlockReveal(t *testing.T) {
	t.Parallel()

	fake := &testhelpers.FakeAI{}
	oracle := testOracle(t, fake)

	// Three exchanges but two caught contradictions leaves only one clean
	// exchange, below the reveal requirement.
	result, err := oracle.Interrogate(context.Background(), InterrogateRequest{
		SuspectID: "s1",
		Question:  "Anything else?",
		State:     emotion.State{Trust: 90, Contradictions: 2},
		History:   cleanHistory(3),
	})
	require.NoError(t, err)
	assert.False(t, result.RevealedSecret)
}

func TestInterrogatePromptCarriesHistoryAndCrossReferences(t *testing.T) {
	t.Parallel()

	var system string
	fake := &testhelpers.FakeAI{
		CompleteFunc: func(_ context.Context, sys, _ string) (string, error) {
			system = sys
			return "That is not how I remember it.", nil
		},
	}
	oracle := testOracle(t, fake)

	history := cleanHistory(7)
	history[6].Answer = "I heard the clock strike nine."
	_, err := oracle.Interrogate(context.Background(), InterrogateRequest{
		SuspectID:       "s2",
		Question:        "Clara says otherwise.",
		State:           emotion.State{Trust: 40, Nervousness: 50},
		History:         history,
		CrossReferences: []string{"Clara Voss: \"Henry left the library before nine.\""},
	})
	require.NoError(t, err)
	assert.Contains(t, system, "clock strike nine")
	assert.Contains(t, system, "Henry left the library")
	// Only the last few exchanges make it into the prompt.
	assert.Equal(t, historyWindow, strings.Count(system, "Detective:"))
}

func TestInterrogateUnknownSuspect(t *testing.T) {
	t.Parallel()

	oracle := testOracle(t, &testhelpers.FakeAI{})
	_, err := oracle.Interrogate(context.Background(), InterrogateRequest{SuspectID: "nobody", Question: "?"})
	require.ErrorIs(t, err, ErrUnknownSuspect)
}

func TestCheckAccusationVerdictIgnoresEvidence(t *testing.T) {
	t.Parallel()

	fake := &testhelpers.FakeAI{
		CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
			return "The room falls silent.", nil
		},
	}
	oracle := testOracle(t, fake)

	// A mountain of cited evidence cannot convict an innocent.
	result, err := oracle.CheckAccusation(context.Background(), "s1", "mud, the cord, everything points at her")
	require.NoError(t, err)
	assert.False(t, result.Correct)

	// And no evidence at all still convicts the culprit.
	result, err = oracle.CheckAccusation(context.Background(), "s3", "")
	require.NoError(t, err)
	assert.True(t, result.Correct)
}

func TestCheckAccusationDegradesWhenCapabilityFails(t *testing.T) {
	t.Parallel()

	fake := &testhelpers.FakeAI{
		CompleteFunc: func(_ context.Context, _, _ string) (string, error) {
			return "", errors.Wrap(ai.ErrUnavailable, "completion")
		},
	}
	oracle := testOracle(t, fake)

	result, err := oracle.CheckAccusation(context.Background(), "s3", "the mud on the carpet")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Contains(t, result.Explanation, "Pruitt")
}

func TestRevealClueIsIdempotentPerLocation(t *testing.T) {
	t.Parallel()

	oracle := testOracle(t, &testhelpers.FakeAI{})
	revealed := map[string]bool{}
	isRevealed := func(id string) bool { return revealed[id] }

	first, ok := oracle.RevealClue("study", isRevealed)
	require.True(t, ok)
	revealed[first.ID] = true

	second, ok := oracle.RevealClue("study", isRevealed)
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
	revealed[second.ID] = true

	_, ok = oracle.RevealClue("study", isRevealed)
	assert.False(t, ok)

	_, ok = oracle.RevealClue("cellar", isRevealed)
	assert.False(t, ok)
}

func TestCaseFileExposesOnlyPublicInformation(t *testing.T) {
	t.Parallel()

	oracle := testOracle(t, &testhelpers.FakeAI{})
	cf := oracle.CaseFile()
	assert.Len(t, cf.Suspects, 4)
	assert.Len(t, cf.Locations, 4)
	assert.Equal(t, 3, cf.ClueCount)
	assert.Equal(t, "Lord Edgar Blackwood", cf.Victim.Name)
	for _, p := range cf.Suspects {
		assert.NotEmpty(t, p.Alibi)
	}
}

func TestSolutionRevealsTruth(t *testing.T) {
	t.Parallel()

	oracle := testOracle(t, &testhelpers.FakeAI{})
	solution := oracle.Solution()
	assert.Equal(t, "s3", solution.CulpritID)
	assert.Equal(t, "Mr. Pruitt", solution.CulpritName)
	assert.Len(t, solution.Secrets, 4)

	// Only true events appear, ordered by time slot.
	require.Len(t, solution.Timeline, 5)
	assert.Equal(t, SlotDinner, solution.Timeline[0].Slot)
	for _, entry := range solution.Timeline[1:] {
		assert.Equal(t, SlotCriticalWindow, entry.Slot)
	}
}
