package mystery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/emotion"
	"github.com/myrjola/whodunit/internal/errors"
)

var ErrUnknownSuspect = errors.NewSentinel("unknown suspect")

// Reveal conditions: a suspect discloses their secret only once the detective
// has earned enough trust over a clean stretch of conversation. The culprit
// holds out longer. Only the thresholds are tunable; the monotonic behavior
// is the contract.
const (
	innocentRevealTrust     = 70
	culpritRevealTrust      = 85
	revealExchangesRequired = 2
)

const historyWindow = 5

// Oracle is the sole holder of the mystery's ground truth. It exposes
// interrogation and accusation checking plus the public read surface, and
// nothing that would let a caller reach the private profiles.
type Oracle struct {
	mystery    *Mystery
	capability Capability
	logger     *slog.Logger
}

func newOracle(m *Mystery, capability Capability, logger *slog.Logger) *Oracle {
	return &Oracle{
		mystery:    m,
		capability: capability,
		logger:     logger.With("source", "mystery.Oracle"),
	}
}

// Exchange is one question/answer pair from a suspect's conversation log.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Turn     int    `json:"turn"`
}

type InterrogateRequest struct {
	SuspectID string
	Question  string
	State     emotion.State
	// History is the suspect's own prior conversation log.
	History []Exchange
	// CrossReferences are statements by other suspects the detective is
	// explicitly confronting this suspect with.
	CrossReferences []string
}

type InterrogateResult struct {
	Reply string
	// RevealedSecret is set when the reveal condition was met this turn and
	// the suspect was instructed to disclose their secret.
	RevealedSecret bool
	// RevealedFact carries the disclosed fact for the session to record.
	RevealedFact string
}

// Interrogate builds a persona-grounded request from the suspect's public
// profile plus behavior directives derived from emotional state. The private
// profile enters the capability input only when the reveal condition is met,
// and the result never carries ground truth about another suspect's guilt.
func (o *Oracle) Interrogate(ctx context.Context, req InterrogateRequest) (InterrogateResult, error) {
	s, ok := o.mystery.suspectByID(req.SuspectID)
	if !ok {
		return InterrogateResult{}, errors.Wrap(ErrUnknownSuspect, "interrogate",
			slog.String("suspect_id", req.SuspectID))
	}

	reveal := o.shouldRevealSecret(s, req)
	system := o.personaPrompt(s, req, reveal)

	reply, err := o.capability.Complete(ctx, system, fmt.Sprintf("The detective says: %q", req.Question))
	if err != nil {
		return InterrogateResult{}, errors.Wrap(err, "generate suspect reply",
			slog.String("suspect_id", req.SuspectID))
	}

	result := InterrogateResult{Reply: reply}
	if reveal {
		result.RevealedSecret = true
		result.RevealedFact = fmt.Sprintf("%s confided: %s", s.public.Name, s.secret)
		o.logger.LogAttrs(ctx, slog.LevelInfo, "suspect revealed secret",
			slog.String("suspect_id", req.SuspectID),
			slog.Int("trust", req.State.Trust))
	}
	return result, nil
}

// shouldRevealSecret checks the reveal condition: trust above the threshold
// for the suspect's role AND enough prior exchanges without a caught
// contradiction. Guilt raises the bar but never enters the prompt.
func (o *Oracle) shouldRevealSecret(s suspect, req InterrogateRequest) bool {
	threshold := innocentRevealTrust
	if s.guilty {
		threshold = culpritRevealTrust
	}
	if req.State.Trust < threshold {
		return false
	}
	cleanExchanges := len(req.History) - req.State.Contradictions
	return cleanExchanges >= revealExchangesRequired
}

func (o *Oracle) personaPrompt(s suspect, req InterrogateRequest, reveal bool) string {
	var b strings.Builder
	b.WriteString("You are roleplaying a suspect in a murder investigation. Stay in character.\n\n")
	b.WriteString("CHARACTER\n")
	b.WriteString(fmt.Sprintf("Name: %s\nRole: %s\nPersonality: %s\nPossible motive others whisper about: %s\n",
		s.public.Name, s.public.Role, s.public.Personality, s.public.Motive))
	b.WriteString(fmt.Sprintf("Your account of the evening: %s\n", s.public.Alibi))

	b.WriteString("\nBEHAVIOR\n")
	for _, d := range emotion.Directives(req.State) {
		b.WriteString("- " + d.Instruction() + "\n")
	}

	if n := len(req.History); n > 0 {
		b.WriteString("\nWHAT YOU ALREADY TOLD THE DETECTIVE\n")
		start := n - historyWindow
		if start < 0 {
			start = 0
		}
		for _, e := range req.History[start:] {
			b.WriteString(fmt.Sprintf("Detective: %q You: %q\n", e.Question, e.Answer))
		}
		b.WriteString("Stay consistent with these statements.\n")
	}

	if len(req.CrossReferences) > 0 {
		b.WriteString("\nTHE DETECTIVE MAY CONFRONT YOU WITH WHAT OTHERS SAID\n")
		for _, ref := range req.CrossReferences {
			b.WriteString("- " + ref + "\n")
		}
	}

	if reveal {
		b.WriteString(fmt.Sprintf(`
DISCLOSE THIS NOW
You finally trust the detective enough to admit what you have been hiding: %q
Work it into your answer naturally and show the relief or fear of saying it.
`, s.secret))
	}

	b.WriteString(`
RULES
- First person, in your own voice, 2-3 sentences.
- Never speculate about who committed the murder.
- If asked something off-topic, steer back to the case.
`)
	return b.String()
}

type AccusationResult struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// CheckAccusation evaluates strictly against the culprit identity. The
// evidence argument is advisory: it colors the explanation but can never flip
// the verdict, and a capability failure degrades to a canned explanation.
func (o *Oracle) CheckAccusation(ctx context.Context, suspectID, evidence string) (AccusationResult, error) {
	s, ok := o.mystery.suspectByID(suspectID)
	if !ok {
		return AccusationResult{}, errors.Wrap(ErrUnknownSuspect, "check accusation",
			slog.String("suspect_id", suspectID))
	}

	result := AccusationResult{Correct: suspectID == o.mystery.culpritID}

	system := "You narrate the closing beat of a murder mystery in 2-3 atmospheric sentences. Do not reveal facts beyond what you are given."
	var user string
	if result.Correct {
		user = fmt.Sprintf("The detective correctly accuses %s (%s). Their motive: %s. Evidence cited: %s. Narrate the confession.",
			s.public.Name, s.public.Role, s.public.Motive, evidenceOrNone(evidence))
	} else {
		user = fmt.Sprintf("The detective wrongly accuses %s (%s), who is innocent. Evidence cited: %s. Narrate the denial holding up.",
			s.public.Name, s.public.Role, evidenceOrNone(evidence))
	}

	explanation, err := o.capability.Complete(ctx, system, user)
	if err != nil {
		// The verdict must not depend on the capability.
		o.logger.LogAttrs(ctx, slog.LevelWarn, "accusation explanation degraded", errors.SlogError(err))
		if result.Correct {
			explanation = fmt.Sprintf("%s breaks down and confesses.", s.public.Name)
		} else {
			explanation = fmt.Sprintf("%s's alibi withstands the accusation.", s.public.Name)
		}
	}
	result.Explanation = explanation
	return result, nil
}

func evidenceOrNone(evidence string) string {
	if strings.TrimSpace(evidence) == "" {
		return "none"
	}
	return evidence
}
