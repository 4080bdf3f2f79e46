// Package emotion tracks per-suspect trust and nervousness. The tracker is
// deliberately truth-blind: it holds no narrative content and never learns
// who is guilty, so its state can be passed around freely.
package emotion

import "strings"

const (
	initialTrust       = 50
	initialNervousness = 30

	confrontTrustDelta   = -5
	confrontNervesDelta  = +10
	sympathyTrustDelta   = +5
	sympathyNervesDelta  = -5
	evidenceTrustDelta   = -5
	evidenceNervesDelta  = +15
	caughtInLieIncrement = +12
)

// State holds the bounded emotional scalars for one suspect. Both stay in
// [0,100] under any sequence of updates.
type State struct {
	Trust          int `json:"trust"`
	Nervousness    int `json:"nervousness"`
	Contradictions int `json:"contradictions"`
}

func NewState() State {
	return State{Trust: initialTrust, Nervousness: initialNervousness}
}

// Classification describes the interrogation style of a question.
type Classification int

const (
	QuestionNeutral Classification = iota
	QuestionSympathetic
	QuestionConfrontational
	QuestionEvidenceBacked
)

var (
	evidencePhrases = []string{
		"but you said", "you told me", "earlier you", "contradict",
		"doesn't match", "someone saw you", "witness",
	}
	confrontWords = []string{
		"liar", "lying", "killed", "murder", "guilty", "confess",
		"admit", "suspicious", "caught", "you did it",
	}
	sympathyWords = []string{
		"help", "understand", "sorry", "difficult", "appreciate", "thank",
	}
)

// Classify buckets a question by keyword heuristics. Evidence-backed
// confrontation wins over plain aggression when both match.
func Classify(question string) Classification {
	q := strings.ToLower(question)
	for _, phrase := range evidencePhrases {
		if strings.Contains(q, phrase) {
			return QuestionEvidenceBacked
		}
	}
	for _, word := range confrontWords {
		if strings.Contains(q, word) {
			return QuestionConfrontational
		}
	}
	for _, word := range sympathyWords {
		if strings.Contains(q, word) {
			return QuestionSympathetic
		}
	}
	return QuestionNeutral
}

// Apply returns the state after a question of the given style.
func (s State) Apply(c Classification) State {
	switch c {
	case QuestionConfrontational:
		s.Trust += confrontTrustDelta
		s.Nervousness += confrontNervesDelta
	case QuestionSympathetic:
		s.Trust += sympathyTrustDelta
		s.Nervousness += sympathyNervesDelta
	case QuestionEvidenceBacked:
		s.Trust += evidenceTrustDelta
		s.Nervousness += evidenceNervesDelta
	case QuestionNeutral:
	}
	return s.clamp()
}

// CaughtInLie records a contradiction: nervousness rises by a fixed increment
// and clamps at the bound rather than wrapping.
func (s State) CaughtInLie() State {
	s.Nervousness += caughtInLieIncrement
	s.Contradictions++
	return s.clamp()
}

func (s State) clamp() State {
	s.Trust = clamp(s.Trust)
	s.Nervousness = clamp(s.Nervousness)
	return s
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
