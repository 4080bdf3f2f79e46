package emotion

// Directive is a tagged behavior instruction composed deterministically from
// numeric state. The oracle turns these into persona prompt lines instead of
// ad hoc string conditionals.
type Directive string

const (
	DirectiveComposed        Directive = "COMPOSED"
	DirectiveLowTrust        Directive = "LOW_TRUST"
	DirectiveHighTrust       Directive = "HIGH_TRUST"
	DirectiveHighNervousness Directive = "HIGH_NERVOUSNESS"
	DirectiveCaughtInLie     Directive = "CAUGHT_IN_LIE"
)

const (
	lowTrustThreshold        = 30
	highTrustThreshold       = 70
	highNervousnessThreshold = 70
)

// Directives derives the behavior tags for the current state. The result is a
// pure function of the scalars so identical states always produce identical
// persona instructions.
func Directives(s State) []Directive {
	var directives []Directive
	if s.Trust < lowTrustThreshold {
		directives = append(directives, DirectiveLowTrust)
	}
	if s.Trust > highTrustThreshold {
		directives = append(directives, DirectiveHighTrust)
	}
	if s.Nervousness > highNervousnessThreshold {
		directives = append(directives, DirectiveHighNervousness)
	}
	if s.Contradictions > 0 {
		directives = append(directives, DirectiveCaughtInLie)
	}
	if len(directives) == 0 {
		directives = append(directives, DirectiveComposed)
	}
	return directives
}

// Instruction is the prompt line for a directive.
func (d Directive) Instruction() string {
	switch d {
	case DirectiveLowTrust:
		return "You distrust the detective. Be guarded, give short answers, volunteer nothing."
	case DirectiveHighTrust:
		return "You have come to trust the detective. Be open and forthcoming."
	case DirectiveHighNervousness:
		return "You are under visible stress. Speak in broken, inconsistent phrasing and hedge your claims."
	case DirectiveCaughtInLie:
		return "You have been caught contradicting yourself before. Be defensive when your earlier statements come up."
	case DirectiveComposed:
		return "You are composed. Answer naturally in your own voice."
	}
	return ""
}
