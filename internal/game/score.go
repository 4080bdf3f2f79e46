package game

// Tier grades a winning accusation by how much of the case the player
// actually built before naming the culprit.
type Tier string

const (
	TierPerfect Tier = "PERFECT_DEDUCTION"
	TierSolid   Tier = "SOLID_CASE"
	TierLucky   Tier = "LUCKY_GUESS"
)

// Scoring weights. Finding physical evidence counts most, catching lies
// next, covering the ground least.
const (
	clueWeight          = 0.5
	contradictionWeight = 0.3
	locationWeight      = 0.2

	// contradictionTarget caps the contradiction component; catching this
	// many lies earns the full weight.
	contradictionTarget = 3

	perfectThreshold = 0.8
	solidThreshold   = 0.5
)

// Score summarizes the investigation behind a win.
type Score struct {
	CluesFound           int     `json:"clues_found"`
	TotalClues           int     `json:"total_clues"`
	ContradictionsCaught int     `json:"contradictions_caught"`
	LocationsSearched    int     `json:"locations_searched"`
	TotalLocations       int     `json:"total_locations"`
	Value                float64 `json:"value"`
	Tier                 Tier    `json:"tier"`
}

// computeScoreLocked derives the score from session state. Callers hold
// stateMu.
func (s *Session) computeScoreLocked() Score {
	score := Score{
		CluesFound:           len(s.revealedClues),
		TotalClues:           s.oracle.ClueCount(),
		ContradictionsCaught: len(s.contradictions),
		LocationsSearched:    len(s.searchedLocations),
		TotalLocations:       len(s.oracle.Locations()),
	}
	score.Value = clueWeight*ratio(score.CluesFound, score.TotalClues) +
		contradictionWeight*ratio(score.ContradictionsCaught, contradictionTarget) +
		locationWeight*ratio(score.LocationsSearched, score.TotalLocations)

	switch {
	case score.Value >= perfectThreshold:
		score.Tier = TierPerfect
	case score.Value >= solidThreshold:
		score.Tier = TierSolid
	default:
		score.Tier = TierLucky
	}
	return score
}

func ratio(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(n) / float64(total)
	if r > 1 {
		return 1
	}
	return r
}
