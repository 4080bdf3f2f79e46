// Package contradiction compares a suspect's new statement against their own
// prior statements and flags clear factual conflicts. Detection is advisory
// and conservative: vagueness, mood changes or merely new information are
// never contradictions, and when the comparison capability is down, callers
// are expected to fail open rather than block the interrogation.
package contradiction

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/memory"
)

// ErrComparisonUnavailable signals that the comparison could not run. It is
// not a verdict; callers decide whether to fail open.
var ErrComparisonUnavailable = errors.NewSentinel("contradiction comparison unavailable")

// priorStatementsCompared bounds how many of the suspect's most relevant
// prior statements one check considers.
const priorStatementsCompared = 3

// Verdict is the detector's finding for one new statement.
type Verdict struct {
	Found bool `json:"found"`
	// Prior is the earlier statement the new one conflicts with.
	Prior memory.Statement `json:"prior,omitempty"`
	// Explanation says what conflicts, phrased for the player.
	Explanation string `json:"explanation,omitempty"`
}

type Detector struct {
	capability ai.StructuredCompleter
	store      *memory.Store
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]Verdict
}

func NewDetector(capability ai.StructuredCompleter, store *memory.Store, logger *slog.Logger) *Detector {
	return &Detector{
		capability: capability,
		store:      store,
		logger:     logger.With("source", "contradiction.Detector"),
		cache:      make(map[string]Verdict),
	}
}

// comparisonVerdict is the schema-constrained shape the capability returns.
type comparisonVerdict struct {
	Contradiction bool   `json:"contradiction"`
	PriorIndex    int    `json:"prior_index"`
	Explanation   string `json:"explanation"`
}

// Check compares the suspect's new statement against their most relevant
// prior statements. The same statement pair is never compared twice per
// detector; the verdict is cached.
func (d *Detector) Check(ctx context.Context, gameID, suspectID, statement string) (Verdict, error) {
	priors, err := d.store.Search(ctx, gameID, memory.SuspectPartition(suspectID), statement, priorStatementsCompared)
	if err != nil {
		return Verdict{}, errors.Wrap(errors.Join(ErrComparisonUnavailable, err), "search prior statements")
	}
	if len(priors) == 0 {
		return Verdict{}, nil
	}

	key := cacheKey(suspectID, statement, priors)
	d.mu.Lock()
	cached, ok := d.cache[key]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	verdict, err := d.compare(ctx, statement, priors)
	if err != nil {
		return Verdict{}, err
	}

	d.mu.Lock()
	d.cache[key] = verdict
	d.mu.Unlock()

	if verdict.Found {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "contradiction detected",
			slog.String("suspect_id", suspectID),
			slog.Int64("prior_id", verdict.Prior.ID))
	}
	return verdict, nil
}

func (d *Detector) compare(ctx context.Context, statement string, priors []memory.Result) (Verdict, error) {
	var b strings.Builder
	b.WriteString("PRIOR STATEMENTS\n")
	for i, p := range priors {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p.Text))
	}
	b.WriteString(fmt.Sprintf("\nNEW STATEMENT\n%s\n", statement))

	var result comparisonVerdict
	if err := d.capability.CompleteStructured(ctx, comparisonSystemPrompt, b.String(), "contradiction_verdict", &result); err != nil {
		return Verdict{}, errors.Wrap(errors.Join(ErrComparisonUnavailable, err), "compare statements")
	}

	if !result.Contradiction {
		return Verdict{}, nil
	}
	if result.PriorIndex < 1 || result.PriorIndex > len(priors) {
		// A positive verdict that cannot point at a prior statement is
		// unusable; treat it as no contradiction.
		d.logger.LogAttrs(ctx, slog.LevelWarn, "discarding verdict with bad prior index",
			slog.Int("prior_index", result.PriorIndex))
		return Verdict{}, nil
	}
	return Verdict{
		Found:       true,
		Prior:       priors[result.PriorIndex-1].Statement,
		Explanation: result.Explanation,
	}, nil
}

const comparisonSystemPrompt = `You compare witness statements for DIRECT factual contradictions.

A contradiction means the statements cannot both be true: different locations
at the same time, denying something previously admitted, incompatible accounts
of the same event.

NOT contradictions: vagueness, hedging, changes of tone, refusing to answer,
or adding new details that fit the earlier account. When unsure, answer no.

Respond with contradiction=true only for a clear conflict, prior_index set to
the 1-based number of the conflicting prior statement, and a one-sentence
explanation of what conflicts.`

func cacheKey(suspectID, statement string, priors []memory.Result) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00%s", suspectID, statement)
	for _, p := range priors {
		_, _ = fmt.Fprintf(h, "\x00%d", p.ID)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
