// Package game drives one playthrough: it owns the turn loop, the per-suspect
// emotional states, the player's notebook of clues and caught contradictions,
// and the win/lose state machine. It talks to the scenario only through the
// oracle, so nothing in this package can see who is guilty.
package game

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/myrjola/whodunit/internal/contradiction"
	"github.com/myrjola/whodunit/internal/emotion"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/memory"
	"github.com/myrjola/whodunit/internal/mystery"
)

var (
	// ErrSessionClosed rejects operations on a closed session.
	ErrSessionClosed = errors.NewSentinel("game session is closed")
	// ErrSessionBusy rejects a mutating operation while another one is in
	// flight. Mutations are serialized, never queued.
	ErrSessionBusy = errors.NewSentinel("another action is already in progress")
	// ErrGameOver rejects gameplay actions once the game reached a verdict.
	ErrGameOver = errors.NewSentinel("the game is over")
	// ErrUnknownSuspect mirrors the oracle's sentinel for convenience.
	ErrUnknownSuspect = mystery.ErrUnknownSuspect
	// ErrUnknownLocation rejects searches of places that do not exist.
	ErrUnknownLocation = errors.NewSentinel("unknown location")
	// ErrNotFinished guards reveals that only make sense after the verdict.
	ErrNotFinished = errors.NewSentinel("the game is still in progress")
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusWon    Status = "WON"
	StatusLost   Status = "LOST"
	StatusClosed Status = "CLOSED"
)

const wrongAccusationLimit = 3

// ContradictionRecord is one caught lie, kept in the player's notebook.
type ContradictionRecord struct {
	SuspectID   string `json:"suspect_id"`
	SuspectName string `json:"suspect_name"`
	Turn        int    `json:"turn"`
	Prior       string `json:"prior"`
	Statement   string `json:"statement"`
	Explanation string `json:"explanation"`
}

// Session is one playthrough of one generated scenario. Mutating operations
// are serialized; reads are cheap snapshots.
type Session struct {
	id       string
	oracle   *mystery.Oracle
	store    *memory.Store
	detector *contradiction.Detector
	logger   *slog.Logger

	// actionMu serializes mutating operations. It is only ever TryLocked so a
	// concurrent action fails fast with ErrSessionBusy instead of queueing.
	actionMu sync.Mutex
	// stateMu guards the fields below for snapshot reads.
	stateMu sync.RWMutex

	status            Status
	turn              int
	emotions          map[string]emotion.State
	revealedClues     map[string]mystery.Clue
	searchedLocations map[string]bool
	contradictions    []ContradictionRecord
	wrongAccusations  int
	score             *Score
}

func newSession(
	id string,
	oracle *mystery.Oracle,
	store *memory.Store,
	detector *contradiction.Detector,
	logger *slog.Logger,
) *Session {
	emotions := make(map[string]emotion.State)
	for _, p := range oracle.PublicRoster() {
		emotions[p.ID] = emotion.NewState()
	}
	return &Session{
		id:                id,
		oracle:            oracle,
		store:             store,
		detector:          detector,
		logger:            logger.With("source", "game.Session", "game_id", id),
		status:            StatusActive,
		emotions:          emotions,
		revealedClues:     make(map[string]mystery.Clue),
		searchedLocations: make(map[string]bool),
	}
}

func (s *Session) ID() string { return s.id }

// beginAction acquires the action lock and verifies the session still accepts
// gameplay. The returned release func must be called when the action ends.
func (s *Session) beginAction() (func(), error) {
	if !s.actionMu.TryLock() {
		return nil, errors.Wrap(ErrSessionBusy, "begin action")
	}
	s.stateMu.RLock()
	status := s.status
	s.stateMu.RUnlock()
	switch status {
	case StatusClosed:
		s.actionMu.Unlock()
		return nil, errors.Wrap(ErrSessionClosed, "begin action")
	case StatusWon, StatusLost:
		s.actionMu.Unlock()
		return nil, errors.Wrap(ErrGameOver, "begin action", slog.String("status", string(status)))
	}
	return s.actionMu.Unlock, nil
}

// InterrogationOutcome is everything one exchange produced.
type InterrogationOutcome struct {
	SuspectID     string               `json:"suspect_id"`
	Turn          int                  `json:"turn"`
	Reply         string               `json:"reply"`
	State         emotion.State        `json:"state"`
	Contradiction *ContradictionRecord `json:"contradiction,omitempty"`
	RevealedFact  string               `json:"revealed_fact,omitempty"`
}

// Interrogate runs one question through the full pipeline: emotional
// classification, persona reply, contradiction check and indexing. All
// fallible work happens before any state is committed, so a failed exchange
// leaves the session exactly as it was.
func (s *Session) Interrogate(ctx context.Context, suspectID, question string) (InterrogationOutcome, error) {
	release, err := s.beginAction()
	if err != nil {
		return InterrogationOutcome{}, err
	}
	defer release()

	profile, ok := s.oracle.PublicProfile(suspectID)
	if !ok {
		return InterrogationOutcome{}, errors.Wrap(ErrUnknownSuspect, "interrogate",
			slog.String("suspect_id", suspectID))
	}

	s.stateMu.RLock()
	state := s.emotions[suspectID]
	turn := s.turn + 1
	s.stateMu.RUnlock()

	// The question's tone moves the dials before the suspect answers, so the
	// reply already reflects it.
	state = state.Apply(emotion.Classify(question))

	history, err := s.loadHistory(ctx, suspectID)
	if err != nil {
		return InterrogationOutcome{}, err
	}
	crossRefs, err := s.loadCrossReferences(ctx, suspectID, question)
	if err != nil {
		return InterrogationOutcome{}, err
	}

	result, err := s.oracle.Interrogate(ctx, mystery.InterrogateRequest{
		SuspectID:       suspectID,
		Question:        question,
		State:           state,
		History:         history,
		CrossReferences: crossRefs,
	})
	if err != nil {
		return InterrogationOutcome{}, errors.Wrap(err, "interrogate suspect")
	}

	// Advisory check: an unreachable comparison never blocks the exchange.
	var record *ContradictionRecord
	verdict, err := s.detector.Check(ctx, s.id, suspectID, result.Reply)
	switch {
	case errors.Is(err, contradiction.ErrComparisonUnavailable):
		s.logger.LogAttrs(ctx, slog.LevelWarn, "contradiction check skipped", errors.SlogError(err))
	case err != nil:
		return InterrogationOutcome{}, errors.Wrap(err, "check contradiction")
	case verdict.Found:
		state = state.CaughtInLie()
		record = &ContradictionRecord{
			SuspectID:   suspectID,
			SuspectName: profile.Name,
			Turn:        turn,
			Prior:       verdict.Prior.Text,
			Statement:   result.Reply,
			Explanation: verdict.Explanation,
		}
	}

	if err = s.store.IndexExchange(ctx, s.id, suspectID, turn, question, result.Reply, result.RevealedFact); err != nil {
		return InterrogationOutcome{}, errors.Wrap(err, "index exchange")
	}

	// Past this point nothing can fail; commit.
	s.stateMu.Lock()
	s.turn = turn
	s.emotions[suspectID] = state
	if record != nil {
		s.contradictions = append(s.contradictions, *record)
	}
	s.stateMu.Unlock()

	return InterrogationOutcome{
		SuspectID:     suspectID,
		Turn:          turn,
		Reply:         result.Reply,
		State:         state,
		Contradiction: record,
		RevealedFact:  result.RevealedFact,
	}, nil
}

func (s *Session) loadHistory(ctx context.Context, suspectID string) ([]mystery.Exchange, error) {
	rows, err := s.store.History(ctx, s.id, suspectID)
	if err != nil {
		return nil, errors.Wrap(err, "load history")
	}
	history := make([]mystery.Exchange, 0, len(rows))
	for _, r := range rows {
		history = append(history, mystery.Exchange{Question: r.Question, Answer: r.Answer, Turn: r.Turn})
	}
	return history, nil
}

const crossReferenceLimit = 2

func (s *Session) loadCrossReferences(ctx context.Context, suspectID, question string) ([]string, error) {
	results, err := s.store.CrossReferences(ctx, s.id, suspectID, question, crossReferenceLimit)
	if err != nil {
		return nil, errors.Wrap(err, "load cross references")
	}
	refs := make([]string, 0, len(results))
	for _, r := range results {
		name := r.SuspectID
		if p, ok := s.oracle.PublicProfile(r.SuspectID); ok {
			name = p.Name
		}
		refs = append(refs, name+" said: "+r.Answer)
	}
	return refs, nil
}

// SearchOutcome reports what a location search turned up.
type SearchOutcome struct {
	LocationID string        `json:"location_id"`
	Found      bool          `json:"found"`
	Clue       *mystery.Clue `json:"clue,omitempty"`
}

// SearchLocation reveals at most one new clue per call. Searching an already
// exhausted location is not an error; it reports nothing new.
func (s *Session) SearchLocation(ctx context.Context, locationID string) (SearchOutcome, error) {
	release, err := s.beginAction()
	if err != nil {
		return SearchOutcome{}, err
	}
	defer release()

	known := false
	for _, l := range s.oracle.Locations() {
		if l.ID == locationID {
			known = true
			break
		}
	}
	if !known {
		return SearchOutcome{}, errors.Wrap(ErrUnknownLocation, "search location",
			slog.String("location_id", locationID))
	}

	s.stateMu.RLock()
	alreadyRevealed := make(map[string]bool, len(s.revealedClues))
	for id := range s.revealedClues {
		alreadyRevealed[id] = true
	}
	turn := s.turn + 1
	s.stateMu.RUnlock()

	clue, found := s.oracle.RevealClue(locationID, func(id string) bool { return alreadyRevealed[id] })
	if !found {
		s.stateMu.Lock()
		s.searchedLocations[locationID] = true
		s.stateMu.Unlock()
		return SearchOutcome{LocationID: locationID}, nil
	}

	if err = s.store.IndexClue(ctx, s.id, turn, clue.Content); err != nil {
		return SearchOutcome{}, errors.Wrap(err, "index clue")
	}

	s.stateMu.Lock()
	s.turn = turn
	s.revealedClues[clue.ID] = clue
	s.searchedLocations[locationID] = true
	s.stateMu.Unlock()

	return SearchOutcome{LocationID: locationID, Found: true, Clue: &clue}, nil
}

// AccusationOutcome is the result of a formal accusation.
type AccusationOutcome struct {
	SuspectID        string            `json:"suspect_id"`
	Correct          bool              `json:"correct"`
	Explanation      string            `json:"explanation"`
	Status           Status            `json:"status"`
	WrongAccusations int               `json:"wrong_accusations"`
	Score            *Score            `json:"score,omitempty"`
	Solution         *mystery.Solution `json:"solution,omitempty"`
}

// Accuse names the culprit formally. A correct accusation wins; the third
// wrong one loses. Either terminal state reveals the solution.
func (s *Session) Accuse(ctx context.Context, suspectID, evidence string) (AccusationOutcome, error) {
	release, err := s.beginAction()
	if err != nil {
		return AccusationOutcome{}, err
	}
	defer release()

	result, err := s.oracle.CheckAccusation(ctx, suspectID, evidence)
	if err != nil {
		return AccusationOutcome{}, errors.Wrap(err, "check accusation")
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	outcome := AccusationOutcome{
		SuspectID:   suspectID,
		Correct:     result.Correct,
		Explanation: result.Explanation,
	}
	if result.Correct {
		s.status = StatusWon
		score := s.computeScoreLocked()
		s.score = &score
		solution := s.oracle.Solution()
		outcome.Score = &score
		outcome.Solution = &solution
	} else {
		s.wrongAccusations++
		if s.wrongAccusations >= wrongAccusationLimit {
			s.status = StatusLost
			solution := s.oracle.Solution()
			outcome.Solution = &solution
		}
	}
	outcome.Status = s.status
	outcome.WrongAccusations = s.wrongAccusations

	s.logger.LogAttrs(ctx, slog.LevelInfo, "accusation resolved",
		slog.String("suspect_id", suspectID),
		slog.Bool("correct", result.Correct),
		slog.String("status", string(s.status)))
	return outcome, nil
}

// SearchMemory exposes the notebook search to the player. Partition may be a
// suspect id to scope the search, or empty for everything.
func (s *Session) SearchMemory(ctx context.Context, suspectID, query string, limit int) ([]memory.Result, error) {
	s.stateMu.RLock()
	status := s.status
	s.stateMu.RUnlock()
	if status == StatusClosed {
		return nil, errors.Wrap(ErrSessionClosed, "search memory")
	}

	partition := ""
	if suspectID != "" {
		if _, ok := s.oracle.PublicProfile(suspectID); !ok {
			return nil, errors.Wrap(ErrUnknownSuspect, "search memory",
				slog.String("suspect_id", suspectID))
		}
		partition = memory.SuspectPartition(suspectID)
	}
	results, err := s.store.Search(ctx, s.id, partition, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "search memory")
	}
	return results, nil
}

// Snapshot is a consistent read of everything the player may see.
type Snapshot struct {
	ID               string                   `json:"id"`
	Status           Status                   `json:"status"`
	Turn             int                      `json:"turn"`
	CaseFile         mystery.CaseFile         `json:"case_file"`
	Emotions         map[string]emotion.State `json:"emotions"`
	RevealedClues    []mystery.Clue           `json:"revealed_clues"`
	Contradictions   []ContradictionRecord    `json:"contradictions"`
	WrongAccusations int                      `json:"wrong_accusations"`
	Score            *Score                   `json:"score,omitempty"`
	Solution         *mystery.Solution        `json:"solution,omitempty"`
}

// State returns a snapshot. The solution appears only after the game ended.
func (s *Session) State() Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	emotions := make(map[string]emotion.State, len(s.emotions))
	for id, e := range s.emotions {
		emotions[id] = e
	}
	clues := make([]mystery.Clue, 0, len(s.revealedClues))
	for _, c := range s.revealedClues {
		clues = append(clues, c)
	}
	sort.Slice(clues, func(i, j int) bool { return clues[i].ID < clues[j].ID })
	contradictions := make([]ContradictionRecord, len(s.contradictions))
	copy(contradictions, s.contradictions)

	snapshot := Snapshot{
		ID:               s.id,
		Status:           s.status,
		Turn:             s.turn,
		CaseFile:         s.oracle.CaseFile(),
		Emotions:         emotions,
		RevealedClues:    clues,
		Contradictions:   contradictions,
		WrongAccusations: s.wrongAccusations,
		Score:            s.score,
	}
	if s.status == StatusWon || s.status == StatusLost {
		solution := s.oracle.Solution()
		snapshot.Solution = &solution
	}
	return snapshot
}

// Contradictions returns the caught lies in the order they were caught.
func (s *Session) Contradictions() []ContradictionRecord {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	out := make([]ContradictionRecord, len(s.contradictions))
	copy(out, s.contradictions)
	return out
}

// Timeline reveals the true order of events. It is part of the epilogue and
// refuses to spoil a game still in progress.
func (s *Session) Timeline() ([]mystery.TimelineEntry, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	switch s.status {
	case StatusClosed:
		return nil, errors.Wrap(ErrSessionClosed, "timeline")
	case StatusActive:
		return nil, errors.Wrap(ErrNotFinished, "timeline")
	}
	return s.oracle.Solution().Timeline, nil
}

// Close tears the session down and deletes its indexed memory. Closing twice
// is an error; other in-flight actions win over a concurrent close.
func (s *Session) Close(ctx context.Context) error {
	if !s.actionMu.TryLock() {
		return errors.Wrap(ErrSessionBusy, "close session")
	}
	defer s.actionMu.Unlock()

	s.stateMu.Lock()
	if s.status == StatusClosed {
		s.stateMu.Unlock()
		return errors.Wrap(ErrSessionClosed, "close session")
	}
	s.status = StatusClosed
	s.stateMu.Unlock()

	if err := s.store.Delete(ctx, s.id); err != nil {
		return errors.Wrap(err, "delete session memory")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "session closed")
	return nil
}
