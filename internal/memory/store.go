// Package memory is the semantic recall layer. Every statement a suspect
// makes and every clue the player uncovers is embedded and indexed under a
// partition scoped to one game session, so later searches can surface
// related material without replaying whole transcripts.
package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/db"
	"github.com/myrjola/whodunit/internal/errors"
)

// CluesPartition holds discovered physical evidence. Suspect statements live
// in per-suspect partitions from SuspectPartition.
const CluesPartition = "clues"

// SuspectPartition names the partition for one suspect's statements.
func SuspectPartition(suspectID string) string {
	return "suspect:" + suspectID
}

// Statement is one indexed row: either a question/answer exchange from an
// interrogation or a free-standing fact such as a discovered clue.
type Statement struct {
	ID        int64  `db:"id"`
	Partition string `db:"partition"`
	SuspectID string `db:"suspect_id"`
	Turn      int    `db:"turn"`
	Question  string `db:"question"`
	Answer    string `db:"answer"`
	Text      string `db:"text"`
}

// Result pairs a statement with its similarity to the query.
type Result struct {
	Statement
	Score float64
}

type Store struct {
	db       *db.Database
	embedder ai.Embedder
	logger   *slog.Logger
}

func NewStore(database *db.Database, embedder ai.Embedder, logger *slog.Logger) *Store {
	return &Store{
		db:       database,
		embedder: embedder,
		logger:   logger.With("source", "memory.Store"),
	}
}

// IndexExchange records one interrogation exchange in the suspect's
// partition. When the exchange also surfaced a revealed fact, that fact is
// indexed into the clues partition in the same transaction so a crash cannot
// leave the two out of step.
func (s *Store) IndexExchange(
	ctx context.Context,
	gameID, suspectID string,
	turn int,
	question, answer, revealedFact string,
) error {
	text := fmt.Sprintf("Q: %s A: %s", question, answer)
	exchangeEmbedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return errors.Wrap(err, "embed exchange")
	}

	var factEmbedding []float32
	if revealedFact != "" {
		if factEmbedding, err = s.embedder.Embed(ctx, revealedFact); err != nil {
			return errors.Wrap(err, "embed revealed fact")
		}
	}

	tx, err := s.db.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `INSERT INTO statements (session_id, "partition", suspect_id, turn, question, answer, text, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err = tx.ExecContext(ctx, insert,
		gameID, SuspectPartition(suspectID), suspectID, turn, question, answer, text,
		encodeEmbedding(exchangeEmbedding)); err != nil {
		return errors.Wrap(err, "insert exchange")
	}
	if revealedFact != "" {
		if _, err = tx.ExecContext(ctx, insert,
			gameID, CluesPartition, suspectID, turn, "", "", revealedFact,
			encodeEmbedding(factEmbedding)); err != nil {
			return errors.Wrap(err, "insert revealed fact")
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit exchange")
	}
	return nil
}

// IndexClue records a discovered clue in the clues partition.
func (s *Store) IndexClue(ctx context.Context, gameID string, turn int, text string) error {
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return errors.Wrap(err, "embed clue")
	}
	const insert = `INSERT INTO statements (session_id, "partition", suspect_id, turn, question, answer, text, embedding)
VALUES (?, ?, '', ?, '', '', ?, ?)`
	if _, err = s.db.ReadWrite.ExecContext(ctx, insert,
		gameID, CluesPartition, turn, text, encodeEmbedding(embedding)); err != nil {
		return errors.Wrap(err, "insert clue")
	}
	return nil
}

// Search ranks indexed statements by cosine similarity to the query. An empty
// partition searches the whole game session; otherwise results are confined
// to the named partition. Ties break on insertion order so rankings are
// stable.
func (s *Store) Search(ctx context.Context, gameID, partition, query string, limit int) ([]Result, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}

	rows, err := s.loadRows(ctx, gameID, partition)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(rows))
	for _, r := range rows {
		if partition != "" && r.Partition != partition {
			// The SQL filter guarantees this; a mismatch means the scoping is
			// broken and any answer we return could leak across suspects.
			panic(fmt.Sprintf("memory: partition breach: row %d from %q in search scoped to %q",
				r.ID, r.Partition, partition))
		}
		results = append(results, Result{
			Statement: r.Statement,
			Score:     cosineSimilarity(queryEmbedding, decodeEmbedding(r.Embedding)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CrossReferences finds statements made by other suspects that relate to the
// query. Used to confront a suspect with what the rest of the household said.
func (s *Store) CrossReferences(ctx context.Context, gameID, excludeSuspectID, query string, limit int) ([]Result, error) {
	all, err := s.Search(ctx, gameID, "", query, 0)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, limit)
	for _, r := range all {
		if r.Partition == CluesPartition || r.SuspectID == excludeSuspectID {
			continue
		}
		results = append(results, r)
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, nil
}

// History returns a suspect's exchanges in turn order.
func (s *Store) History(ctx context.Context, gameID, suspectID string) ([]Statement, error) {
	var rows []Statement
	const query = `SELECT id, "partition", suspect_id, turn, question, answer, text
FROM statements WHERE session_id = ? AND "partition" = ? ORDER BY turn ASC, id ASC`
	err := s.db.ReadOnly.SelectContext(ctx, &rows, query, gameID, SuspectPartition(suspectID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "load history",
			slog.String("suspect_id", suspectID))
	}
	return rows, nil
}

// Delete removes everything indexed for a game session.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	if _, err := s.db.ReadWrite.ExecContext(ctx,
		`DELETE FROM statements WHERE session_id = ?`, gameID); err != nil {
		return errors.Wrap(err, "delete game memory")
	}
	return nil
}

type statementRow struct {
	Statement
	Embedding []byte `db:"embedding"`
}

func (s *Store) loadRows(ctx context.Context, gameID, partition string) ([]statementRow, error) {
	var (
		rows []statementRow
		err  error
	)
	const base = `SELECT id, "partition", suspect_id, turn, question, answer, text, embedding FROM statements WHERE session_id = ?`
	if partition == "" {
		err = s.db.ReadOnly.SelectContext(ctx, &rows, base+` ORDER BY id ASC`, gameID)
	} else {
		err = s.db.ReadOnly.SelectContext(ctx, &rows, base+` AND "partition" = ? ORDER BY id ASC`, gameID, partition)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(err, "load statements",
			slog.String("partition", partition))
	}
	return rows, nil
}

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// cosineSimilarity of two vectors; zero when either has no magnitude or the
// dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
