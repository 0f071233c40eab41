package memlog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"memlogger/nlp"
	"memlogger/storage"
)

type scoredRecord struct {
	rec   storage.MemoryRecord
	score float64
}

// Search embeds the query and ranks the owner's memories by cosine
// similarity, returning the top limit records. The scan runs on a
// snapshot fetched once at the start of the call; records with missing,
// mismatched or zero-norm embeddings are skipped, never fatal.
func (m *Memlog) Search(ctx context.Context, ownerID, query string, limit int) (SearchResult, error) {
	if ownerID == "" {
		return SearchResult{}, ErrMissingOwner
	}
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = m.Config.SearchLimit
	}

	repo, err := m.repo()
	if err != nil {
		return SearchResult{}, err
	}

	embedder, _, err := m.models.ensure()
	if err != nil {
		return SearchResult{}, err
	}

	if t := m.Config.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	queryVector, err := embedder.EmbedText(ctx, nlp.Normalize(query))
	if err != nil {
		return SearchResult{}, fmt.Errorf("embed query: %w", err)
	}
	if !usableVector(queryVector) {
		return SearchResult{}, fmt.Errorf("%w: query produced an unusable embedding", ErrEmptyQuery)
	}

	records, err := repo.ListByOwner(ownerID)
	if err != nil {
		return SearchResult{}, fmt.Errorf("load memories: %w", err)
	}

	scored := make([]scoredRecord, 0, len(records))
	for _, rec := range records {
		if len(rec.Embedding) != len(queryVector) || !usableVector(rec.Embedding) {
			continue
		}
		score := nlp.CosineSimilarity(queryVector, rec.Embedding)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		scored = append(scored, scoredRecord{rec: rec, score: score})
	}

	// Stable sort: ties keep the store's natural order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]MemoryRecord, 0, len(scored))
	for _, s := range scored {
		results = append(results, toRecord(s.rec))
	}

	return SearchResult{
		Results: results,
		Method:  m.searchMethod(),
	}, nil
}

func (m *Memlog) searchMethod() string {
	dialect := m.Storage.Dialect()
	if dialect == "" {
		dialect = "unbound"
	}
	return fmt.Sprintf("go/cosine-bruteforce (%s)", dialect)
}

// usableVector reports whether v is non-empty, all-finite and not
// zero-norm.
func usableVector(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	var norm float64
	for _, f := range v {
		d := float64(f)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
		norm += d * d
	}
	return norm > 0
}
