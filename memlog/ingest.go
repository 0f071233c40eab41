package memlog

import (
	"context"
	"fmt"
	"strings"

	"memlogger/nlp"
)

// Ingest normalizes and embeds the text, classifies its emotion, and
// persists one fully-populated record in a single write. If the models
// cannot be loaded it fails with ErrModelUnavailable and nothing is
// stored; a per-call embedding fault degrades to a zero vector instead
// of failing the whole pipeline.
func (m *Memlog) Ingest(ctx context.Context, ownerID, text string) (MemoryRecord, error) {
	if ownerID == "" {
		return MemoryRecord{}, ErrMissingOwner
	}
	if strings.TrimSpace(text) == "" {
		return MemoryRecord{}, ErrEmptyText
	}

	repo, err := m.repo()
	if err != nil {
		return MemoryRecord{}, err
	}

	embedder, classifier, err := m.models.ensure()
	if err != nil {
		return MemoryRecord{}, err
	}

	if t := m.Config.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	vector, err := embedder.EmbedText(ctx, nlp.Normalize(text))
	if err != nil {
		// Transient per-call failure: store a zero vector rather than
		// losing the memory. The record will not be retrievable by
		// similarity until re-embedded.
		m.logger.Warn("embedding failed, storing zero vector", "owner", ownerID, "error", err)
		vector = make([]float32, embedder.Dimension())
	}

	// Emotion runs on the raw text; normalization would strip the
	// inflections and intensifiers the classifier relies on.
	label, err := classifier.Classify(ctx, text)
	if err != nil {
		m.logger.Warn("emotion classification failed", "owner", ownerID, "error", err)
		label = nlp.EmotionError
	}
	if label == "" {
		label = nlp.EmotionUnknown
	}

	rec, err := repo.Create(ownerID, text, label, vector)
	if err != nil {
		return MemoryRecord{}, fmt.Errorf("persist memory: %w", err)
	}
	return toRecord(rec), nil
}
