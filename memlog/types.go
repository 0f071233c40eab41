package memlog

import (
	"time"

	"memlogger/storage"
)

// MemoryRecord is the public shape of one stored memory.
type MemoryRecord struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	Text         string    `json:"text"`
	EmotionLabel string    `json:"emotion_label"`
	Embedding    []float32 `json:"embedding,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchResult carries ranked records plus the scoring path that
// produced them, so callers can tell a brute-force scan apart from a
// future indexed backend.
type SearchResult struct {
	Results []MemoryRecord `json:"results"`
	Method  string         `json:"search_method"`
}

func toRecord(r storage.MemoryRecord) MemoryRecord {
	return MemoryRecord{
		ID:           r.ID,
		Owner:        r.OwnerID,
		Text:         r.Content,
		EmotionLabel: r.EmotionLabel,
		Embedding:    r.Embedding,
		CreatedAt:    r.DateCreated,
		UpdatedAt:    r.DateUpdated,
	}
}
