package storage

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("memory not found")

// MemoryRecord is one stored memory. Embedding and EmotionLabel are set
// once at creation and never recomputed on read.
type MemoryRecord struct {
	ID           int64
	UUID         string
	OwnerID      string
	Content      string
	EmotionLabel string
	Embedding    []float32
	DateCreated  time.Time
	DateUpdated  time.Time
}

// MemoryRepo is the per-dialect persistence contract. Every operation is
// scoped to a single owner.
type MemoryRepo interface {
	// Create inserts one fully-populated record in a single atomic write
	// and returns it with store-assigned id, uuid and timestamps.
	Create(ownerID, content, emotionLabel string, embedding []float32) (MemoryRecord, error)

	// ListByOwner returns all of the owner's records in natural store
	// order (ascending id).
	ListByOwner(ownerID string) ([]MemoryRecord, error)

	Get(ownerID string, id int64) (MemoryRecord, error)

	Delete(ownerID string, id int64) error

	// CountByEmotion aggregates the owner's records per emotion label.
	CountByEmotion(ownerID string) (map[string]int64, error)
}

// EncodeEmbedding serializes []float32 into []byte (little-endian).
func EncodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

// DecodeEmbedding converts little-endian []byte back to []float32.
// Malformed input decodes to nil rather than an error; readers treat a
// nil embedding as "skip this record".
func DecodeEmbedding(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := 0; i < len(out); i++ {
		u := binary.LittleEndian.Uint32(b[i*4:])
		out[i] = math.Float32frombits(u)
	}
	return out
}

func decodeAnyTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return parseTimeString(x)
	case []byte:
		return parseTimeString(string(x))
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Common layouts:
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05", // SQLite datetime('now')
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SQL implementation

type sqlMemoryRepo struct {
	db      *sql.DB
	dialect string
}

func (r *sqlMemoryRepo) placeholder(n int) string {
	if r.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *sqlMemoryRepo) Create(ownerID, content, emotionLabel string, embedding []float32) (MemoryRecord, error) {
	u := uuid.New().String()
	now := time.Now().UTC()
	blob := EncodeEmbedding(embedding)

	var query string
	if r.dialect == "postgres" {
		query = `INSERT INTO memlog_memory (uuid, owner_id, content, emotion_label, embedding, date_created, date_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	} else {
		query = `INSERT INTO memlog_memory (uuid, owner_id, content, emotion_label, embedding, date_created, date_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`
	}

	var id int64
	err := r.db.QueryRow(query, u, ownerID, content, emotionLabel, blob, now, now).Scan(&id)
	if err != nil {
		return MemoryRecord{}, fmt.Errorf("insert memory: %w", err)
	}

	return MemoryRecord{
		ID:           id,
		UUID:         u,
		OwnerID:      ownerID,
		Content:      content,
		EmotionLabel: emotionLabel,
		Embedding:    embedding,
		DateCreated:  now,
		DateUpdated:  now,
	}, nil
}

func (r *sqlMemoryRepo) ListByOwner(ownerID string) ([]MemoryRecord, error) {
	query := `SELECT id, uuid, content, emotion_label, embedding, date_created, date_updated
		FROM memlog_memory WHERE owner_id = ` + r.placeholder(1) + ` ORDER BY id ASC`

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []MemoryRecord
	for rows.Next() {
		rec, err := scanMemory(rows, ownerID)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *sqlMemoryRepo) Get(ownerID string, id int64) (MemoryRecord, error) {
	var query string
	if r.dialect == "postgres" {
		query = `SELECT id, uuid, content, emotion_label, embedding, date_created, date_updated
			FROM memlog_memory WHERE owner_id = $1 AND id = $2`
	} else {
		query = `SELECT id, uuid, content, emotion_label, embedding, date_created, date_updated
			FROM memlog_memory WHERE owner_id = ? AND id = ?`
	}

	row := r.db.QueryRow(query, ownerID, id)
	rec, err := scanMemory(row, ownerID)
	if err == sql.ErrNoRows {
		return MemoryRecord{}, ErrNotFound
	}
	if err != nil {
		return MemoryRecord{}, fmt.Errorf("get memory: %w", err)
	}
	return rec, nil
}

func (r *sqlMemoryRepo) Delete(ownerID string, id int64) error {
	var query string
	if r.dialect == "postgres" {
		query = "DELETE FROM memlog_memory WHERE owner_id = $1 AND id = $2"
	} else {
		query = "DELETE FROM memlog_memory WHERE owner_id = ? AND id = ?"
	}

	res, err := r.db.Exec(query, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlMemoryRepo) CountByEmotion(ownerID string) (map[string]int64, error) {
	query := `SELECT emotion_label, COUNT(*) FROM memlog_memory
		WHERE owner_id = ` + r.placeholder(1) + ` GROUP BY emotion_label`

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count by emotion: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			continue
		}
		stats[label] = count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner, ownerID string) (MemoryRecord, error) {
	var rec MemoryRecord
	var blob []byte
	var createdAny, updatedAny any

	err := row.Scan(&rec.ID, &rec.UUID, &rec.Content, &rec.EmotionLabel, &blob, &createdAny, &updatedAny)
	if err != nil {
		return MemoryRecord{}, err
	}

	rec.OwnerID = ownerID
	rec.Embedding = DecodeEmbedding(blob)
	rec.DateCreated, _ = decodeAnyTime(createdAny)
	rec.DateUpdated, _ = decodeAnyTime(updatedAny)
	return rec, nil
}
