package memlog_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"memlogger/memlog"
	"memlogger/nlp"
)

// axisEmbedder embeds normalized text onto fixed axes so similarity is
// predictable: work/promotion topics on one axis, exam anxiety on another.
type axisEmbedder struct{}

func (axisEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, nlp.DefaultDimension)
	if strings.Contains(text, "promotion") || strings.Contains(text, "happy") || strings.Contains(text, "work") {
		v[0] = 1
	}
	if strings.Contains(text, "anxious") || strings.Contains(text, "exam") {
		v[1] = 1
	}
	if v[0] == 0 && v[1] == 0 {
		v[2] = 1
	}
	return v, nil
}

func (e axisEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.EmbedText(ctx, t)
	}
	return out, nil
}

func (axisEmbedder) Dimension() int   { return nlp.DefaultDimension }
func (axisEmbedder) Provider() string { return "stub" }

func newTestMemlog(t *testing.T, name string, opts ...memlog.Option) *memlog.Memlog {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]memlog.Option{
		memlog.WithStorageConn(db),
		memlog.WithEmbedder(axisEmbedder{}),
		memlog.WithClassifier(nlp.NewLexiconClassifier()),
	}, opts...)

	m := memlog.New(opts...)
	if err := m.Storage.Build(); err != nil {
		t.Fatalf("migrate/build: %v", err)
	}
	return m
}

func TestAcceptance_IngestAndSemanticSearch(t *testing.T) {
	m := newTestMemlog(t, "memlog_accept")
	ctx := context.Background()

	texts := []string{
		"I am thrilled about my promotion",
		"I feel anxious about the exam",
		"Promotion made me very happy today",
	}
	for _, text := range texts {
		rec, err := m.Ingest(ctx, "user-1", text)
		if err != nil {
			t.Fatalf("ingest %q: %v", text, err)
		}
		if len(rec.Embedding) != nlp.DefaultDimension {
			t.Fatalf("embedding length = %d, want %d", len(rec.Embedding), nlp.DefaultDimension)
		}
		if rec.EmotionLabel == "" {
			t.Fatalf("emotion label missing for %q", text)
		}
	}

	res, err := m.Search(ctx, "user-1", "happy news about work", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(res.Results))
	}
	for _, r := range res.Results {
		if !strings.Contains(strings.ToLower(r.Text), "promotion") {
			t.Fatalf("exam memory outranked promotion memories: %+v", res.Results)
		}
	}
	if !strings.Contains(res.Method, "cosine") {
		t.Fatalf("search method not reported: %q", res.Method)
	}
}

func TestAcceptance_EmotionLabels(t *testing.T) {
	m := newTestMemlog(t, "memlog_emotion")
	ctx := context.Background()

	rec, err := m.Ingest(ctx, "user-1", "I am thrilled about my promotion")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rec.EmotionLabel != "joy" {
		t.Fatalf("label = %q, want joy", rec.EmotionLabel)
	}

	stats, err := m.EmotionStats("user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["joy"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestSearch_EmptyQueryHasNoSideEffects(t *testing.T) {
	m := newTestMemlog(t, "memlog_emptyq")
	ctx := context.Background()

	if _, err := m.Ingest(ctx, "user-1", "something to remember"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if _, err := m.Search(ctx, "user-1", "", 5); !errors.Is(err, memlog.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := m.Search(ctx, "user-1", "   ", 5); !errors.Is(err, memlog.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery for blank query, got %v", err)
	}

	records, err := m.List("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("store mutated by failed search: %d records", len(records))
	}
}

func TestIngest_ModelLoadFailureWritesNothing(t *testing.T) {
	m := newTestMemlog(t, "memlog_nomodel", memlog.WithModelLoader(func() (nlp.Embedder, nlp.Classifier, error) {
		return nil, nil, fmt.Errorf("model weights missing")
	}))
	ctx := context.Background()

	_, err := m.Ingest(ctx, "user-1", "this must not be stored")
	if !errors.Is(err, memlog.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}

	records, err := m.List("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("record persisted despite load failure: %+v", records)
	}

	// Load failure is cached; search fails the same way.
	if _, err := m.Search(ctx, "user-1", "anything", 5); !errors.Is(err, memlog.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable from search, got %v", err)
	}
}

func TestSearch_SkipsMalformedEmbeddings(t *testing.T) {
	m := newTestMemlog(t, "memlog_malformed")
	ctx := context.Background()

	if _, err := m.Ingest(ctx, "user-1", "I am thrilled about my promotion"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// Legacy rows written behind the pipeline's back: wrong dimension,
	// missing vector, zero vector.
	repo := m.Storage.Driver().Memory()
	if _, err := repo.Create("user-1", "ten dim legacy row", "unknown", make([]float32, 10)); err != nil {
		t.Fatalf("create legacy: %v", err)
	}
	if _, err := repo.Create("user-1", "row without embedding", "unknown", nil); err != nil {
		t.Fatalf("create legacy: %v", err)
	}
	if _, err := repo.Create("user-1", "zero vector row", "unknown", make([]float32, nlp.DefaultDimension)); err != nil {
		t.Fatalf("create legacy: %v", err)
	}

	res, err := m.Search(ctx, "user-1", "promotion at work", 10)
	if err != nil {
		t.Fatalf("search should tolerate malformed rows: %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("got %d results, want only the valid record: %+v", len(res.Results), res.Results)
	}
	if res.Results[0].Text != "I am thrilled about my promotion" {
		t.Fatalf("unexpected result: %+v", res.Results[0])
	}
}

func TestSearch_NeverCrossesOwners(t *testing.T) {
	m := newTestMemlog(t, "memlog_owners")
	ctx := context.Background()

	if _, err := m.Ingest(ctx, "alice", "promotion at work"); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := m.Ingest(ctx, "bob", "my own promotion news"); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	res, err := m.Search(ctx, "alice", "promotion", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range res.Results {
		if r.Owner != "alice" {
			t.Fatalf("foreign record leaked into results: %+v", r)
		}
	}
	if len(res.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(res.Results))
	}
}

func TestSearch_DefaultAndMaxLimit(t *testing.T) {
	m := newTestMemlog(t, "memlog_limit")
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := m.Ingest(ctx, "user-1", fmt.Sprintf("promotion update number %d", i)); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	res, err := m.Search(ctx, "user-1", "promotion", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Results) != 5 {
		t.Fatalf("default limit: got %d results, want 5", len(res.Results))
	}

	res, err = m.Search(ctx, "user-1", "promotion", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(res.Results))
	}

	// Equal scores keep store order.
	for i := 1; i < len(res.Results); i++ {
		if res.Results[i-1].ID >= res.Results[i].ID {
			t.Fatalf("tie order not stable: %+v", res.Results)
		}
	}
}

func TestCRUD_GetDelete(t *testing.T) {
	m := newTestMemlog(t, "memlog_crud")
	ctx := context.Background()

	rec, err := m.Ingest(ctx, "user-1", "a day at the beach")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, err := m.Get("user-1", rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != rec.Text || got.Owner != "user-1" {
		t.Fatalf("get mismatch: %+v", got)
	}

	if err := m.Delete("user-1", rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get("user-1", rec.ID); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestIngest_Validation(t *testing.T) {
	m := newTestMemlog(t, "memlog_validate")
	ctx := context.Background()

	if _, err := m.Ingest(ctx, "", "text"); !errors.Is(err, memlog.ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
	if _, err := m.Ingest(ctx, "user-1", "  "); !errors.Is(err, memlog.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
