package memlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"memlogger/nlp"
	"memlogger/storage"
)

var (
	// ErrModelUnavailable means the NLP models failed to load; ingestion
	// and search hard-fail on it and nothing is persisted.
	ErrModelUnavailable = errors.New("nlp models unavailable")

	// ErrEmptyQuery is returned for a missing or blank search query.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrEmptyText is returned when ingesting a blank memory.
	ErrEmptyText = errors.New("memory text is empty")

	// ErrMissingOwner is returned when an operation has no owner scope.
	ErrMissingOwner = errors.New("owner id is required")

	// ErrNoStorage is returned when no storage connection was configured.
	ErrNoStorage = errors.New("no storage configured")
)

// Memlog records short text memories annotated with an emotion label and
// a semantic embedding, and retrieves them by similarity to a query.
type Memlog struct {
	Config  *Config
	Storage *storage.Manager

	logger *slog.Logger
	models *modelSet

	embedder   nlp.Embedder
	classifier nlp.Classifier
	loader     ModelLoader
}

type Option func(*Memlog)

func New(opts ...Option) *Memlog {
	m := &Memlog{
		Config: newConfig(),
	}

	for _, opt := range opts {
		opt(m)
	}

	// Defaults
	if m.Storage == nil {
		m.Storage = storage.NewManager()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// An explicit loader wins; otherwise injected models fill in over
	// the config-built defaults.
	loader := m.loader
	if loader == nil {
		loader = defaultLoader(m.Config)
		if m.embedder != nil || m.classifier != nil {
			loader = fixedLoader(m.embedder, m.classifier, loader)
		}
	}
	m.models = &modelSet{loader: loader, logger: m.logger}

	return m
}

// WithStorageConn binds a raw connection (*sql.DB or *mongo.Database).
func WithStorageConn(conn any) Option {
	return func(m *Memlog) {
		m.Storage = storage.NewManager()
		_ = m.Storage.Start(conn)
		m.Config.Storage.Dialect = m.Storage.Dialect()
	}
}

// WithEmbedder injects a pre-built embedder instead of the lazily
// loaded one from config.
func WithEmbedder(e nlp.Embedder) Option {
	return func(m *Memlog) { m.embedder = e }
}

// WithClassifier injects a pre-built emotion classifier.
func WithClassifier(c nlp.Classifier) Option {
	return func(m *Memlog) { m.classifier = c }
}

// WithModelLoader replaces the whole lazy-load step.
func WithModelLoader(l ModelLoader) Option {
	return func(m *Memlog) { m.loader = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Memlog) { m.logger = l }
}

func (m *Memlog) repo() (storage.MemoryRepo, error) {
	if m.Storage == nil || m.Storage.Driver() == nil {
		return nil, ErrNoStorage
	}
	return m.Storage.Driver().Memory(), nil
}

// List returns all of the owner's memories in store order.
func (m *Memlog) List(ownerID string) ([]MemoryRecord, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	repo, err := m.repo()
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	out := make([]MemoryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRecord(r))
	}
	return out, nil
}

// Get returns one memory by id, scoped to the owner.
func (m *Memlog) Get(ownerID string, id int64) (MemoryRecord, error) {
	if ownerID == "" {
		return MemoryRecord{}, ErrMissingOwner
	}
	repo, err := m.repo()
	if err != nil {
		return MemoryRecord{}, err
	}
	rec, err := repo.Get(ownerID, id)
	if err != nil {
		return MemoryRecord{}, err
	}
	return toRecord(rec), nil
}

// Delete removes one memory by id, scoped to the owner. Deleting has no
// side effects on other records.
func (m *Memlog) Delete(ownerID string, id int64) error {
	if ownerID == "" {
		return ErrMissingOwner
	}
	repo, err := m.repo()
	if err != nil {
		return err
	}
	return repo.Delete(ownerID, id)
}

// EmotionStats returns the owner's memory counts per emotion label.
func (m *Memlog) EmotionStats(ownerID string) (map[string]int64, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	repo, err := m.repo()
	if err != nil {
		return nil, err
	}
	return repo.CountByEmotion(ownerID)
}
