package memlog

import (
	"fmt"
	"log/slog"
	"sync"

	"memlogger/nlp"
)

// ModelLoader builds the embedder and classifier pair. Loading may be
// slow (model download, warm-up), so it runs lazily on first use.
type ModelLoader func() (nlp.Embedder, nlp.Classifier, error)

// modelSet is the process-wide handle for the NLP models. Loading runs
// at most once; both the models and a load failure are cached for the
// process lifetime, and the loaded models are read-only afterwards.
type modelSet struct {
	loader ModelLoader
	logger *slog.Logger

	once       sync.Once
	embedder   nlp.Embedder
	classifier nlp.Classifier
	err        error
}

// ensure loads the models on first call and returns the cached result
// afterwards. Safe for concurrent first callers.
func (s *modelSet) ensure() (nlp.Embedder, nlp.Classifier, error) {
	s.once.Do(func() {
		s.embedder, s.classifier, s.err = s.loader()
		if s.err != nil {
			s.logger.Error("model load failed", "error", s.err)
			return
		}
		if s.degraded() {
			s.logger.Warn("running with fallback models; semantic quality reduced",
				"embedder", s.embedder.Provider(),
				"classifier", s.classifier.Provider())
		}
	})
	if s.err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrModelUnavailable, s.err)
	}
	return s.embedder, s.classifier, nil
}

// degraded reports whether an offline fallback provider is active.
func (s *modelSet) degraded() bool {
	if s.embedder == nil || s.classifier == nil {
		return true
	}
	return s.embedder.Provider() == "hash" || s.classifier.Provider() == "lexicon"
}

func defaultLoader(cfg *Config) ModelLoader {
	return func() (nlp.Embedder, nlp.Classifier, error) {
		cfg.mu.RLock()
		embedCfg := cfg.Embedding
		emotionCfg := cfg.Emotion
		cfg.mu.RUnlock()
		return nlp.NewEmbedder(embedCfg), nlp.NewClassifier(emotionCfg), nil
	}
}

func fixedLoader(e nlp.Embedder, c nlp.Classifier, fallback ModelLoader) ModelLoader {
	return func() (nlp.Embedder, nlp.Classifier, error) {
		fe, fc, err := fallback()
		if err != nil {
			return nil, nil, err
		}
		if e == nil {
			e = fe
		}
		if c == nil {
			c = fc
		}
		return e, c, nil
	}
}
