package memlog

import (
	"os"
	"sync"
	"time"

	"memlogger/nlp"
)

type StorageConfig struct {
	Dialect string
}

type Config struct {
	mu sync.RWMutex

	Embedding nlp.Config
	Emotion   nlp.ClassifierConfig
	Storage   StorageConfig

	Timeout     time.Duration
	SearchLimit int
}

func newConfig() *Config {
	c := &Config{
		Embedding: nlp.Config{
			Provider: os.Getenv("MEMLOG_EMBEDDING_PROVIDER"),
			APIKey:   os.Getenv("MEMLOG_EMBEDDING_API_KEY"),
			BaseURL:  os.Getenv("MEMLOG_EMBEDDING_BASE_URL"),
			Model:    os.Getenv("MEMLOG_EMBEDDING_MODEL"),
		},
		Emotion: nlp.ClassifierConfig{
			Provider: os.Getenv("MEMLOG_EMOTION_PROVIDER"),
			APIKey:   os.Getenv("MEMLOG_EMOTION_API_KEY"),
			BaseURL:  os.Getenv("MEMLOG_EMOTION_BASE_URL"),
			Model:    os.Getenv("MEMLOG_EMOTION_MODEL"),
		},
		Timeout:     10 * time.Second,
		SearchLimit: 5,
	}
	return c
}
