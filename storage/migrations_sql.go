package storage

var sqliteMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS memlog_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memlog_memory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uuid TEXT NOT NULL UNIQUE,
			owner_id TEXT NOT NULL,
			content TEXT NOT NULL,
			emotion_label TEXT NOT NULL DEFAULT 'unknown',
			embedding BLOB,
			date_created TIMESTAMP NOT NULL,
			date_updated TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memlog_memory_owner
			ON memlog_memory (owner_id, id)`,
	},
}

var postgresMigrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS memlog_schema_version (
			num INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memlog_memory (
			id BIGSERIAL PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			owner_id TEXT NOT NULL,
			content TEXT NOT NULL,
			emotion_label TEXT NOT NULL DEFAULT 'unknown',
			embedding BYTEA,
			date_created TIMESTAMPTZ NOT NULL,
			date_updated TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memlog_memory_owner
			ON memlog_memory (owner_id, id)`,
	},
}
