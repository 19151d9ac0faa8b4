package cache

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	path TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	output TEXT NOT NULL,
	exported_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
	name TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	exported_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
