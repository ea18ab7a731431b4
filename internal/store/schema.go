package store

// expires_at is unix milliseconds; NULL never expires.
const Schema = `
CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	data BLOB,
	expires_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache(expires_at);
`
