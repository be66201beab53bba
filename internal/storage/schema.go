package storage

// schemaStatements is valid for both SQLite and PostgreSQL and safe to run
// on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS comics (
		num        INTEGER PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		safe_title TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL DEFAULT '',
		alt        TEXT NOT NULL DEFAULT '',
		img        TEXT NOT NULL DEFAULT '',
		link       TEXT NOT NULL DEFAULT '',
		news       TEXT NOT NULL DEFAULT '',
		year       TEXT NOT NULL DEFAULT '',
		month      TEXT NOT NULL DEFAULT '',
		day        TEXT NOT NULL DEFAULT '',
		CHECK (num > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS postings (
		comic_num INTEGER NOT NULL REFERENCES comics (num),
		term      TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		PRIMARY KEY (comic_num, term),
		CHECK (length(term) > 0),
		CHECK (frequency > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS postings_term_idx ON postings (term)`,
}
