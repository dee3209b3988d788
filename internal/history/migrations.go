package history

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transitions (
	id          TEXT PRIMARY KEY,
	task_id     TEXT NOT NULL,
	request_id  TEXT NOT NULL DEFAULT '',
	client_name TEXT NOT NULL DEFAULT '',
	waste_type  TEXT NOT NULL DEFAULT '',
	transition  TEXT NOT NULL,
	weight_kg   REAL NOT NULL DEFAULT 0,
	photo_url   TEXT NOT NULL DEFAULT '',
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transitions_task_id ON transitions(task_id);
CREATE INDEX IF NOT EXISTS idx_transitions_recorded_at ON transitions(recorded_at);
`,
	},
}
