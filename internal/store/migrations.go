package store

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

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT NOT NULL,
	kind           TEXT NOT NULL,
	read           INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL,
	job_id         TEXT NOT NULL DEFAULT '',
	job_title      TEXT NOT NULL DEFAULT '',
	message        TEXT NOT NULL DEFAULT '',
	application_id TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS test_locks (
	application_id TEXT PRIMARY KEY,
	expires_at     DATETIME NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS email_alerts (
	id          TEXT PRIMARY KEY,
	message_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL DEFAULT '',
	link        TEXT NOT NULL DEFAULT '',
	read        INTEGER NOT NULL DEFAULT 0,
	received_at DATETIME NOT NULL,
	UNIQUE (message_id, link, title)
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_email_alerts_read ON email_alerts(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS saved_jobs (
	job_id     TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	company    TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	salary_min INTEGER NOT NULL DEFAULT 0,
	salary_max INTEGER NOT NULL DEFAULT 0,
	posted_at  DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_email_alerts_received
	ON email_alerts(received_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
