package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// schemaVersionDDL is applied before any migration so the version query
// works on a fresh database of either dialect.
const schemaVersionDDL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);`

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// The SQL is restricted to the subset shared by SQLite and PostgreSQL.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	user_name      TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	otp            TEXT,
	otp_expires_at TIMESTAMP,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS todos (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	created_by TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS sub_todos (
	id         TEXT PRIMARY KEY,
	todo_id    TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	created_by TEXT NOT NULL,
	position   INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS collaborators (
	todo_id    TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
	email      TEXT NOT NULL,
	user_id    TEXT,
	permission TEXT NOT NULL DEFAULT 'write' CHECK(permission IN ('read', 'write')),
	status     TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'accepted')),
	position   INTEGER NOT NULL,
	PRIMARY KEY (todo_id, email)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_todos_created_by ON todos(created_by);
CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos(created_at);
CREATE INDEX IF NOT EXISTS idx_sub_todos_todo_id ON sub_todos(todo_id, position);
CREATE INDEX IF NOT EXISTS idx_collaborators_user_id ON collaborators(user_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
