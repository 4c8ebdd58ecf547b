package sqlite

import "database/sql"

// schema sets up the database. It runs on startup to ensure tables exist.
// Monetary columns are TEXT so decimals round-trip exactly.
// Trips must be created BEFORE the tables that reference them.
const schema = `
CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    base_currency TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('user', 'guest', 'group')),
    display_name TEXT NOT NULL,
    email TEXT,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (id, kind),
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_members (
    participant_id TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'group',
    name TEXT NOT NULL,
    PRIMARY KEY (participant_id, name),
    FOREIGN KEY (participant_id, kind) REFERENCES participants(id, kind) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    exchange_rate_to_base TEXT NOT NULL,
    paid_by_id TEXT NOT NULL,
    paid_by_kind TEXT NOT NULL,
    split_mode TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE,
    FOREIGN KEY (paid_by_id, paid_by_kind) REFERENCES participants(id, kind)
);

CREATE TABLE IF NOT EXISTS expense_splits (
    expense_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    participant_kind TEXT NOT NULL,
    amount TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (expense_id, participant_id, participant_kind),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE,
    FOREIGN KEY (participant_id, participant_kind) REFERENCES participants(id, kind)
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL,
    from_id TEXT NOT NULL,
    from_kind TEXT NOT NULL,
    to_id TEXT NOT NULL,
    to_kind TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    exchange_rate_to_base TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    note TEXT,
    FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE,
    FOREIGN KEY (from_id, from_kind) REFERENCES participants(id, kind),
    FOREIGN KEY (to_id, to_kind) REFERENCES participants(id, kind)
);

CREATE INDEX IF NOT EXISTS idx_participants_trip_id ON participants(trip_id);
CREATE INDEX IF NOT EXISTS idx_expenses_trip_id ON expenses(trip_id);
CREATE INDEX IF NOT EXISTS idx_expense_splits_expense_id ON expense_splits(expense_id);
CREATE INDEX IF NOT EXISTS idx_settlements_trip_id ON settlements(trip_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
