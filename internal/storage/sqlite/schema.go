// Package sqlite provides the SQLite implementation of storage.CardStore.
package sqlite

// Schema contains the SQL statements to create the database schema for SQLite.
// Scheduling state is denormalised into the cards table so that loading a due
// queue is a single indexed scan.
const Schema = `
-- Cards table: flashcard content plus embedded scheduling state
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    source_id TEXT,

    -- Tags (JSON array)
    tags TEXT,

    -- Scheduling state
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 5.0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    interval_days INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    last_review TIMESTAMP,
    next_review TIMESTAMP NOT NULL,

    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,

    FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(next_review);
CREATE INDEX IF NOT EXISTS idx_cards_source ON cards(source_id);

-- Reviews table: append-only review log
CREATE TABLE IF NOT EXISTS reviews (
    id TEXT PRIMARY KEY,
    card_id TEXT NOT NULL,
    rating INTEGER NOT NULL,
    user_answer TEXT,
    evaluation TEXT,
    reviewed_at TIMESTAMP NOT NULL,

    FOREIGN KEY (card_id) REFERENCES cards(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_reviews_card ON reviews(card_id, reviewed_at DESC);

-- Sources table: provenance for ingested content
CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    source_type TEXT NOT NULL,
    title TEXT,
    url TEXT,
    content_hash TEXT,
    created_at TIMESTAMP NOT NULL
);
`
