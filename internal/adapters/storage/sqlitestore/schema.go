package sqlitestore

// schema is applied on every Open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS players (
    id           TEXT PRIMARY KEY,
    username     TEXT NOT NULL UNIQUE,
    email        TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,
    last_active  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS game_sessions (
    id                TEXT PRIMARY KEY,
    player_id         TEXT NOT NULL,
    score             INTEGER NOT NULL,
    snake_length      INTEGER NOT NULL,
    duration_seconds  INTEGER NOT NULL,
    food_eaten        INTEGER NOT NULL,
    speed_boosts_used INTEGER NOT NULL,
    end_reason        TEXT NOT NULL,
    recorded_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_sessions_player_time
    ON game_sessions (player_id, recorded_at DESC);

CREATE TABLE IF NOT EXISTS game_statistics (
    player_id               TEXT PRIMARY KEY,
    total_games             INTEGER NOT NULL DEFAULT 0,
    total_score             INTEGER NOT NULL DEFAULT 0,
    average_score           REAL    NOT NULL DEFAULT 0,
    highest_score           INTEGER NOT NULL DEFAULT 0,
    longest_snake           INTEGER NOT NULL DEFAULT 3,
    total_food_eaten        INTEGER NOT NULL DEFAULT 0,
    total_play_time_seconds INTEGER NOT NULL DEFAULT 0,
    speed_boosts_used       INTEGER NOT NULL DEFAULT 0,
    last_updated            INTEGER NOT NULL,
    version                 INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS leaderboard (
    player_id    TEXT PRIMARY KEY,
    username     TEXT NOT NULL,
    score        INTEGER NOT NULL,
    snake_length INTEGER NOT NULL,
    achieved_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leaderboard_order
    ON leaderboard (score DESC, achieved_at ASC);

CREATE TABLE IF NOT EXISTS game_states (
    id        TEXT PRIMARY KEY,
    player_id TEXT NOT NULL,
    snapshot  TEXT NOT NULL,
    saved_at  INTEGER NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_game_states_player_active
    ON game_states (player_id, is_active, saved_at DESC);

CREATE TABLE IF NOT EXISTS game_imports (
    id          TEXT PRIMARY KEY,
    player_id   TEXT NOT NULL,
    payload     TEXT NOT NULL,
    imported_at INTEGER NOT NULL
);
`
