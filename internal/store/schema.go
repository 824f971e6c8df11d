package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS data_files (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    record_count         INTEGER NOT NULL,
    first_date           TEXT NOT NULL,
    last_date            TEXT NOT NULL,
    total_qty            REAL NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_qty (
    file_path            TEXT NOT NULL REFERENCES data_files(file_path) ON DELETE CASCADE,
    day                  TEXT NOT NULL,
    qty                  REAL NOT NULL,
    PRIMARY KEY (file_path, day)
);

CREATE INDEX IF NOT EXISTS idx_daily_qty_day ON daily_qty(day);
`
