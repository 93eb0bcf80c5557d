package store

// Schema defines the DuckDB tables for run history.
const Schema = `
-- One row per mdsum run or retry pass
CREATE TABLE IF NOT EXISTS runs (
    id VARCHAR PRIMARY KEY,
    parent_id VARCHAR,
    root VARCHAR NOT NULL,
    provider VARCHAR NOT NULL,
    model VARCHAR NOT NULL,
    summary_length INTEGER NOT NULL,
    summary_key VARCHAR NOT NULL DEFAULT 'articleGPT',
    mark_shown BOOLEAN DEFAULT TRUE,
    strip_markdown BOOLEAN DEFAULT FALSE,
    max_input_chars INTEGER DEFAULT 0,
    git_head VARCHAR,
    dry_run BOOLEAN DEFAULT FALSE,
    total INTEGER DEFAULT 0,
    succeeded INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    unchanged INTEGER DEFAULT 0,
    canceled BOOLEAN DEFAULT FALSE,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

-- Latest outcome of every job in a run
CREATE TABLE IF NOT EXISTS jobs (
    id VARCHAR PRIMARY KEY,
    run_id VARCHAR NOT NULL,
    path VARCHAR NOT NULL,
    rel_path VARCHAR NOT NULL,
    summary_length INTEGER NOT NULL,
    attempts INTEGER DEFAULT 0,
    status VARCHAR NOT NULL,
    summary VARCHAR,
    error VARCHAR,
    transient BOOLEAN DEFAULT FALSE,
    skipped BOOLEAN DEFAULT FALSE,
    started_at TIMESTAMP,
    finished_at TIMESTAMP
);

-- jobs carries no secondary index: DuckDB rejects ON CONFLICT updates to indexed columns
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
