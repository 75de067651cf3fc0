package content

const schemaVersion = 1

const createContentItems = `
CREATE TABLE IF NOT EXISTS content_items (
    article_id      TEXT NOT NULL,
    language        TEXT NOT NULL,
    category        TEXT,
    stage           TEXT NOT NULL,
    title           TEXT,
    body            TEXT,
    audio_path      TEXT,
    streaming_urls  TEXT,
    metadata_url    TEXT,
    social_hook     TEXT,
    review_decision TEXT,
    review_score    REAL,
    reviewer        TEXT,
    reviewed_at     TEXT,
    review_comments TEXT,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL,
    PRIMARY KEY (article_id, language)
)`

const createStageAttempts = `
CREATE TABLE IF NOT EXISTS stage_attempts (
    article_id   TEXT NOT NULL,
    language     TEXT NOT NULL,
    stage        TEXT NOT NULL,
    success      INTEGER NOT NULL,
    error_kind   TEXT,
    error_detail TEXT,
    attempted_at TEXT NOT NULL,
    PRIMARY KEY (article_id, language, stage)
)`

const createStageIndex = `
CREATE INDEX IF NOT EXISTS idx_content_items_stage
    ON content_items (language, stage, created_at)`
