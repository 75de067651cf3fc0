package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"briefcast/internal/config"
)

// Store manages content persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the content database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const itemColumns = "article_id, language, category, stage, title, body, audio_path, streaming_urls, metadata_url, social_hook, review_decision, review_score, reviewer, reviewed_at, review_comments, created_at, updated_at"

// Create inserts a new content record. Fails if the (id, language) pair
// already exists.
func (s *Store) Create(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if item.ID == "" || item.Language == "" {
		return errors.New("item id and language are required")
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Stage == "" {
		item.Stage = StageReviewed
	}
	if item.Review.Decision == "" {
		item.Review.Decision = ReviewPending
	}

	urls, err := marshalURLs(item.StreamingURLs)
	if err != nil {
		return err
	}

	query, args, err := builder.
		Insert("content_items").
		Columns(
			"article_id", "language", "category", "stage", "title", "body",
			"audio_path", "streaming_urls", "metadata_url", "social_hook",
			"review_decision", "review_score", "reviewer", "reviewed_at",
			"review_comments", "created_at", "updated_at",
		).
		Values(
			item.ID, item.Language, nullable(item.Category), string(item.Stage),
			nullable(item.Title), nullable(item.Body), nullable(item.AudioPath),
			urls, nullable(item.MetadataURL), nullable(item.SocialHook),
			string(item.Review.Decision), item.Review.Score,
			nullable(item.Review.Reviewer), nullableTime(item.Review.Timestamp),
			nullable(item.Review.Comments),
			now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

// Get fetches one record by (id, language). Returns nil when absent.
func (s *Store) Get(ctx context.Context, id, language string) (*Item, error) {
	query, args, err := builder.
		Select(itemColumns).
		From("content_items").
		Where(sq.Eq{"article_id": id, "language": language}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing record.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()

	urls, err := marshalURLs(item.StreamingURLs)
	if err != nil {
		return err
	}

	query, args, err := builder.
		Update("content_items").
		Set("category", nullable(item.Category)).
		Set("stage", string(item.Stage)).
		Set("title", nullable(item.Title)).
		Set("body", nullable(item.Body)).
		Set("audio_path", nullable(item.AudioPath)).
		Set("streaming_urls", urls).
		Set("metadata_url", nullable(item.MetadataURL)).
		Set("social_hook", nullable(item.SocialHook)).
		Set("review_decision", string(item.Review.Decision)).
		Set("review_score", item.Review.Score).
		Set("reviewer", nullable(item.Review.Reviewer)).
		Set("reviewed_at", nullableTime(item.Review.Timestamp)).
		Set("review_comments", nullable(item.Review.Comments)).
		Set("updated_at", item.UpdatedAt.Format(time.RFC3339Nano)).
		Where(sq.Eq{"article_id": item.ID, "language": item.Language}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update content item: %w", err)
	}
	return nil
}

// Upsert inserts a language variant or updates it when it already exists.
// Used by the translation stage to write target-language rows.
func (s *Store) Upsert(ctx context.Context, item *Item) error {
	existing, err := s.Get(ctx, item.ID, item.Language)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.Create(ctx, item)
	}
	item.CreatedAt = existing.CreatedAt
	return s.Update(ctx, item)
}

// AdvanceStage moves the canonical stage from -> to with an optimistic
// check: the write only lands when the row is still at the expected stage.
// Returns false when another worker got there first.
func (s *Store) AdvanceStage(ctx context.Context, id, language string, from, to Stage) (bool, error) {
	query, args, err := builder.
		Update("content_items").
		Set("stage", string(to)).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339Nano)).
		Where(sq.Eq{"article_id": id, "language": language, "stage": string(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build stage advance: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("advance stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ItemsAtStage returns records in the given language whose stage matches any
// of the provided values, oldest first.
func (s *Store) ItemsAtStage(ctx context.Context, language string, stages ...Stage) ([]*Item, error) {
	values := make([]string, 0, len(stages))
	for _, stage := range stages {
		values = append(values, string(stage))
	}
	query, args, err := builder.
		Select(itemColumns).
		From("content_items").
		Where(sq.Eq{"language": language, "stage": values}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stage query: %w", err)
	}
	return s.queryItems(ctx, query, args...)
}

// Variants returns every language record for one article.
func (s *Store) Variants(ctx context.Context, id string) ([]*Item, error) {
	query, args, err := builder.
		Select(itemColumns).
		From("content_items").
		Where(sq.Eq{"article_id": id}).
		OrderBy("language").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build variants query: %w", err)
	}
	return s.queryItems(ctx, query, args...)
}

// ListFilter narrows List output. Zero values mean no filtering.
type ListFilter struct {
	Language string
	Stage    Stage
	Category string
}

// List returns records matching the filter, oldest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Item, error) {
	q := builder.Select(itemColumns).From("content_items").OrderBy("created_at", "article_id", "language")
	if filter.Language != "" {
		q = q.Where(sq.Eq{"language": filter.Language})
	}
	if filter.Stage != "" {
		q = q.Where(sq.Eq{"stage": string(filter.Stage)})
	}
	if filter.Category != "" {
		q = q.Where(sq.Eq{"category": filter.Category})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	return s.queryItems(ctx, query, args...)
}

// StageStats counts records in the given language per canonical stage.
func (s *Store) StageStats(ctx context.Context, language string) (StageCounts, error) {
	query, args, err := builder.
		Select("stage", "COUNT(1)").
		From("content_items").
		Where(sq.Eq{"language": language}).
		GroupBy("stage").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stage stats: %w", err)
	}
	defer rows.Close()

	counts := make(StageCounts)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		counts[Stage(stage)] = count
	}
	return counts, rows.Err()
}

// RecordAttempt stores the latest outcome of one (article, language, stage)
// run, replacing any earlier record for the same key.
func (s *Store) RecordAttempt(ctx context.Context, attempt Attempt) error {
	if attempt.ArticleID == "" || attempt.Language == "" || attempt.Stage == "" {
		return errors.New("attempt key fields are required")
	}
	at := attempt.AttemptedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_attempts (article_id, language, stage, success, error_kind, error_detail, attempted_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (article_id, language, stage) DO UPDATE SET
             success = excluded.success,
             error_kind = excluded.error_kind,
             error_detail = excluded.error_detail,
             attempted_at = excluded.attempted_at`,
		attempt.ArticleID,
		attempt.Language,
		string(attempt.Stage),
		boolToInt(attempt.Success),
		nullable(attempt.ErrorKind),
		nullable(attempt.ErrorDetail),
		at.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// ClearFailedAttempts removes failed attempt records for one article and
// stage so the next scheduling pass re-runs those languages immediately.
// Successful attempts are kept; the executor skips them.
func (s *Store) ClearFailedAttempts(ctx context.Context, id string, stage Stage) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM stage_attempts WHERE article_id = ? AND stage = ? AND success = 0`,
		id, string(stage),
	)
	if err != nil {
		return 0, fmt.Errorf("clear failed attempts: %w", err)
	}
	return res.RowsAffected()
}

// Attempts returns the last-known outcome per language for one article and
// stage.
func (s *Store) Attempts(ctx context.Context, id string, stage Stage) (map[string]Attempt, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT article_id, language, stage, success, error_kind, error_detail, attempted_at
         FROM stage_attempts WHERE article_id = ? AND stage = ?`,
		id, string(stage),
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make(map[string]Attempt)
	for rows.Next() {
		var (
			attempt Attempt
			stage   string
			success int
			kind    sql.NullString
			detail  sql.NullString
			atRaw   string
		)
		if err := rows.Scan(&attempt.ArticleID, &attempt.Language, &stage, &success, &kind, &detail, &atRaw); err != nil {
			return nil, err
		}
		attempt.Stage = Stage(stage)
		attempt.Success = success != 0
		attempt.ErrorKind = kind.String
		attempt.ErrorDetail = detail.String
		if at, err := parseTimeString(atRaw); err == nil {
			attempt.AttemptedAt = at
		}
		attempts[attempt.Language] = attempt
	}
	return attempts, rows.Err()
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id             string
		language       string
		category       sql.NullString
		stageStr       string
		title          sql.NullString
		body           sql.NullString
		audioPath      sql.NullString
		streamingURLs  sql.NullString
		metadataURL    sql.NullString
		socialHook     sql.NullString
		reviewDecision sql.NullString
		reviewScore    sql.NullFloat64
		reviewer       sql.NullString
		reviewedAtRaw  sql.NullString
		reviewComments sql.NullString
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id, &language, &category, &stageStr, &title, &body,
		&audioPath, &streamingURLs, &metadataURL, &socialHook,
		&reviewDecision, &reviewScore, &reviewer, &reviewedAtRaw,
		&reviewComments, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:          id,
		Language:    language,
		Category:    category.String,
		Stage:       Stage(stageStr),
		Title:       title.String,
		Body:        body.String,
		AudioPath:   audioPath.String,
		MetadataURL: metadataURL.String,
		SocialHook:  socialHook.String,
		Review: Review{
			Decision: ReviewDecision(reviewDecision.String),
			Score:    reviewScore.Float64,
			Reviewer: reviewer.String,
			Comments: reviewComments.String,
		},
	}
	if streamingURLs.Valid && streamingURLs.String != "" {
		var urls StreamingURLs
		if err := json.Unmarshal([]byte(streamingURLs.String), &urls); err != nil {
			return nil, fmt.Errorf("decode streaming urls: %w", err)
		}
		item.StreamingURLs = &urls
	}
	if reviewedAtRaw.Valid {
		if at, err := parseTimeString(reviewedAtRaw.String); err == nil {
			item.Review.Timestamp = &at
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func marshalURLs(urls *StreamingURLs) (any, error) {
	if urls == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("encode streaming urls: %w", err)
	}
	return string(encoded), nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
