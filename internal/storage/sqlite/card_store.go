package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// CardStore implements storage.CardStore using SQLite.
type CardStore struct {
	db *sql.DB
}

// Compile-time interface check.
var _ storage.CardStore = (*CardStore)(nil)

// NewCardStore opens a SQLite database, configures WAL mode, and creates the
// schema. The DSN is a file path or ":memory:".
func NewCardStore(dsn string) (*CardStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout so that callers wait instead of getting an immediate
	// SQLITE_BUSY error when the connection is held by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &CardStore{db: db}, nil
}

// CreateCard persists a new card.
func (s *CardStore) CreateCard(ctx context.Context, card *types.Card) error {
	if card == nil {
		return storage.ErrInvalidInput
	}
	if card.ID == "" {
		return fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}
	if card.Front == "" {
		return fmt.Errorf("%w: card front is required", storage.ErrInvalidInput)
	}

	tagsJSON, err := marshalTags(card.Tags)
	if err != nil {
		return err
	}

	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = card.CreatedAt
	}
	if card.Memory.NextReview.IsZero() {
		card.Memory.NextReview = card.CreatedAt
	}

	query := `
		INSERT INTO cards (
			id, front, back, source_id, tags,
			stability, difficulty, repetitions, lapses,
			interval_days, ease_factor, last_review, next_review,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		card.ID, card.Front, card.Back, card.SourceID, tagsJSON,
		card.Memory.Stability, card.Memory.Difficulty, card.Memory.Repetitions, card.Memory.Lapses,
		card.Memory.IntervalDays, card.Memory.LegacyEaseFactor, card.Memory.LastReview, card.Memory.NextReview,
		card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

// GetCard retrieves a card by ID.
func (s *CardStore) GetCard(ctx context.Context, id string) (*types.Card, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, selectCardColumns+" FROM cards WHERE id = ?", id)
	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// ListCards returns cards matching the options plus the total count.
func (s *CardStore) ListCards(ctx context.Context, opts storage.ListOptions) ([]*types.Card, int, error) {
	opts.Normalize()

	where := "WHERE 1=1"
	args := []interface{}{}

	if opts.SourceID != "" {
		where += " AND source_id = ?"
		args = append(args, opts.SourceID)
	}
	if opts.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		where += " AND tags LIKE ?"
		args = append(args, `%"`+opts.Tag+`"%`)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	// SortBy and SortOrder are whitelist-validated by Normalize.
	query := fmt.Sprintf("%s FROM cards %s ORDER BY %s %s LIMIT ? OFFSET ?",
		selectCardColumns, where, opts.SortBy, opts.SortOrder)
	args = append(args, opts.Limit, opts.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// UpdateCard replaces the stored card content and scheduling state.
func (s *CardStore) UpdateCard(ctx context.Context, card *types.Card) error {
	if card == nil || card.ID == "" {
		return fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	tagsJSON, err := marshalTags(card.Tags)
	if err != nil {
		return err
	}
	card.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE cards SET
			front = ?, back = ?, source_id = ?, tags = ?,
			stability = ?, difficulty = ?, repetitions = ?, lapses = ?,
			interval_days = ?, ease_factor = ?, last_review = ?, next_review = ?,
			updated_at = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		card.Front, card.Back, card.SourceID, tagsJSON,
		card.Memory.Stability, card.Memory.Difficulty, card.Memory.Repetitions, card.Memory.Lapses,
		card.Memory.IntervalDays, card.Memory.LegacyEaseFactor, card.Memory.LastReview, card.Memory.NextReview,
		card.UpdatedAt, card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return checkAffected(result)
}

// DeleteCard removes a card; its reviews go with it via ON DELETE CASCADE.
func (s *CardStore) DeleteCard(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return checkAffected(result)
}

// LoadDueCards returns up to limit cards due at or before now, most overdue first.
func (s *CardStore) LoadDueCards(ctx context.Context, limit int, now time.Time) ([]*types.Card, error) {
	if limit < 1 {
		limit = 20
	}

	query := selectCardColumns + ` FROM cards
		WHERE next_review <= ?
		ORDER BY next_review ASC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load due cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// SaveMemoryState persists updated scheduling state for a card.
func (s *CardStore) SaveMemoryState(ctx context.Context, cardID string, state types.MemoryState) error {
	if cardID == "" {
		return fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}

	query := `
		UPDATE cards SET
			stability = ?, difficulty = ?, repetitions = ?, lapses = ?,
			interval_days = ?, ease_factor = ?, last_review = ?, next_review = ?,
			updated_at = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		state.Stability, state.Difficulty, state.Repetitions, state.Lapses,
		state.IntervalDays, state.LegacyEaseFactor, state.LastReview, state.NextReview,
		time.Now().UTC(), cardID,
	)
	if err != nil {
		return fmt.Errorf("failed to save memory state: %w", err)
	}
	return checkAffected(result)
}

// AppendReview records a review log entry.
func (s *CardStore) AppendReview(ctx context.Context, review *types.Review) error {
	if review == nil || review.ID == "" || review.CardID == "" {
		return fmt.Errorf("%w: review ID and card ID are required", storage.ErrInvalidInput)
	}

	if review.ReviewedAt.IsZero() {
		review.ReviewedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reviews (id, card_id, rating, user_answer, evaluation, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.CardID, review.Rating, review.UserAnswer, review.Evaluation, review.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// ListReviews returns the review history for a card, most recent first.
func (s *CardStore) ListReviews(ctx context.Context, cardID string, limit int) ([]*types.Review, error) {
	if cardID == "" {
		return nil, fmt.Errorf("%w: card ID is required", storage.ErrInvalidInput)
	}
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, card_id, rating, user_answer, evaluation, reviewed_at
		FROM reviews
		WHERE card_id = ?
		ORDER BY reviewed_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, cardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*types.Review
	for rows.Next() {
		var r types.Review
		if err := rows.Scan(&r.ID, &r.CardID, &r.Rating, &r.UserAnswer, &r.Evaluation, &r.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

// CreateSource records an ingestion source.
func (s *CardStore) CreateSource(ctx context.Context, source *types.Source) error {
	if source == nil || source.ID == "" {
		return fmt.Errorf("%w: source ID is required", storage.ErrInvalidInput)
	}

	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sources (id, source_type, title, url, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		source.ID, string(source.Type), source.Title, source.URL, source.ContentHash, source.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}
	return nil
}

// GetSource retrieves a source by ID.
func (s *CardStore) GetSource(ctx context.Context, id string) (*types.Source, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: source ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT id, source_type, title, url, content_hash, created_at FROM sources WHERE id = ?", id)

	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

// ListSources returns all sources, most recent first.
func (s *CardStore) ListSources(ctx context.Context) ([]*types.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source_type, title, url, content_hash, created_at FROM sources ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*types.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Stats returns collection-level statistics.
func (s *CardStore) Stats(ctx context.Context, now time.Time) (*storage.Stats, error) {
	stats := &storage.Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&stats.TotalCards); err != nil {
		return nil, fmt.Errorf("failed to count cards: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards WHERE next_review <= ?", now).Scan(&stats.DueCards); err != nil {
		return nil, fmt.Errorf("failed to count due cards: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&stats.TotalReviews); err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sources").Scan(&stats.TotalSources); err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		"SELECT AVG(stability) FROM cards WHERE repetitions > 0").Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to compute average stability: %w", err)
	}
	if avg.Valid {
		stats.AverageStability = avg.Float64
	}

	return stats, nil
}

// Close releases the underlying database resources.
func (s *CardStore) Close() error {
	return s.db.Close()
}

const selectCardColumns = `SELECT
	id, front, back, source_id, tags,
	stability, difficulty, repetitions, lapses,
	interval_days, ease_factor, last_review, next_review,
	created_at, updated_at`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(row rowScanner) (*types.Card, error) {
	var (
		card     types.Card
		tagsJSON sql.NullString
	)

	err := row.Scan(
		&card.ID, &card.Front, &card.Back, &card.SourceID, &tagsJSON,
		&card.Memory.Stability, &card.Memory.Difficulty, &card.Memory.Repetitions, &card.Memory.Lapses,
		&card.Memory.IntervalDays, &card.Memory.LegacyEaseFactor, &card.Memory.LastReview, &card.Memory.NextReview,
		&card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &card.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &card, nil
}

func scanCards(rows *sql.Rows) ([]*types.Card, error) {
	var cards []*types.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func scanSource(row rowScanner) (*types.Source, error) {
	var (
		src      types.Source
		typeName string
	)
	if err := row.Scan(&src.ID, &typeName, &src.Title, &src.URL, &src.ContentHash, &src.CreatedAt); err != nil {
		return nil, err
	}
	src.Type = types.ParseSourceType(typeName)
	return &src, nil
}

func marshalTags(tags []string) (interface{}, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
