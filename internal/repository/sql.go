package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

const wordColumns = `id, english, japanese_view, japanese_romaji, status, next_review_at, "interval", mistake_count, created_at, updated_at`

// pgUniqueViolation is the postgres SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// SQLRepository implements WordRepository on top of sqlx.
// Queries are written with ? placeholders and rebound for the driver in use.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// wordRow is the storage shape of a word
type wordRow struct {
	ID             int64        `db:"id"`
	English        string       `db:"english"`
	JapaneseView   string       `db:"japanese_view"`
	JapaneseRomaji string       `db:"japanese_romaji"`
	Status         string       `db:"status"`
	NextReviewAt   sql.NullTime `db:"next_review_at"`
	Interval       int          `db:"interval"`
	MistakeCount   int          `db:"mistake_count"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

func (row wordRow) toModel() (*models.Word, error) {
	status, err := models.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("word %d: %w", row.ID, err)
	}

	word := &models.Word{
		ID:             row.ID,
		English:        row.English,
		JapaneseView:   row.JapaneseView,
		JapaneseRomaji: row.JapaneseRomaji,
		Status:         status,
		Interval:       row.Interval,
		MistakeCount:   row.MistakeCount,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	if row.NextReviewAt.Valid {
		next := row.NextReviewAt.Time.UTC()
		word.NextReviewAt = &next
	}
	return word, nil
}

// FindDue returns words that are new, never scheduled, or due at now
func (r *SQLRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*models.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words
		WHERE status = ? OR next_review_at IS NULL OR next_review_at <= ?
		ORDER BY CASE WHEN status = ? THEN 0 ELSE 1 END,
			CASE WHEN next_review_at IS NULL THEN 0 ELSE 1 END,
			next_review_at ASC,
			id ASC
		LIMIT ?`

	return r.selectWords(ctx, query, models.StatusNew, now.UTC(), models.StatusNew, limit)
}

// FindExcluding returns up to limit random words whose IDs are not in ids
func (r *SQLRepository) FindExcluding(ctx context.Context, ids []int64, limit int) ([]*models.Word, error) {
	if len(ids) == 0 {
		return r.selectWords(ctx, `SELECT `+wordColumns+` FROM words ORDER BY RANDOM() LIMIT ?`, limit)
	}

	query, args, err := sqlx.In(`SELECT `+wordColumns+` FROM words WHERE id NOT IN (?) ORDER BY RANDOM() LIMIT ?`, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to expand excluded ids: %w", err)
	}
	return r.selectWords(ctx, query, args...)
}

// FindByID retrieves a word by its ID
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*models.Word, error) {
	return r.getWord(ctx, `SELECT `+wordColumns+` FROM words WHERE id = ?`, id)
}

// FindByEnglish retrieves a word by its english text
func (r *SQLRepository) FindByEnglish(ctx context.Context, english string) (*models.Word, error) {
	return r.getWord(ctx, `SELECT `+wordColumns+` FROM words WHERE english = ?`, english)
}

// Save inserts a word without an ID or updates an existing one
func (r *SQLRepository) Save(ctx context.Context, word *models.Word) (*models.Word, error) {
	if word.ID == 0 {
		return r.insert(ctx, word)
	}
	return r.update(ctx, word)
}

func (r *SQLRepository) insert(ctx context.Context, word *models.Word) (*models.Word, error) {
	now := time.Now().UTC()
	if word.CreatedAt.IsZero() {
		word.CreatedAt = now
	}
	if word.Status == "" {
		word.Status = models.StatusNew
	}

	query := r.db.Rebind(`INSERT INTO words
		(english, japanese_view, japanese_romaji, status, next_review_at, "interval", mistake_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		word.English, word.JapaneseView, word.JapaneseRomaji, string(word.Status), nullTime(word.NextReviewAt),
		word.Interval, word.MistakeCount, word.CreatedAt, now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateWord, word.English)
		}
		return nil, fmt.Errorf("failed to insert word: %w", err)
	}

	word.ID = id
	word.UpdatedAt = now
	return word, nil
}

func (r *SQLRepository) update(ctx context.Context, word *models.Word) (*models.Word, error) {
	now := time.Now().UTC()
	query := r.db.Rebind(`UPDATE words SET english = ?, japanese_view = ?, japanese_romaji = ?, status = ?,
		next_review_at = ?, "interval" = ?, mistake_count = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		word.English, word.JapaneseView, word.JapaneseRomaji, string(word.Status), nullTime(word.NextReviewAt),
		word.Interval, word.MistakeCount, now, word.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateWord, word.English)
		}
		return nil, fmt.Errorf("failed to update word: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, sql.ErrNoRows
	}

	word.UpdatedAt = now
	return word, nil
}

// List retrieves words ordered by ID
func (r *SQLRepository) List(ctx context.Context, filter models.WordFilter) ([]*models.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words ORDER BY id ASC`
	var args []interface{}

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Skip > 0 && r.db.DriverName() == "sqlite3":
		// SQLite only accepts OFFSET after a LIMIT clause
		query += " LIMIT -1"
	}
	if filter.Skip > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Skip)
	}

	return r.selectWords(ctx, query, args...)
}

// CountByStatus returns the number of words per status
func (r *SQLRepository) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM words GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count words by status: %w", err)
	}

	counts := make(map[models.Status]int64, len(models.Statuses))
	for _, row := range rows {
		status, err := models.ParseStatus(row.Status)
		if err != nil {
			return nil, err
		}
		counts[status] = row.Count
	}
	return counts, nil
}

// CountAll returns the total number of words
func (r *SQLRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM words`); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// getWord scans a single row into a Word, passing sql.ErrNoRows through unwrapped
func (r *SQLRepository) getWord(ctx context.Context, query string, args ...interface{}) (*models.Word, error) {
	var row wordRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return row.toModel()
}

func (r *SQLRepository) selectWords(ctx context.Context, query string, args ...interface{}) ([]*models.Word, error) {
	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}

	words := make([]*models.Word, 0, len(rows))
	for _, row := range rows {
		word, err := row.toModel()
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}
	return words, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}
