package repository

import (
	"context"
	"time"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

// WordRepository defines the interface for word persistence operations.
// Lookups that match nothing return sql.ErrNoRows.
type WordRepository interface {
	// FindDue returns words that are new, never scheduled, or due at now,
	// new words first and then by next review time with unscheduled words earliest
	FindDue(ctx context.Context, now time.Time, limit int) ([]*models.Word, error)

	// FindExcluding returns up to limit random words whose IDs are not in ids
	FindExcluding(ctx context.Context, ids []int64, limit int) ([]*models.Word, error)

	// FindByID retrieves a word by its ID
	FindByID(ctx context.Context, id int64) (*models.Word, error)

	// FindByEnglish retrieves a word by its english text
	FindByEnglish(ctx context.Context, english string) (*models.Word, error)

	// Save inserts a word without an ID or updates an existing one.
	// Inserting an english value that already exists returns models.ErrDuplicateWord.
	Save(ctx context.Context, word *models.Word) (*models.Word, error)

	// List retrieves words ordered by ID
	List(ctx context.Context, filter models.WordFilter) ([]*models.Word, error)

	// CountByStatus returns the number of words per status
	CountByStatus(ctx context.Context) (map[models.Status]int64, error)

	// CountAll returns the total number of words
	CountAll(ctx context.Context) (int64, error)
}
