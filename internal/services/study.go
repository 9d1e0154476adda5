package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/lehmann314159/vocabtyper/internal/models"
	"github.com/lehmann314159/vocabtyper/internal/repository"
)

// ErrWordNotFound is returned when a word ID does not exist
var ErrWordNotFound = errors.New("word not found")

// StudyService selects study sessions and applies answer results
type StudyService struct {
	repo repository.WordRepository
	now  func() time.Time
}

// NewStudyService creates a new study service using the wall clock
func NewStudyService(repo repository.WordRepository) *StudyService {
	return NewStudyServiceWithClock(repo, time.Now)
}

// NewStudyServiceWithClock creates a new study service with a custom clock
func NewStudyServiceWithClock(repo repository.WordRepository, now func() time.Time) *StudyService {
	return &StudyService{
		repo: repo,
		now:  now,
	}
}

func (s *StudyService) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// GetStudySession returns up to limit words to study. Due words come first;
// the rest of the batch is filled with other words picked at random.
func (s *StudyService) GetStudySession(ctx context.Context, limit int) ([]*models.Word, error) {
	if limit <= 0 {
		return []*models.Word{}, nil
	}

	words, err := s.repo.FindDue(ctx, s.clock(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find due words: %w", err)
	}
	if len(words) >= limit {
		return words[:limit], nil
	}

	selected := lo.Map(words, func(w *models.Word, _ int) int64 { return w.ID })
	backfill, err := s.repo.FindExcluding(ctx, selected, limit-len(words))
	if err != nil {
		return nil, fmt.Errorf("failed to find backfill words: %w", err)
	}

	session := lo.UniqBy(append(words, backfill...), func(w *models.Word) int64 { return w.ID })
	if session == nil {
		session = []*models.Word{}
	}
	return session, nil
}

// UpdateProgress records one answer for a word and persists its new schedule
func (s *StudyService) UpdateProgress(ctx context.Context, wordID int64, isCorrect bool) (*models.Word, error) {
	word, err := s.repo.FindByID(ctx, wordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWordNotFound
		}
		return nil, err
	}

	if err := applyResult(word, isCorrect, s.clock()); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, word)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWordNotFound
		}
		return nil, err
	}
	return saved, nil
}

// SubmitResults applies each result independently and returns how many were applied.
// Results for unknown words are skipped. On a storage error the count applied so far
// is returned with the error.
func (s *StudyService) SubmitResults(ctx context.Context, results []models.StudyResult) (int, error) {
	updated := 0
	for _, result := range results {
		_, err := s.UpdateProgress(ctx, result.WordID, result.IsCorrect)
		if errors.Is(err, ErrWordNotFound) {
			continue
		}
		if err != nil {
			return updated, fmt.Errorf("failed to update word %d: %w", result.WordID, err)
		}
		updated++
	}
	return updated, nil
}

// GetStats returns word counts by status
func (s *StudyService) GetStats(ctx context.Context) (*models.Stats, error) {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		Total:    total,
		Mastered: counts[models.StatusMastered],
		Learning: counts[models.StatusLearning],
		New:      counts[models.StatusNew],
		Review:   counts[models.StatusReview],
	}, nil
}

// ImportWords inserts candidates in order, skipping any whose english text already exists
func (s *StudyService) ImportWords(ctx context.Context, candidates []models.WordCandidate) (*models.ImportResult, error) {
	result := &models.ImportResult{}

	for _, candidate := range candidates {
		existing, err := s.repo.FindByEnglish(ctx, candidate.English)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return result, fmt.Errorf("failed to check %q: %w", candidate.English, err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		if _, err := s.repo.Save(ctx, models.NewWord(candidate)); err != nil {
			if errors.Is(err, models.ErrDuplicateWord) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("failed to import %q: %w", candidate.English, err)
		}
		result.Imported++
	}

	return result, nil
}
