package services

import (
	"fmt"
	"time"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

// Scheduling constants
const (
	reviewThresholdDays   = 7
	masteredThresholdDays = 21
	resetIntervalDays     = 1
	retryDelay            = 10 * time.Minute

	// maxIntervalDays bounds the doubling so interval never overflows
	maxIntervalDays = 36500
)

// applyResult updates the scheduling fields of word for one answer given at now
func applyResult(word *models.Word, isCorrect bool, now time.Time) error {
	switch word.Status {
	case models.StatusNew, models.StatusLearning, models.StatusReview, models.StatusMastered:
	default:
		return fmt.Errorf("word %d has unknown status %q", word.ID, word.Status)
	}

	if !isCorrect {
		next := now.Add(retryDelay)
		word.Interval = resetIntervalDays
		word.NextReviewAt = &next
		word.Status = models.StatusLearning
		word.MistakeCount++
		return nil
	}

	interval := nextInterval(word.Interval)
	next := now.AddDate(0, 0, interval)
	word.Interval = interval
	word.NextReviewAt = &next
	word.Status = statusForInterval(interval)
	return nil
}

// nextInterval doubles the interval and adds a day
func nextInterval(current int) int {
	if current < 0 {
		current = 0
	}
	if current >= (maxIntervalDays-1)/2 {
		return maxIntervalDays
	}
	return current*2 + 1
}

func statusForInterval(days int) models.Status {
	switch {
	case days >= masteredThresholdDays:
		return models.StatusMastered
	case days >= reviewThresholdDays:
		return models.StatusReview
	default:
		return models.StatusLearning
	}
}
