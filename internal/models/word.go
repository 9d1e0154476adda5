package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateWord is returned when a word with the same english text already exists
var ErrDuplicateWord = errors.New("word already exists")

// Status is the learning state of a word
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
	StatusMastered Status = "mastered"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusNew, StatusLearning, StatusReview, StatusMastered}

// ParseStatus converts a stored value into a Status
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusLearning, StatusReview, StatusMastered:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Word represents a vocabulary word and its study progress
type Word struct {
	ID             int64      `json:"id"`
	English        string     `json:"english"`
	JapaneseView   string     `json:"japanese_view"`
	JapaneseRomaji string     `json:"japanese_romaji"`
	Status         Status     `json:"status"`
	NextReviewAt   *time.Time `json:"next_review_at"`
	Interval       int        `json:"interval"` // days until the next review
	MistakeCount   int        `json:"mistake_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewWord builds an unsaved word in its initial state
func NewWord(c WordCandidate) *Word {
	return &Word{
		English:        c.English,
		JapaneseView:   c.JapaneseView,
		JapaneseRomaji: c.JapaneseRomaji,
		Status:         StatusNew,
	}
}

// WordCandidate is a word waiting to be created or imported
type WordCandidate struct {
	English        string `json:"english"`
	JapaneseView   string `json:"japanese_view"`
	JapaneseRomaji string `json:"japanese_romaji"`
}

// CreateWordRequest represents the request body for creating a word
type CreateWordRequest struct {
	English        string `json:"english"`
	JapaneseView   string `json:"japanese_view"`
	JapaneseRomaji string `json:"japanese_romaji,omitempty"`
}

// WordFilter represents query parameters for listing words
type WordFilter struct {
	Skip  int
	Limit int
}

// StudyResult is the outcome of answering one word
type StudyResult struct {
	WordID    int64 `json:"word_id"`
	IsCorrect bool  `json:"is_correct"`
}

// StudyResultRequest represents the request body for submitting study results
type StudyResultRequest struct {
	Results []StudyResult `json:"results"`
}

// Stats holds word counts by status
type Stats struct {
	Total    int64 `json:"total_words"`
	Mastered int64 `json:"mastered_words"`
	Learning int64 `json:"learning_words"`
	New      int64 `json:"new_words"`
	Review   int64 `json:"review_words"`
}

// ImportResult contains the results of a bulk import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Message  string   `json:"message"`
	Errors   []string `json:"errors,omitempty"`
}
