package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lehmann314159/vocabtyper/internal/models"
	"github.com/lehmann314159/vocabtyper/internal/repository"
)

// ErrInvalidInput is returned for candidate words missing required fields
var ErrInvalidInput = errors.New("invalid input")

const defaultListLimit = 100

// Column names used by CSV and spreadsheet import and export
const (
	colEnglish        = "english"
	colJapaneseView   = "japanese_view"
	colJapaneseRomaji = "japanese_romaji"
)

var requiredColumns = []string{colEnglish, colJapaneseView, colJapaneseRomaji}

// Romanizer derives romaji from Japanese text
type Romanizer interface {
	Romanize(text string) (string, error)
}

// WordService provides word management on top of the study core
type WordService struct {
	repo       repository.WordRepository
	study      *StudyService
	dictionary *DictionaryService
	romanizer  Romanizer
}

// NewWordService creates a new word service. romanizer may be nil, in which case
// japanese_romaji must always be supplied.
func NewWordService(repo repository.WordRepository, study *StudyService, dictionary *DictionaryService, romanizer Romanizer) *WordService {
	return &WordService{
		repo:       repo,
		study:      study,
		dictionary: dictionary,
		romanizer:  romanizer,
	}
}

// Create creates a new word
func (s *WordService) Create(ctx context.Context, req *models.CreateWordRequest) (*models.Word, error) {
	candidate, err := s.normalize(models.WordCandidate{
		English:        req.English,
		JapaneseView:   req.JapaneseView,
		JapaneseRomaji: req.JapaneseRomaji,
	})
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEnglish(ctx, candidate.English)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateWord, candidate.English)
	}

	return s.repo.Save(ctx, models.NewWord(candidate))
}

// normalize trims a candidate, checks required fields and fills in missing romaji
func (s *WordService) normalize(c models.WordCandidate) (models.WordCandidate, error) {
	c.English = strings.TrimSpace(c.English)
	c.JapaneseView = strings.TrimSpace(c.JapaneseView)
	c.JapaneseRomaji = strings.ToLower(strings.TrimSpace(c.JapaneseRomaji))

	if c.English == "" {
		return c, fmt.Errorf("%w: english is required", ErrInvalidInput)
	}
	if c.JapaneseView == "" {
		return c, fmt.Errorf("%w: japanese_view is required", ErrInvalidInput)
	}
	if c.JapaneseRomaji != "" {
		return c, nil
	}

	if s.romanizer == nil {
		return c, fmt.Errorf("%w: japanese_romaji is required", ErrInvalidInput)
	}
	romaji, err := s.romanizer.Romanize(c.JapaneseView)
	if err != nil {
		return c, fmt.Errorf("%w: japanese_romaji is required and could not be derived: %v", ErrInvalidInput, err)
	}
	c.JapaneseRomaji = romaji
	return c, nil
}

// GetByID retrieves a word by ID
func (s *WordService) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	word, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWordNotFound
	}
	return word, err
}

// List retrieves a page of words
func (s *WordService) List(ctx context.Context, filter models.WordFilter) ([]*models.Word, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	return s.repo.List(ctx, filter)
}

// GetDefinition fetches the dictionary definition of a stored word
func (s *WordService) GetDefinition(ctx context.Context, id int64) (*models.WordDefinition, error) {
	word, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dictionary.Define(ctx, word)
}

// ImportCSV imports words from CSV with an english,japanese_view,japanese_romaji header
func (s *WordService) ImportCSV(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	return s.importRecords(ctx, header, reader.Read)
}

// ImportXLSX imports words from the first sheet of a workbook laid out like the CSV format
func (s *WordService) ImportXLSX(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to read header: sheet %s is empty", sheets[0])
	}

	next := 1
	return s.importRecords(ctx, rows[0], func() ([]string, error) {
		if next >= len(rows) {
			return nil, io.EOF
		}
		next++
		return rows[next-1], nil
	})
}

// importRecords validates each record and hands the valid ones to the study core in order.
// Invalid or empty records are counted as skipped and reported by line. A read error
// that is not a malformed record aborts the import.
func (s *WordService) importRecords(ctx context.Context, header []string, next func() ([]string, error)) (*models.ImportResult, error) {
	colIndex := make(map[string]int)
	for i, col := range header {
		col = strings.TrimPrefix(col, "\ufeff")
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var (
		candidates []models.WordCandidate
		errs       []string
		invalid    int
	)
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to read line %d: %w", lineNum, err)
			}
			errs = append(errs, fmt.Sprintf("line %d: %v", lineNum, err))
			invalid++
			continue
		}
		if isBlank(record) {
			errs = append(errs, fmt.Sprintf("line %d: empty row", lineNum))
			invalid++
			continue
		}

		candidate, err := s.normalize(models.WordCandidate{
			English:        field(record, colIndex[colEnglish]),
			JapaneseView:   field(record, colIndex[colJapaneseView]),
			JapaneseRomaji: field(record, colIndex[colJapaneseRomaji]),
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", lineNum, err))
			invalid++
			continue
		}
		candidates = append(candidates, candidate)
	}

	result, err := s.study.ImportWords(ctx, candidates)
	if err != nil {
		return nil, err
	}

	result.Skipped += invalid
	result.Errors = errs
	result.Message = fmt.Sprintf("%d imported, %d skipped", result.Imported, result.Skipped)
	return result, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ExportCSV exports all words with their study progress
func (s *WordService) ExportCSV(ctx context.Context, w io.Writer) error {
	words, err := s.repo.List(ctx, models.WordFilter{})
	if err != nil {
		return fmt.Errorf("failed to fetch words: %w", err)
	}

	writer := csv.NewWriter(w)

	header := []string{colEnglish, colJapaneseView, colJapaneseRomaji, "status", "interval", "mistake_count", "next_review_at"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, word := range words {
		nextReview := ""
		if word.NextReviewAt != nil {
			nextReview = word.NextReviewAt.Format(time.RFC3339)
		}

		record := []string{
			word.English,
			word.JapaneseView,
			word.JapaneseRomaji,
			string(word.Status),
			strconv.Itoa(word.Interval),
			strconv.Itoa(word.MistakeCount),
			nextReview,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
