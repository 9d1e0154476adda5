package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/lehmann314159/vocabtyper/internal/models"
	"github.com/lehmann314159/vocabtyper/internal/reading"
)

// stubRomanizer knows a fixed set of readings
type stubRomanizer map[string]string

func (s stubRomanizer) Romanize(text string) (string, error) {
	if romaji, ok := s[text]; ok {
		return romaji, nil
	}
	return "", reading.ErrNoReading
}

func setupWordService(t *testing.T, romanizer Romanizer) (*WordService, func()) {
	t.Helper()

	study, repo, cleanup := setupStudyService(t)
	svc := NewWordService(repo, study, NewDictionaryService(""), romanizer)
	return svc, cleanup
}

func TestWordService_Create(t *testing.T) {
	svc, cleanup := setupWordService(t, stubRomanizer{"会議": "kaigi"})
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		name       string
		req        *models.CreateWordRequest
		wantRomaji string
		wantErr    error
	}{
		{
			name:       "valid word",
			req:        &models.CreateWordRequest{English: "invoice", JapaneseView: "請求書", JapaneseRomaji: "Seikyuusho "},
			wantRomaji: "seikyuusho",
		},
		{
			name:       "romaji derived",
			req:        &models.CreateWordRequest{English: "meeting", JapaneseView: "会議"},
			wantRomaji: "kaigi",
		},
		{
			name:    "romaji not derivable",
			req:     &models.CreateWordRequest{English: "receipt", JapaneseView: "領収書"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing english",
			req:     &models.CreateWordRequest{JapaneseView: "会議", JapaneseRomaji: "kaigi"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing japanese view",
			req:     &models.CreateWordRequest{English: "agenda", JapaneseRomaji: "gidai"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "duplicate english",
			req:     &models.CreateWordRequest{English: "invoice", JapaneseView: "送り状", JapaneseRomaji: "okurijou"},
			wantErr: models.ErrDuplicateWord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Create(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if got.ID == 0 {
				t.Error("Create() returned word with ID = 0")
			}
			if got.Status != models.StatusNew {
				t.Errorf("Create() status = %s, want new", got.Status)
			}
			if got.JapaneseRomaji != tt.wantRomaji {
				t.Errorf("Create() romaji = %q, want %q", got.JapaneseRomaji, tt.wantRomaji)
			}
		})
	}
}

func TestWordService_Create_NoRomanizer(t *testing.T) {
	svc, cleanup := setupWordService(t, nil)
	defer cleanup()

	_, err := svc.Create(context.Background(), &models.CreateWordRequest{English: "meeting", JapaneseView: "会議"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create() error = %v, want ErrInvalidInput", err)
	}
}

func TestWordService_GetByID_NotFound(t *testing.T) {
	svc, cleanup := setupWordService(t, nil)
	defer cleanup()

	if _, err := svc.GetByID(context.Background(), 42); !errors.Is(err, ErrWordNotFound) {
		t.Errorf("GetByID() error = %v, want ErrWordNotFound", err)
	}
}

func TestWordService_ImportCSV(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		csv          string
		wantImported int
		wantSkipped  int
		wantErrors   int
		wantErr      bool
	}{
		{
			name: "valid CSV",
			csv: `english,japanese_view,japanese_romaji
meeting,会議,kaigi
invoice,請求書,seikyuusho`,
			wantImported: 2,
		},
		{
			name:         "header with BOM and mixed case",
			csv:          "\ufeffEnglish, Japanese_View ,JAPANESE_ROMAJI\nmeeting,会議,kaigi",
			wantImported: 1,
		},
		{
			name: "duplicates within the file",
			csv: `english,japanese_view,japanese_romaji
meeting,会議,kaigi
meeting,ミーティング,miitingu`,
			wantImported: 1,
			wantSkipped:  1,
		},
		{
			name: "missing required field",
			csv: `english,japanese_view,japanese_romaji
,会議,kaigi
budget,予算,yosan`,
			wantImported: 1,
			wantSkipped:  1,
			wantErrors:   1,
		},
		{
			name: "romaji derived when blank",
			csv: `english,japanese_view,japanese_romaji
meeting,会議,
receipt,領収書,`,
			wantImported: 1,
			wantSkipped:  1,
			wantErrors:   1,
		},
		{
			name: "malformed record",
			csv: `english,japanese_view,japanese_romaji
mee"ting,会議,kaigi
budget,予算,yosan`,
			wantImported: 1,
			wantSkipped:  1,
			wantErrors:   1,
		},
		{
			name: "separator-only row",
			csv: `english,japanese_view,japanese_romaji
,,
budget,予算,yosan`,
			wantImported: 1,
			wantSkipped:  1,
			wantErrors:   1,
		},
		{
			name:    "missing required column",
			csv:     `english,japanese_view`,
			wantErr: true,
		},
		{
			name:    "empty input",
			csv:     ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create fresh service for each test
			svc, cleanup := setupWordService(t, stubRomanizer{"会議": "kaigi"})
			defer cleanup()

			result, err := svc.ImportCSV(ctx, strings.NewReader(tt.csv))
			if (err != nil) != tt.wantErr {
				t.Errorf("ImportCSV() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if result.Imported != tt.wantImported {
				t.Errorf("ImportCSV() imported = %v, want %v", result.Imported, tt.wantImported)
			}
			if result.Skipped != tt.wantSkipped {
				t.Errorf("ImportCSV() skipped = %v, want %v", result.Skipped, tt.wantSkipped)
			}
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("ImportCSV() errors = %v, want %d", result.Errors, tt.wantErrors)
			}
			if result.Message == "" {
				t.Error("ImportCSV() message is empty")
			}
		})
	}
}

// brokenReader serves its data and then fails every later read
type brokenReader struct {
	data *strings.Reader
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.data.Len() > 0 {
		return r.data.Read(p)
	}
	return 0, r.err
}

func TestWordService_ImportCSV_ReadError(t *testing.T) {
	svc, cleanup := setupWordService(t, nil)
	defer cleanup()

	errReset := errors.New("connection reset")
	r := &brokenReader{
		data: strings.NewReader("english,japanese_view,japanese_romaji\nmeeting,会議,kaigi\n"),
		err:  errReset,
	}

	ctx := context.Background()
	result, err := svc.ImportCSV(ctx, r)
	if !errors.Is(err, errReset) {
		t.Fatalf("ImportCSV() = %+v, %v, want error wrapping %v", result, err, errReset)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("ImportCSV() error = %v, want failing line number", err)
	}

	words, err := svc.List(ctx, models.WordFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(words) != 0 {
		t.Errorf("ImportCSV() stored %d words from an aborted import, want 0", len(words))
	}
}

func TestWordService_ImportXLSX(t *testing.T) {
	svc, cleanup := setupWordService(t, nil)
	defer cleanup()

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"english", "japanese_view", "japanese_romaji"},
		{"meeting", "会議", "kaigi"},
		{"invoice", "請求書", "seikyuusho"},
		{"meeting", "会議", "kaigi"},
		{"agenda", "議題"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	result, err := svc.ImportXLSX(context.Background(), buf)
	if err != nil {
		t.Fatalf("ImportXLSX() error = %v", err)
	}
	if result.Imported != 2 || result.Skipped != 2 {
		t.Errorf("ImportXLSX() = imported %d skipped %d, want 2 and 2", result.Imported, result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "line 5") {
		t.Errorf("ImportXLSX() errors = %v, want one error on line 5", result.Errors)
	}
}

func TestWordService_ImportXLSX_NotAWorkbook(t *testing.T) {
	svc, cleanup := setupWordService(t, nil)
	defer cleanup()

	if _, err := svc.ImportXLSX(context.Background(), strings.NewReader("english,japanese_view")); err == nil {
		t.Error("ImportXLSX() should reject non-workbook input")
	}
}

func TestWordService_ExportCSV(t *testing.T) {
	svc, cleanup := setupWordService(t, nil)
	defer cleanup()

	ctx := context.Background()
	created, err := svc.Create(ctx, &models.CreateWordRequest{English: "meeting", JapaneseView: "会議", JapaneseRomaji: "kaigi"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.study.UpdateProgress(ctx, created.ID, false); err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	if _, err := svc.Create(ctx, &models.CreateWordRequest{English: "invoice", JapaneseView: "請求書", JapaneseRomaji: "seikyuusho"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, "english,japanese_view,japanese_romaji,status,interval,mistake_count,next_review_at") {
		t.Error("ExportCSV() header is incorrect")
	}
	if !strings.Contains(output, "meeting,会議,kaigi,learning,1,1,2026-10-14T09:10:00Z") {
		t.Errorf("ExportCSV() missing progress row, got:\n%s", output)
	}
	if !strings.Contains(output, "invoice,請求書,seikyuusho,new,0,0,") {
		t.Errorf("ExportCSV() missing new word row, got:\n%s", output)
	}

	// Exported files import back cleanly
	other, cleanupOther := setupWordService(t, nil)
	defer cleanupOther()
	result, err := other.ImportCSV(ctx, strings.NewReader(output))
	if err != nil {
		t.Fatalf("ImportCSV() of export error = %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("ImportCSV() of export imported = %d, want 2", result.Imported)
	}
}
