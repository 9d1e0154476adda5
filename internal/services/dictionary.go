package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

const (
	// DefaultDictionaryURL is the free English dictionary API
	DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultTimeout       = 10 * time.Second
)

// ErrDefinitionNotFound is returned when the dictionary has no entry for a word
var ErrDefinitionNotFound = errors.New("definition not found in dictionary")

// DictionaryService looks up English definitions
type DictionaryService struct {
	client  *http.Client
	baseURL string
}

// NewDictionaryService creates a dictionary service for baseURL with the default timeout
func NewDictionaryService(baseURL string) *DictionaryService {
	return NewDictionaryServiceWithClient(&http.Client{Timeout: defaultTimeout}, baseURL)
}

// NewDictionaryServiceWithClient creates a dictionary service with a custom HTTP client
func NewDictionaryServiceWithClient(client *http.Client, baseURL string) *DictionaryService {
	if baseURL == "" {
		baseURL = DefaultDictionaryURL
	}
	return &DictionaryService{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Lookup fetches the dictionary entries for an english word or phrase
func (s *DictionaryService) Lookup(ctx context.Context, english string) ([]models.DictionaryEntry, error) {
	endpoint := s.baseURL + "/" + url.PathEscape(strings.ToLower(strings.TrimSpace(english)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch definition: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrDefinitionNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	var entries []models.DictionaryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrDefinitionNotFound
	}
	return entries, nil
}

// Define builds the definition payload for a stored word
func (s *DictionaryService) Define(ctx context.Context, word *models.Word) (*models.WordDefinition, error) {
	entries, err := s.Lookup(ctx, word.English)
	if err != nil {
		return nil, err
	}

	def := &models.WordDefinition{
		WordID:   word.ID,
		English:  word.English,
		Japanese: word.JapaneseView,
		Phonetic: entries[0].Phonetic,
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		def.Meanings = append(def.Meanings, entry.Meanings...)

		for _, phonetic := range entry.Phonetics {
			if def.AudioURL == "" && phonetic.Audio != "" {
				def.AudioURL = phonetic.Audio
			}
			if def.Phonetic == "" && phonetic.Text != "" {
				def.Phonetic = phonetic.Text
			}
		}

		if entry.SourceURL != "" && !seen[entry.SourceURL] {
			def.SourceURLs = append(def.SourceURLs, entry.SourceURL)
			seen[entry.SourceURL] = true
		}
	}

	return def, nil
}
