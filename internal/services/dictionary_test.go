package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehmann314159/vocabtyper/internal/models"
)

func TestDictionaryService_Define(t *testing.T) {
	tests := []struct {
		name           string
		english        string
		mockResponse   string
		mockStatusCode int
		wantErr        error
		wantMeanings   int
		wantAudio      string
		wantSources    int
	}{
		{
			name:    "successful lookup",
			english: "meeting",
			mockResponse: `[{
				"word": "meeting",
				"phonetics": [{"text": "/ˈmiːtɪŋ/"}, {"audio": "https://example.com/meeting.mp3"}],
				"meanings": [{"partOfSpeech": "noun", "definitions": [{"definition": "a gathering of people"}]}],
				"sourceUrl": "https://example.com/meeting"
			}, {
				"word": "meeting",
				"meanings": [{"partOfSpeech": "verb", "definitions": [{"definition": "present participle of meet"}]}],
				"sourceUrl": "https://example.com/meeting"
			}]`,
			mockStatusCode: http.StatusOK,
			wantMeanings:   2,
			wantAudio:      "https://example.com/meeting.mp3",
			wantSources:    1,
		},
		{
			name:           "word not found",
			english:        "xyzabc",
			mockResponse:   `{"title":"No Definitions Found"}`,
			mockStatusCode: http.StatusNotFound,
			wantErr:        ErrDefinitionNotFound,
		},
		{
			name:           "empty response",
			english:        "agenda",
			mockResponse:   `[]`,
			mockStatusCode: http.StatusOK,
			wantErr:        ErrDefinitionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.mockStatusCode)
				w.Write([]byte(tt.mockResponse))
			}))
			defer server.Close()

			svc := NewDictionaryServiceWithClient(server.Client(), server.URL+"/")
			word := &models.Word{ID: 3, English: tt.english, JapaneseView: "会議"}

			got, err := svc.Define(context.Background(), word)
			if gotPath != "/"+tt.english {
				t.Errorf("Define() requested path %q, want %q", gotPath, "/"+tt.english)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Define() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Define() error = %v", err)
			}

			if got.WordID != 3 || got.English != tt.english || got.Japanese != "会議" {
				t.Errorf("Define() = %+v, want word fields copied", got)
			}
			if len(got.Meanings) != tt.wantMeanings {
				t.Errorf("Define() meanings = %d, want %d", len(got.Meanings), tt.wantMeanings)
			}
			if got.AudioURL != tt.wantAudio {
				t.Errorf("Define() audio = %q, want %q", got.AudioURL, tt.wantAudio)
			}
			if got.Phonetic != "/ˈmiːtɪŋ/" {
				t.Errorf("Define() phonetic = %q, want fallback from phonetics", got.Phonetic)
			}
			if len(got.SourceURLs) != tt.wantSources {
				t.Errorf("Define() sources = %v, want %d unique", got.SourceURLs, tt.wantSources)
			}
		})
	}
}

func TestDictionaryService_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewDictionaryServiceWithClient(server.Client(), server.URL)
	_, err := svc.Lookup(context.Background(), "agenda")
	if err == nil || errors.Is(err, ErrDefinitionNotFound) {
		t.Errorf("Lookup() error = %v, want upstream status error", err)
	}
}

func TestDictionaryService_NewService(t *testing.T) {
	svc := NewDictionaryService("")

	if svc.baseURL != DefaultDictionaryURL {
		t.Errorf("NewDictionaryService() baseURL = %v, want %v", svc.baseURL, DefaultDictionaryURL)
	}
	if svc.client.Timeout != defaultTimeout {
		t.Errorf("NewDictionaryService() timeout = %v, want %v", svc.client.Timeout, defaultTimeout)
	}
}
