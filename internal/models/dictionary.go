package models

// DictionaryEntry is one entry returned by the dictionary API
type DictionaryEntry struct {
	Word      string     `json:"word"`
	Phonetic  string     `json:"phonetic,omitempty"`
	Phonetics []Phonetic `json:"phonetics,omitempty"`
	Meanings  []Meaning  `json:"meanings"`
	SourceURL string     `json:"sourceUrl,omitempty"`
}

// Phonetic represents pronunciation information
type Phonetic struct {
	Text  string `json:"text,omitempty"`
	Audio string `json:"audio,omitempty"`
}

// Meaning groups definitions under one part of speech
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
}

// Definition represents a single definition
type Definition struct {
	Definition string   `json:"definition"`
	Example    string   `json:"example,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
}

// WordDefinition is the definition payload served for a stored word
type WordDefinition struct {
	WordID     int64     `json:"word_id"`
	English    string    `json:"english"`
	Japanese   string    `json:"japanese_view"`
	Phonetic   string    `json:"phonetic,omitempty"`
	AudioURL   string    `json:"audio_url,omitempty"`
	Meanings   []Meaning `json:"meanings"`
	SourceURLs []string  `json:"source_urls,omitempty"`
}
