package reading

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature index of the katakana reading
const readingFeature = 7

// Romanizer derives romaji from Japanese text using dictionary readings
type Romanizer struct {
	t *tokenizer.Tokenizer
}

// NewRomanizer creates a romanizer backed by the IPA dictionary
func NewRomanizer() (*Romanizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return &Romanizer{t: t}, nil
}

// Reading returns the katakana reading of text.
// Tokens the dictionary has no reading for keep their surface form when it is kana
// or ASCII; any other unknown token yields ErrNoReading.
func (r *Romanizer) Reading(text string) (string, error) {
	var b strings.Builder
	for _, token := range r.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}

		features := token.Features()
		if len(features) > readingFeature && features[readingFeature] != "*" {
			b.WriteString(features[readingFeature])
			continue
		}
		if !IsKana(token.Surface) && !isASCII(token.Surface) {
			return "", fmt.Errorf("%w: %q", ErrNoReading, token.Surface)
		}
		b.WriteString(token.Surface)
	}
	return b.String(), nil
}

// Romanize converts Japanese text (kanji, kana or a mix) into lowercase romaji
func (r *Romanizer) Romanize(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoReading
	}

	kana, err := r.Reading(text)
	if err != nil {
		return "", err
	}
	romaji, err := KanaToRomaji(kana)
	if err != nil {
		return "", err
	}
	if romaji == "" {
		return "", ErrNoReading
	}
	return romaji, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
