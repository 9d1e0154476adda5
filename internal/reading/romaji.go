package reading

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNoReading is returned when text contains characters with no known reading
var ErrNoReading = errors.New("no reading available")

// Hiragana and katakana share layout; katakana = hiragana + kanaOffset
const kanaOffset = 0x60

var digraphs = map[string]string{
	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho", "シェ": "she",
	"チャ": "cha", "チュ": "chu", "チョ": "cho", "チェ": "che",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo", "ジェ": "je",
	"ヂャ": "ja", "ヂュ": "ju", "ヂョ": "jo",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo",
	"ティ": "ti", "ディ": "di", "デュ": "dyu",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo",
}

var monographs = map[rune]string{
	'ア': "a", 'イ': "i", 'ウ': "u", 'エ': "e", 'オ': "o",
	'カ': "ka", 'キ': "ki", 'ク': "ku", 'ケ': "ke", 'コ': "ko",
	'サ': "sa", 'シ': "shi", 'ス': "su", 'セ': "se", 'ソ': "so",
	'タ': "ta", 'チ': "chi", 'ツ': "tsu", 'テ': "te", 'ト': "to",
	'ナ': "na", 'ニ': "ni", 'ヌ': "nu", 'ネ': "ne", 'ノ': "no",
	'ハ': "ha", 'ヒ': "hi", 'フ': "fu", 'ヘ': "he", 'ホ': "ho",
	'マ': "ma", 'ミ': "mi", 'ム': "mu", 'メ': "me", 'モ': "mo",
	'ヤ': "ya", 'ユ': "yu", 'ヨ': "yo",
	'ラ': "ra", 'リ': "ri", 'ル': "ru", 'レ': "re", 'ロ': "ro",
	'ワ': "wa", 'ヰ': "i", 'ヱ': "e", 'ヲ': "o", 'ン': "n",
	'ガ': "ga", 'ギ': "gi", 'グ': "gu", 'ゲ': "ge", 'ゴ': "go",
	'ザ': "za", 'ジ': "ji", 'ズ': "zu", 'ゼ': "ze", 'ゾ': "zo",
	'ダ': "da", 'ヂ': "ji", 'ヅ': "zu", 'デ': "de", 'ド': "do",
	'バ': "ba", 'ビ': "bi", 'ブ': "bu", 'ベ': "be", 'ボ': "bo",
	'パ': "pa", 'ピ': "pi", 'プ': "pu", 'ペ': "pe", 'ポ': "po",
	'ヴ': "vu",
	'ァ': "a", 'ィ': "i", 'ゥ': "u", 'ェ': "e", 'ォ': "o",
	'ャ': "ya", 'ュ': "yu", 'ョ': "yo", 'ヮ': "wa",
}

const (
	sokuon     = 'ッ'
	longVowel  = 'ー'
	syllabicN  = 'ン'
	smallKanas = "ァィゥェォャュョヮ"
)

// toKatakana maps hiragana to katakana and leaves everything else alone
func toKatakana(r rune) rune {
	if r >= 'ぁ' && r <= 'ゖ' {
		return r + kanaOffset
	}
	return r
}

// IsKana reports whether s consists only of hiragana, katakana and the long vowel mark
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.In(r, unicode.Hiragana, unicode.Katakana) && r != longVowel {
			return false
		}
	}
	return true
}

// KanaToRomaji converts hiragana or katakana to lowercase Hepburn romaji.
// Latin letters and digits pass through lowercased; spaces, punctuation and
// symbols are dropped. Any other character yields ErrNoReading.
func KanaToRomaji(kana string) (string, error) {
	runes := []rune(kana)
	for i, r := range runes {
		runes[i] = toKatakana(r)
	}

	var b strings.Builder
	double := false

	emit := func(syllable string) {
		if double {
			switch {
			case strings.HasPrefix(syllable, "ch"):
				b.WriteByte('t')
			case !strings.ContainsAny(syllable[:1], "aiueon"):
				b.WriteByte(syllable[0])
			}
			double = false
		}
		b.WriteString(syllable)
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == sokuon:
			double = true
			continue
		case r == longVowel:
			if v := lastVowel(b.String()); v != 0 {
				b.WriteByte(v)
			}
			continue
		}

		if i+1 < len(runes) && strings.ContainsRune(smallKanas, runes[i+1]) {
			if syllable, ok := digraphs[string(runes[i:i+2])]; ok {
				emit(syllable)
				i++
				continue
			}
		}

		if r == syllabicN && i+1 < len(runes) && startsWithVowelOrY(runes[i+1]) {
			// ん before a vowel or y is typed nn so it cannot be read as な or にゃ
			emit("nn")
			continue
		}

		if syllable, ok := monographs[r]; ok {
			emit(syllable)
			continue
		}

		double = false
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
		default:
			return "", fmt.Errorf("%w: %q", ErrNoReading, string(r))
		}
	}

	return b.String(), nil
}

func startsWithVowelOrY(r rune) bool {
	syllable, ok := monographs[r]
	return ok && strings.IndexByte("aiueoy", syllable[0]) >= 0
}

func lastVowel(s string) byte {
	for i := len(s) - 1; i >= 0; i-- {
		if strings.IndexByte("aiueo", s[i]) >= 0 {
			return s[i]
		}
	}
	return 0
}
