// internal/scoring/scoring.go
package scoring

import (
	"errors"
	"strings"

	"github.com/devdussey/wordhex/internal/models"
)

// Dictionary answers whether a candidate string is a playable word.
// The backing store (word list, cache, remote service) is external; the
// engine only consumes the verdict. Implementations must be pure from the
// engine's perspective.
type Dictionary interface {
	IsValidWord(word string) bool
}

// Rejections returned by Score. These are expected, frequent outcomes;
// callers branch on them rather than treating them as failures.
var (
	ErrTooShort = errors.New("word must be at least 3 letters")
	ErrNotAWord = errors.New("word not in dictionary")
)

const (
	// MinWordLength is the shortest word a selection may form.
	MinWordLength = 3

	// LongWordLength is the selection length at which LongWordBonus applies.
	LongWordLength = 6

	// LongWordBonus is a flat bonus added once for words of LongWordLength or more.
	LongWordBonus = 10
)

// letterValues is the fixed frequency-weighted base value table.
var letterValues = map[byte]int{
	'A': 1, 'B': 3, 'C': 3, 'D': 2, 'E': 1, 'F': 4, 'G': 2, 'H': 4,
	'I': 1, 'J': 8, 'K': 5, 'L': 1, 'M': 3, 'N': 1, 'O': 1, 'P': 3,
	'Q': 10, 'R': 1, 'S': 1, 'T': 1, 'U': 1, 'V': 4, 'W': 4, 'X': 8,
	'Y': 4, 'Z': 10,
}

// LetterValue returns the base value of a single letter, case-insensitive.
// Unknown glyphs score zero.
func LetterValue(letter string) int {
	up := strings.ToUpper(letter)
	if len(up) != 1 {
		return 0
	}
	return letterValues[up[0]]
}

// Score concatenates the tiles' letters in selection order and prices the
// resulting word. Letter bonuses multiply the single tile's value; word
// bonuses multiply the running word total and compound multiplicatively.
// Gem tiles do not affect the result here; the gem bonus is added by the
// match, which owns the gem economy.
//
// Score is deterministic: identical tiles and dictionary verdicts produce
// identical results. It performs no I/O and has no side effects.
func Score(tiles []models.Tile, dict Dictionary) (models.WordResult, error) {
	var b strings.Builder
	for _, t := range tiles {
		b.WriteString(strings.ToUpper(t.Letter))
	}
	word := b.String()

	if len(word) < MinWordLength {
		return models.WordResult{}, ErrTooShort
	}
	if !dict.IsValidWord(word) {
		return models.WordResult{}, ErrNotAWord
	}

	base := 0
	wordMultiplier := 1
	var tags []string
	for _, t := range tiles {
		value := LetterValue(t.Letter)
		switch t.Bonus {
		case models.BonusDoubleLetter:
			value *= 2
			tags = append(tags, string(t.Bonus))
		case models.BonusTripleLetter:
			value *= 3
			tags = append(tags, string(t.Bonus))
		case models.BonusDoubleWord:
			wordMultiplier *= 2
			tags = append(tags, string(t.Bonus))
		case models.BonusTripleWord:
			wordMultiplier *= 3
			tags = append(tags, string(t.Bonus))
		}
		base += value
	}

	final := base * wordMultiplier
	if len(word) >= LongWordLength {
		final += LongWordBonus
	}

	return models.WordResult{
		Word:        word,
		BaseScore:   base,
		Multipliers: tags,
		FinalScore:  final,
	}, nil
}
