// internal/scoring/scoring_test.go
package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdussey/wordhex/internal/models"
	"github.com/devdussey/wordhex/internal/words"
)

func tilesFor(word string, bonuses ...models.Bonus) []models.Tile {
	tiles := make([]models.Tile, len(word))
	for i, r := range word {
		t := models.Tile{Letter: string(r)}
		if i < len(bonuses) {
			t.Bonus = bonuses[i]
		}
		tiles[i] = t
	}
	return tiles
}

func TestScorePlainWord(t *testing.T) {
	dict := words.NewMapDictionary("CAT")

	res, err := Score(tilesFor("CAT"), dict)
	require.NoError(t, err)

	// C=3, A=1, T=1
	assert.Equal(t, "CAT", res.Word)
	assert.Equal(t, 5, res.BaseScore)
	assert.Equal(t, 5, res.FinalScore)
	assert.Empty(t, res.Multipliers)
}

func TestScoreIsCaseInsensitive(t *testing.T) {
	dict := words.NewMapDictionary("cat")

	res, err := Score(tilesFor("cAt"), dict)
	require.NoError(t, err)
	assert.Equal(t, "CAT", res.Word)
	assert.Equal(t, 5, res.FinalScore)
}

func TestScoreLetterBonusAffectsOneTile(t *testing.T) {
	dict := words.NewMapDictionary("CAT")

	res, err := Score(tilesFor("CAT", models.BonusDoubleLetter), dict)
	require.NoError(t, err)

	// C doubled: 6+1+1
	assert.Equal(t, 8, res.BaseScore)
	assert.Equal(t, 8, res.FinalScore)
	assert.Equal(t, []string{"double_letter"}, res.Multipliers)
}

func TestScoreWordMultipliersCompound(t *testing.T) {
	dict := words.NewMapDictionary("CAT")

	// DW and TW on the same selection multiply the whole word by 6.
	res, err := Score(tilesFor("CAT", models.BonusDoubleWord, models.BonusTripleWord), dict)
	require.NoError(t, err)

	assert.Equal(t, 5, res.BaseScore)
	assert.Equal(t, 30, res.FinalScore)
	assert.Equal(t, []string{"double_word", "triple_word"}, res.Multipliers)
}

func TestScoreWordMultiplierAppliesAfterLetterBonus(t *testing.T) {
	dict := words.NewMapDictionary("CAT")

	res, err := Score(tilesFor("CAT", models.BonusTripleLetter, models.BonusDoubleWord), dict)
	require.NoError(t, err)

	// (3*3 + 1 + 1) * 2
	assert.Equal(t, 11, res.BaseScore)
	assert.Equal(t, 22, res.FinalScore)
}

func TestScoreLongWordBonus(t *testing.T) {
	dict := words.NewMapDictionary("LETTER", "SQUARE")

	res, err := Score(tilesFor("LETTER"), dict)
	require.NoError(t, err)

	// L+E+T+T+E+R = 6, plus the flat length bonus.
	assert.Equal(t, 6, res.BaseScore)
	assert.Equal(t, 16, res.FinalScore)

	// The length bonus is flat: added after word multipliers, not scaled.
	res, err = Score(tilesFor("SQUARE", models.BonusDoubleWord), dict)
	require.NoError(t, err)
	// S1 Q10 U1 A1 R1 E1 = 15; 15*2 + 10
	assert.Equal(t, 15, res.BaseScore)
	assert.Equal(t, 40, res.FinalScore)
}

func TestScoreIgnoresGems(t *testing.T) {
	dict := words.NewMapDictionary("CAT")

	tiles := tilesFor("CAT")
	tiles[0].IsGem = true

	res, err := Score(tiles, dict)
	require.NoError(t, err)
	assert.Equal(t, 5, res.FinalScore)
}

func TestScoreRejectsShortWord(t *testing.T) {
	dict := words.NewMapDictionary("AT")

	_, err := Score(tilesFor("AT"), dict)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestScoreRejectsUnknownWord(t *testing.T) {
	dict := words.NewMapDictionary("CAT")

	_, err := Score(tilesFor("XQZ"), dict)
	assert.ErrorIs(t, err, ErrNotAWord)
}

func TestScoreDeterministic(t *testing.T) {
	dict := words.NewMapDictionary("CAT")
	tiles := tilesFor("CAT", models.BonusDoubleWord)

	first, err := Score(tiles, dict)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Score(tiles, dict)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLetterValue(t *testing.T) {
	assert.Equal(t, 1, LetterValue("A"))
	assert.Equal(t, 10, LetterValue("q"))
	assert.Equal(t, 0, LetterValue("?"))
	assert.Equal(t, 0, LetterValue(""))
}
