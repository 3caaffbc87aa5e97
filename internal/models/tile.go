// internal/models/tile.go
package models

// Bonus identifies the multiplier printed on a grid cell.
type Bonus string

const (
	BonusNone         Bonus = ""
	BonusDoubleLetter Bonus = "double_letter"
	BonusTripleLetter Bonus = "triple_letter"
	BonusDoubleWord   Bonus = "double_word"
	BonusTripleWord   Bonus = "triple_word"
)

// Tile is a single cell of a match grid. A tile is immutable once placed,
// except that its letter is replaced (and bonus/gem flags cleared) after a
// scored word consumes it.
type Tile struct {
	Letter string `json:"letter"`
	Bonus  Bonus  `json:"bonus,omitempty"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	IsGem  bool   `json:"isGem,omitempty"`
}
