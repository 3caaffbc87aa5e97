// internal/grid/grid.go
package grid

import (
	"errors"
	"math/rand"

	"github.com/devdussey/wordhex/internal/models"
)

// Default board dimensions. Free-play matches run on a 5x5 board; the solo
// mode served to external clients uses 4x4.
const (
	DefaultRows = 5
	DefaultCols = 5
	SoloRows    = 4
	SoloCols    = 4
)

// Path validation rejections.
var (
	ErrOutOfBounds  = errors.New("tile coordinate outside grid")
	ErrNotAdjacent  = errors.New("tiles do not form a contiguous path")
	ErrRepeatedTile = errors.New("tile used more than once in selection")
)

// letterBag holds each letter repeated by its draw frequency, so a uniform
// pick over the bag yields a frequency-weighted letter.
const letterBag = "" +
	"AAAAAAAAA" +
	"BB" +
	"CC" +
	"DDDD" +
	"EEEEEEEEEEEE" +
	"FF" +
	"GGG" +
	"HH" +
	"IIIIIIIII" +
	"J" +
	"K" +
	"LLLL" +
	"MM" +
	"NNNNNN" +
	"OOOOOOOO" +
	"PP" +
	"Q" +
	"RRRRRR" +
	"SSSS" +
	"TTTTTT" +
	"UUUU" +
	"VV" +
	"WW" +
	"X" +
	"YY" +
	"Z"

// Bonus and gem placement odds, per cell, rolled at generation time.
const (
	gemChance          = 8  // percent
	doubleLetterChance = 6  // percent
	tripleLetterChance = 3  // percent
	doubleWordChance   = 4  // percent
	tripleWordChance   = 2  // percent
)

// Coord addresses one cell of a grid.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is a fixed-size board of tiles. It is owned exclusively by the
// active match; all mutation goes through the match's serialized path.
type Grid struct {
	Rows  int             `json:"rows"`
	Cols  int             `json:"cols"`
	Cells [][]models.Tile `json:"cells"`
}

// New generates a rows x cols grid with freshly drawn letters and randomly
// rolled bonus and gem placements.
func New(rows, cols int, rng *rand.Rand) *Grid {
	g := &Grid{
		Rows:  rows,
		Cols:  cols,
		Cells: make([][]models.Tile, rows),
	}
	for r := 0; r < rows; r++ {
		g.Cells[r] = make([]models.Tile, cols)
		for c := 0; c < cols; c++ {
			g.Cells[r][c] = models.Tile{
				Letter: DrawLetter(rng),
				Bonus:  rollBonus(rng),
				Row:    r,
				Col:    c,
				IsGem:  rng.Intn(100) < gemChance,
			}
		}
	}
	return g
}

// NewSolo generates the 4x4 board dealt to single-player clients.
func NewSolo(rng *rand.Rand) *Grid {
	return New(SoloRows, SoloCols, rng)
}

// DrawLetter picks one frequency-weighted letter from the bag.
func DrawLetter(rng *rand.Rand) string {
	return string(letterBag[rng.Intn(len(letterBag))])
}

func rollBonus(rng *rand.Rand) models.Bonus {
	roll := rng.Intn(100)
	switch {
	case roll < doubleLetterChance:
		return models.BonusDoubleLetter
	case roll < doubleLetterChance+tripleLetterChance:
		return models.BonusTripleLetter
	case roll < doubleLetterChance+tripleLetterChance+doubleWordChance:
		return models.BonusDoubleWord
	case roll < doubleLetterChance+tripleLetterChance+doubleWordChance+tripleWordChance:
		return models.BonusTripleWord
	default:
		return models.BonusNone
	}
}

// Tile returns the tile at (row, col), or false if out of bounds.
func (g *Grid) Tile(row, col int) (models.Tile, bool) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return models.Tile{}, false
	}
	return g.Cells[row][col], true
}

// PathTiles resolves a selection of coordinates against the grid. It
// rejects out-of-bounds cells, repeated cells, and any consecutive pair of
// cells that is not 8-directionally adjacent. The returned tiles carry the
// grid's authoritative letters and flags; client-supplied letters are
// never trusted.
func (g *Grid) PathTiles(path []Coord) ([]models.Tile, error) {
	tiles := make([]models.Tile, 0, len(path))
	seen := make(map[Coord]struct{}, len(path))
	for i, c := range path {
		t, ok := g.Tile(c.Row, c.Col)
		if !ok {
			return nil, ErrOutOfBounds
		}
		if _, dup := seen[c]; dup {
			return nil, ErrRepeatedTile
		}
		seen[c] = struct{}{}
		if i > 0 && !adjacent(path[i-1], c) {
			return nil, ErrNotAdjacent
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// adjacent reports whether two distinct cells touch, diagonals included.
func adjacent(a, b Coord) bool {
	dr := a.Row - b.Row
	dc := a.Col - b.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr <= 1 && dc <= 1 && (dr+dc) > 0
}

// ConsumeTiles replaces each consumed cell's letter with a freshly drawn
// one and clears its bonus and gem flags. Called after a word is scored.
func (g *Grid) ConsumeTiles(path []Coord, rng *rand.Rand) {
	for _, c := range path {
		if c.Row < 0 || c.Row >= g.Rows || c.Col < 0 || c.Col >= g.Cols {
			continue
		}
		cell := &g.Cells[c.Row][c.Col]
		cell.Letter = DrawLetter(rng)
		cell.Bonus = models.BonusNone
		cell.IsGem = false
	}
}

// ShuffleLetters redraws every letter on the board. Bonus and gem
// placement is preserved; only letters change.
func (g *Grid) ShuffleLetters(rng *rand.Rand) {
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			g.Cells[r][c].Letter = DrawLetter(rng)
		}
	}
}

// Clone returns a deep copy of the grid, used for broadcast snapshots so
// readers never alias the match-owned board.
func (g *Grid) Clone() *Grid {
	cp := &Grid{Rows: g.Rows, Cols: g.Cols, Cells: make([][]models.Tile, g.Rows)}
	for r := range g.Cells {
		cp.Cells[r] = make([]models.Tile, g.Cols)
		copy(cp.Cells[r], g.Cells[r])
	}
	return cp
}
