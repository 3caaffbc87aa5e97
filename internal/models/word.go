// internal/models/word.go
package models

// WordResult is the scoring engine's verdict for one accepted word.
// It is produced once and never mutated afterward.
//
// BaseScore is the letter-value sum after per-letter bonuses. Multipliers
// lists the bonus tags that applied, in tile selection order. FinalScore
// includes word multipliers and the long-word bonus, but not gem bonuses,
// which are a match-level concern.
type WordResult struct {
	Word        string   `json:"word"`
	BaseScore   int      `json:"baseScore"`
	Multipliers []string `json:"multipliers,omitempty"`
	FinalScore  int      `json:"finalScore"`
}
