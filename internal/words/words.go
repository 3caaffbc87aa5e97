// internal/words/words.go
package words

import (
	"bufio"
	"os"
	"strings"
)

// MapDictionary is an in-memory word set keyed by uppercase word. It is the
// default dictionary oracle implementation; lookups are case-insensitive
// and side-effect free.
type MapDictionary struct {
	words map[string]struct{}
}

// NewMapDictionary builds a dictionary from the given entries.
func NewMapDictionary(entries ...string) *MapDictionary {
	d := &MapDictionary{words: make(map[string]struct{}, len(entries))}
	for _, w := range entries {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			d.words[w] = struct{}{}
		}
	}
	return d
}

// LoadFile reads a word list, one word per line. Blank lines and lines
// starting with '#' are skipped.
func LoadFile(path string) (*MapDictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := &MapDictionary{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d.words[strings.ToUpper(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// IsValidWord reports whether word is in the set, case-insensitive.
func (d *MapDictionary) IsValidWord(word string) bool {
	_, ok := d.words[strings.ToUpper(word)]
	return ok
}

// Len returns the number of words loaded.
func (d *MapDictionary) Len() int {
	return len(d.words)
}
