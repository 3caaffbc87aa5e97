// internal/words/words_test.go
package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDictionaryLookupIsCaseInsensitive(t *testing.T) {
	d := NewMapDictionary("cat", "Dog", " bird ")

	assert.True(t, d.IsValidWord("CAT"))
	assert.True(t, d.IsValidWord("dog"))
	assert.True(t, d.IsValidWord("Bird"))
	assert.False(t, d.IsValidWord("fish"))
	assert.Equal(t, 3, d.Len())
}

func TestLoadFileSkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "# header\ncat\n\nDOG\n  bird\n# trailing\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len())
	assert.True(t, d.IsValidWord("cat"))
	assert.True(t, d.IsValidWord("dog"))
	assert.False(t, d.IsValidWord("# header"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
