package intake

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipShortTextUnchanged(t *testing.T) {
	text, clipped, err := Clip("short notes", 100)
	require.NoError(t, err)
	assert.False(t, clipped)
	assert.Equal(t, "short notes", text)
}

func TestClipKeepsLeadingParagraphs(t *testing.T) {
	para := strings.Repeat("临床数据表明安全有效。", 10) // 110 runes
	doc := strings.Join([]string{para, para, para, para}, "\n\n")

	text, clipped, err := Clip(doc, 250)
	require.NoError(t, err)
	assert.True(t, clipped)
	assert.LessOrEqual(t, utf8.RuneCountInString(text), 250)
	assert.True(t, strings.HasPrefix(text, para))
	assert.True(t, strings.HasPrefix(doc, text))
}

func TestClipKeepsSentenceSeparators(t *testing.T) {
	doc := strings.Repeat("句子。", 2000)

	text, clipped, err := Clip(doc, 4500)
	require.NoError(t, err)
	assert.True(t, clipped)
	assert.Greater(t, utf8.RuneCountInString(text), clipChunkRunes)
	assert.LessOrEqual(t, utf8.RuneCountInString(text), 4500)
	assert.True(t, strings.HasPrefix(doc, text))
	assert.True(t, strings.HasSuffix(text, "。"))
	assert.NotContains(t, text, "子句")
	assert.NotContains(t, text, "\n")
}

func TestExtractClipsLongDocuments(t *testing.T) {
	line := strings.Repeat("a", 99) + "\n"
	doc := strings.Repeat(line, MaxDocumentRunes/50)

	text, err := Extract("long.txt", []byte(doc))
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(text), MaxDocumentRunes)
	assert.True(t, strings.HasPrefix(text, strings.TrimSpace(line)))
}
