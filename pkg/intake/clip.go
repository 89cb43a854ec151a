package intake

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// MaxDocumentRunes bounds the text an uploaded document contributes to a
// prompt.
const MaxDocumentRunes = 60000

const clipChunkRunes = 2000

// sentenceEnds are the separators that stay attached to the chunk before
// them.
var sentenceEnds = []string{"。", "."}

// Clip keeps the leading chunks of text that fit in budget runes. Chunks
// break on paragraph, line and sentence boundaries, so a clipped document
// never ends mid-sentence unless one sentence exceeds a chunk. The result is
// a prefix of text, separators included. It reports whether anything was
// dropped.
func Clip(text string, budget int) (string, bool, error) {
	if budget <= 0 || utf8.RuneCountInString(text) <= budget {
		return text, false, nil
	}

	size := clipChunkRunes
	if budget < size {
		size = budget
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators([]string{"\n\n", "\n", "。", ". ", " ", ""}),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return "", false, err
	}

	// Chunks are trimmed substrings of text in order; cut text after the
	// last one that fits instead of re-joining them.
	end, used := 0, 0
	for _, c := range chunks {
		i := strings.Index(text[end:], c)
		if i < 0 {
			break
		}
		stop := end + i + len(c)
		n := utf8.RuneCountInString(text[end:stop])
		if used+n > budget {
			break
		}
		for _, sep := range sentenceEnds {
			if strings.HasPrefix(text[stop:], sep) && used+n+1 <= budget {
				stop += len(sep)
				n++
				break
			}
		}
		end, used = stop, used+n
	}
	return strings.TrimRightFunc(text[:end], unicode.IsSpace), true, nil
}
