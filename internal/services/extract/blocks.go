package extract

import (
	"regexp"
	"strings"
)

// Block is one run of non-blank lines in a normalized email body
type Block struct {
	// Index is the 1-based position of the block in the body
	Index int
	Text  string
}

// SplitBlocks segments text into maximal runs of non-blank lines
func SplitBlocks(text string) []Block {
	var (
		blocks  []Block
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, Block{Index: len(blocks) + 1, Text: strings.Join(current, "\n")})
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// markerSet finds excluded-program phrases as whole words, ignoring case
type markerSet struct {
	names    []string
	patterns []*regexp.Regexp
}

func newMarkerSet(markers []string) markerSet {
	m := markerSet{}
	for _, marker := range markers {
		words := strings.Fields(marker)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		m.names = append(m.names, marker)
		m.patterns = append(m.patterns, regexp.MustCompile(`(?i)\b`+strings.Join(words, `\s+`)+`\b`))
	}
	return m
}

// find returns the first marker present in text
func (m markerSet) find(text string) (string, bool) {
	for i, p := range m.patterns {
		if p.MatchString(text) {
			return m.names[i], true
		}
	}
	return "", false
}
