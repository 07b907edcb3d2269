package extract

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// TextRenderer renders the visible text of an HTML document
type TextRenderer interface {
	Render(markup string) (string, error)
}

// GoqueryRenderer renders HTML with goquery. Table cells are tab separated
// and rows and line-level elements end a line. A paragraph ends a block when
// it holds several lines and a line when it holds one, so both one paragraph
// per registrant and one paragraph per label render as blocks of labels.
type GoqueryRenderer struct{}

var _ TextRenderer = GoqueryRenderer{}

func (GoqueryRenderer) Render(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	renderNodes(&b, doc.Selection)
	return b.String(), nil
}

func renderNodes(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch name {
		case "#text":
			writeText(b, node.Text())
			return
		case "#comment", "head", "script", "style", "title", "noscript":
			return
		case "br":
			b.WriteByte('\n')
			return
		case "hr":
			b.WriteString("\n\n")
			return
		}

		start := b.Len()
		renderNodes(b, node)

		switch name {
		case "td", "th":
			b.WriteByte('\t')
		case "tr", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteByte('\n')
		case "p":
			if strings.Contains(strings.TrimRight(b.String()[start:], " \n"), "\n") {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		case "table", "ul", "ol":
			b.WriteString("\n\n")
		}
	})
}

// writeText appends text with runs of whitespace collapsed to one space.
// Whitespace at the start of a line is dropped.
func writeText(b *strings.Builder, text string) {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		if text != "" {
			writeSpace(b)
		}
		return
	}

	if r, _ := utf8.DecodeRuneInString(text); unicode.IsSpace(r) {
		writeSpace(b)
	}
	b.WriteString(strings.Join(fields, " "))
	if r, _ := utf8.DecodeLastRuneInString(text); unicode.IsSpace(r) {
		writeSpace(b)
	}
}

func writeSpace(b *strings.Builder) {
	s := b.String()
	if s == "" {
		return
	}
	switch s[len(s)-1] {
	case ' ', '\t', '\n':
		return
	}
	b.WriteByte(' ')
}
