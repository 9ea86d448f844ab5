package extract

import (
	"bytes"
	"context"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/mlorentedev/doctran/internal/apperr"
)

// HTMLStrategy drops markup, scripts and styles and collapses whitespace.
type HTMLStrategy struct{}

func (HTMLStrategy) Name() string { return "html" }

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

func (HTMLStrategy) Extract(_ context.Context, data []byte) (Output, error) {
	z := html.NewTokenizer(bytes.NewReader(data))
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return Output{}, apperr.Extraction("Unable to parse HTML document", err)
			}
			return Output{Text: strings.Join(strings.Fields(b.String()), " ")}, nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}
