package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mlorentedev/doctran/internal/apperr"
)

// TextStrategy decodes plain text and JSON. A byte order mark selects UTF-8
// or UTF-16; invalid sequences become U+FFFD.
type TextStrategy struct{}

func (TextStrategy) Name() string { return "text" }

func (TextStrategy) Extract(_ context.Context, data []byte) (Output, error) {
	var notes []string
	switch {
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}), bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		notes = append(notes, "decoded UTF-16 text")
	case !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) && !utf8.Valid(data):
		notes = append(notes, "replaced invalid UTF-8 sequences")
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(dec, data)
	if err != nil {
		return Output{}, apperr.Extraction("Unable to decode text file", err)
	}
	return Output{
		Text:  strings.ToValidUTF8(string(decoded), "�"),
		Notes: notes,
	}, nil
}
