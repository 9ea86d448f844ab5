package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlorentedev/doctran/internal/apperr"
)

type countingStrategy struct {
	calls atomic.Int32
	out   Output
	err   error
}

func (c *countingStrategy) Name() string { return "counting" }

func (c *countingStrategy) Extract(context.Context, []byte) (Output, error) {
	c.calls.Add(1)
	return c.out, c.err
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "panicking" }

func (panickingStrategy) Extract(context.Context, []byte) (Output, error) {
	panic("malformed xref table")
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	_, err = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body.String())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func TestExtractPlainText(t *testing.T) {
	e := New()
	res, err := e.Extract(context.Background(), Upload{
		Data:      []byte("Hello world"),
		MediaType: "text/plain",
		Name:      "notes.txt",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, FormatText, res.Format)
	assert.Equal(t, "Text Document", res.Source)
	assert.False(t, res.Truncated)
	assert.Equal(t, 11, res.Chars())
	assert.Equal(t, "Processing Text Document...", res.Steps[0])
}

func TestExtractJSONLabel(t *testing.T) {
	res, err := New().Extract(context.Background(), Upload{
		Data:      []byte(`{"greeting":"hola"}`),
		MediaType: "application/json",
		Name:      "data.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "JSON Document", res.Source)
	assert.Equal(t, `{"greeting":"hola"}`, res.Text)
}

func TestExtractSizeCeiling(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"exactly at limit", DefaultMaxBytes, false},
		{"one byte over", DefaultMaxBytes + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &countingStrategy{out: Output{Text: "ok"}}
			e := New(WithStrategy(FormatText, s))

			_, err := e.Extract(context.Background(), Upload{
				Data:      []byte("ok"),
				MediaType: "text/plain",
				Size:      tt.size,
			})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, int32(1), s.calls.Load())
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.KindSizeLimit, apperr.KindOf(err))
			assert.Contains(t, err.Error(), "10MB")
			assert.Equal(t, int32(0), s.calls.Load(), "no strategy may run past the size ceiling")
		})
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	counters := map[Format]*countingStrategy{}
	var opts []Option
	for _, f := range []Format{FormatText, FormatPDF, FormatDOCX, FormatHTML} {
		c := &countingStrategy{out: Output{Text: "x"}}
		counters[f] = c
		opts = append(opts, WithStrategy(f, c))
	}
	e := New(opts...)

	_, err := e.Extract(context.Background(), Upload{
		Data:      []byte{0x89, 'P', 'N', 'G'},
		MediaType: "image/png",
		Name:      "logo.png",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnsupported, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "image/png")
	for f, c := range counters {
		assert.Equal(t, int32(0), c.calls.Load(), "strategy %s invoked", f)
	}
}

func TestExtractDOCX(t *testing.T) {
	res, err := New().Extract(context.Background(), Upload{
		Data:      buildDOCX(t, "Hello", "World"),
		MediaType: docxType,
		Name:      "letter.docx",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello\nWorld", res.Text)
	assert.Equal(t, "Word Document", res.Source)
	assert.Contains(t, res.Steps, "Processing Word Document...")
	assert.Contains(t, res.Steps, "Word document text extracted successfully")
	assert.Contains(t, res.Steps, "Processing notes: 2 paragraphs")
}

func TestExtractDOCXFallsBackToRawText(t *testing.T) {
	res, err := New().Extract(context.Background(), Upload{
		Data:      []byte("This was saved as plain text but named like a Word file."),
		MediaType: docxType,
		Name:      "mislabeled.docx",
	})
	require.NoError(t, err)

	assert.Equal(t, "This was saved as plain text but named like a Word file.", res.Text)
	assert.Equal(t, []string{
		"Processing Word Document...",
		"Word parsing failed, raw text fallback used",
		"Raw text read successfully",
	}, res.Steps)
	assert.NotContains(t, res.Steps, "Word document text extracted successfully")
}

func TestExtractDOCXFallbackRejectsBinary(t *testing.T) {
	_, err := New().Extract(context.Background(), Upload{
		Data:      bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 64),
		MediaType: docxType,
		Name:      "broken.docx",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Unable to extract text from Word document")
	assert.Contains(t, err.Error(), "zip")
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte{0x00, 0xFF}, 256))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = New().Extract(context.Background(), Upload{Data: buf.Bytes(), MediaType: docxType})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNoDocumentXML))
}

func TestExtractTruncation(t *testing.T) {
	input := strings.Repeat("a", DefaultMaxChars+1)
	res, err := New().Extract(context.Background(), Upload{Data: []byte(input), MediaType: "text/plain"})
	require.NoError(t, err)

	require.True(t, res.Truncated)
	assert.True(t, strings.HasSuffix(res.Text, TruncationMarker))
	assert.Equal(t, strings.Repeat("a", DefaultMaxChars), strings.TrimSuffix(res.Text, TruncationMarker))
	assert.Contains(t, res.Steps, "Content truncated to fit API limits")
}

func TestExtractAtCharacterLimitNotTruncated(t *testing.T) {
	input := strings.Repeat("b", DefaultMaxChars)
	res, err := New().Extract(context.Background(), Upload{Data: []byte(input), MediaType: "text/plain"})
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.Equal(t, input, res.Text)
}

func TestTruncateCountsRunes(t *testing.T) {
	got, truncated := Truncate("日本語のテキスト", 3)
	require.True(t, truncated)
	assert.Equal(t, "日本語"+TruncationMarker, got)
	assert.True(t, utf8.ValidString(got))
}

func TestExtractBlankContent(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		mediaType string
	}{
		{"empty text", "", "text/plain"},
		{"whitespace text", " \n\t  ", "text/plain"},
		{"markup only", "<html><head><style>p{}</style></head><body></body></html>", "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(context.Background(), Upload{Data: []byte(tt.data), MediaType: tt.mediaType})
			require.Error(t, err)
			assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
			assert.Contains(t, err.Error(), "No readable content")
		})
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<html><head><title>Menu</title><style>body { color: red; }</style>
<script>alert("hi")</script></head>
<body><h1>Welcome</h1>   <p>Fish &amp; chips</p></body></html>`

	res, err := New().Extract(context.Background(), Upload{Data: []byte(page), MediaType: "text/html", Name: "menu.html"})
	require.NoError(t, err)

	assert.Equal(t, "Menu Welcome Fish & chips", res.Text)
	assert.Equal(t, "HTML Document", res.Source)
	assert.NotContains(t, res.Text, "alert")
	assert.NotContains(t, res.Text, "color")
}

func TestExtractInvalidPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), Upload{
		Data:      []byte("%PDF-1.4 this is not really a pdf"),
		MediaType: "application/pdf",
		Name:      "report.pdf",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}

func TestExtractStrategyPanicBecomesExtractionError(t *testing.T) {
	e := New(WithStrategy(FormatPDF, panickingStrategy{}))
	_, err := e.Extract(context.Background(), Upload{Data: []byte("%PDF"), MediaType: "application/pdf"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "malformed xref table")
}

func TestExtractCancelledContext(t *testing.T) {
	s := &countingStrategy{out: Output{Text: "x"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithStrategy(FormatText, s)).Extract(ctx, Upload{Data: []byte("x"), MediaType: "text/plain"})
	require.Error(t, err)
	assert.Equal(t, int32(0), s.calls.Load())
}

func TestTextStrategyDecoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8 bom", []byte("\xEF\xBB\xBFhola"), "hola"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"invalid utf8", []byte("ab\xffcd"), "ab�cd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := TextStrategy{}.Extract(context.Background(), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Text)
			assert.True(t, utf8.ValidString(out.Text))
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		mediaType string
		name      string
		want      Format
		ok        bool
	}{
		{"text/plain", "", FormatText, true},
		{"text/plain; charset=utf-8", "", FormatText, true},
		{"application/json", "", FormatText, true},
		{"text/markdown", "", FormatText, true},
		{"application/pdf", "", FormatPDF, true},
		{docxType, "", FormatDOCX, true},
		{"application/msword", "", FormatDOCX, true},
		{"text/html", "", FormatHTML, true},
		{"", "page.htm", FormatHTML, true},
		{"", "paper.PDF", FormatPDF, true},
		{"application/octet-stream", "notes.txt", FormatText, true},
		{"image/png", "logo.png", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType+"|"+tt.name, func(t *testing.T) {
			got, ok := Detect(tt.mediaType, tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadable(t *testing.T) {
	assert.True(t, Readable("plain words", 0.85))
	assert.False(t, Readable("\x01\x02\x03\x04", 0.85))
	assert.False(t, Readable("", 0.85))
}
