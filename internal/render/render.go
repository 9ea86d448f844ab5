// Package render formats a translation for display and builds the
// processing-summary block attached to extracted content.
package render

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/mlorentedev/doctran/internal/adapter"
	"github.com/mlorentedev/doctran/internal/extract"
	"github.com/mlorentedev/doctran/internal/prompt"
)

const (
	summaryHeader = "--- Processing Summary ---"
	summaryFooter = "--- End Summary ---"
	stepSeparator = " → "
)

// Summary describes how a document was processed.
type Summary struct {
	File       string   `json:"file"`
	Type       string   `json:"type"`
	SizeKB     float64  `json:"sizeKB"`
	Steps      []string `json:"steps"`
	Characters int      `json:"characters"`
}

// Renderable is the formatted output of one translation.
type Renderable struct {
	HTML    string
	Summary Summary
	Text    string
}

// Format wraps the translated text in an HTML container and summarises the
// extraction that produced it.
func Format(resp adapter.Response, res extract.Result, meta prompt.FileMeta) Renderable {
	return Renderable{
		HTML:    HTML(resp.Text),
		Summary: NewSummary(res, meta),
		Text:    resp.Text,
	}
}

// HTML escapes text into a whitespace-preserving container.
func HTML(text string) string {
	return `<div class="translation" style="white-space: pre-wrap">` + html.EscapeString(text) + `</div>`
}

// NewSummary builds the summary of an extraction.
func NewSummary(res extract.Result, meta prompt.FileMeta) Summary {
	typ := res.Source
	if typ == "" {
		typ = "Document"
	}
	name := meta.Name
	if name == "" {
		name = "Document"
	}
	return Summary{
		File:       name,
		Type:       typ,
		SizeKB:     float64(meta.Size) / 1024,
		Steps:      append([]string(nil), res.Steps...),
		Characters: res.Chars(),
	}
}

// String renders the summary block.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(summaryHeader + "\n")
	fmt.Fprintf(&b, "File: %s\n", s.File)
	fmt.Fprintf(&b, "Type: %s\n", s.Type)
	fmt.Fprintf(&b, "Size: %.1f KB\n", s.SizeKB)
	fmt.Fprintf(&b, "Steps: %s\n", strings.Join(s.Steps, stepSeparator))
	fmt.Fprintf(&b, "Characters: %d\n", s.Characters)
	b.WriteString(summaryFooter)
	return b.String()
}

// AppendSummary produces the content returned by /process-file: the text
// followed by a blank line and the summary block.
func AppendSummary(text string, s Summary) string {
	return text + "\n\n" + s.String()
}

// ParseSummary reads back the last summary block found in s.
func ParseSummary(s string) (Summary, error) {
	start := strings.LastIndex(s, summaryHeader)
	if start < 0 {
		return Summary{}, fmt.Errorf("render: summary header not found")
	}
	block := s[start+len(summaryHeader):]
	end := strings.Index(block, summaryFooter)
	if end < 0 {
		return Summary{}, fmt.Errorf("render: summary footer not found")
	}
	block = block[:end]

	var sum Summary
	seen := 0
	sc := bufio.NewScanner(strings.NewReader(block))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ": ")
		if !ok {
			key, value, ok = strings.Cut(sc.Text(), ":")
			if !ok {
				continue
			}
		}
		switch key {
		case "File":
			sum.File = value
		case "Type":
			sum.Type = value
		case "Size":
			kb, err := strconv.ParseFloat(strings.TrimSuffix(value, " KB"), 64)
			if err != nil {
				return Summary{}, fmt.Errorf("render: parse size %q: %w", value, err)
			}
			sum.SizeKB = kb
		case "Steps":
			if value != "" {
				sum.Steps = strings.Split(value, stepSeparator)
			}
		case "Characters":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Summary{}, fmt.Errorf("render: parse characters %q: %w", value, err)
			}
			sum.Characters = n
		default:
			continue
		}
		seen++
	}
	if err := sc.Err(); err != nil {
		return Summary{}, fmt.Errorf("render: scan summary: %w", err)
	}
	if seen < 5 {
		return Summary{}, fmt.Errorf("render: summary block incomplete")
	}
	return sum, nil
}
