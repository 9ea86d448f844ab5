// Package extract turns uploaded file bytes into plain text.
//
// Formats are detected from the declared media type and file name, in this
// priority: plain text or JSON, PDF, Word, HTML. Each format is handled by
// an injected Strategy; a failed Word strategy falls back once to reading the
// raw bytes as UTF-8 text.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mlorentedev/doctran/internal/apperr"
)

const (
	DefaultMaxBytes int64 = 10 << 20
	DefaultMaxChars       = 50000

	// TruncationMarker is appended to text cut at the character ceiling.
	TruncationMarker = "\n\n[Content truncated due to length - original file was too large]"

	// DefaultMinPrintable is the share of printable runes the Word fallback
	// must reach to be accepted as text.
	DefaultMinPrintable = 0.85
)

// Format identifies the extraction strategy for an upload.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// Upload is the raw file as received at request ingress.
type Upload struct {
	Data      []byte
	MediaType string
	Name      string
	Size      int64
}

// Result is the text produced for an upload.
type Result struct {
	Text      string
	Steps     []string
	Source    string
	Format    Format
	Truncated bool
}

// Chars is the character count of the extracted text.
func (r Result) Chars() int {
	return utf8.RuneCountInString(r.Text)
}

// Output is what a single strategy produced.
type Output struct {
	Text  string
	Notes []string
}

// Strategy converts bytes of one format into text. Failures are returned as
// *apperr.Error values.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, data []byte) (Output, error)
}

// Extractor dispatches uploads to strategies and enforces size and length
// limits.
type Extractor struct {
	strategies   map[Format]Strategy
	maxBytes     int64
	maxChars     int
	minPrintable float64
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrategy replaces the strategy used for f.
func WithStrategy(f Format, s Strategy) Option {
	return func(e *Extractor) { e.strategies[f] = s }
}

func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

func WithMaxChars(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxChars = n
		}
	}
}

func WithMinPrintable(ratio float64) Option {
	return func(e *Extractor) { e.minPrintable = ratio }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an Extractor with the default strategy for every format.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: map[Format]Strategy{
			FormatText: TextStrategy{},
			FormatPDF:  NewPDFStrategy(),
			FormatDOCX: DOCXStrategy{},
			FormatHTML: HTMLStrategy{},
		},
		maxBytes:     DefaultMaxBytes,
		maxChars:     DefaultMaxChars,
		minPrintable: DefaultMinPrintable,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxBytes is the upload ceiling enforced by Extract.
func (e *Extractor) MaxBytes() int64 { return e.maxBytes }

// Extract produces text for u. The size ceiling is checked before any
// strategy runs.
func (e *Extractor) Extract(ctx context.Context, u Upload) (Result, error) {
	size := int64(len(u.Data))
	if u.Size > size {
		size = u.Size
	}
	if size > e.maxBytes {
		return Result{}, apperr.SizeLimit(size, e.maxBytes)
	}

	format, ok := Detect(u.MediaType, u.Name)
	if !ok {
		return Result{}, apperr.Unsupported(declaredType(u), SupportedTypes())
	}
	label := Label(format, u.MediaType, u.Name)

	if err := ctx.Err(); err != nil {
		return Result{}, apperr.Extraction("Extraction cancelled", err)
	}

	e.logger.Debug("extracting document", "name", u.Name, "format", format, "size", size)

	steps := []string{fmt.Sprintf("Processing %s...", label)}
	done := successStep[format]
	out, err := e.run(ctx, format, u.Data)
	if err != nil && format == FormatDOCX {
		fallback, ferr := e.run(ctx, FormatText, u.Data)
		if ferr != nil || isBlank(fallback.Text) || !Readable(fallback.Text, e.minPrintable) {
			return Result{}, apperr.Extraction(
				fmt.Sprintf("Unable to extract text from Word document: %s. The file might be corrupted or password-protected.", failureMessage(err)),
				err,
			)
		}
		e.logger.Debug("word strategy failed, using raw text", "name", u.Name, "error", err)
		steps = append(steps, "Word parsing failed, raw text fallback used")
		done = "Raw text read successfully"
		out = fallback
		err = nil
	}
	if err != nil {
		return Result{}, asExtraction(err, label)
	}

	if isBlank(out.Text) {
		return Result{}, apperr.Extraction(fmt.Sprintf("No readable content found in the %s.", label), nil)
	}

	steps = append(steps, done)
	if len(out.Notes) > 0 {
		steps = append(steps, "Processing notes: "+strings.Join(out.Notes, ", "))
	}

	text, truncated := Truncate(out.Text, e.maxChars)
	if truncated {
		steps = append(steps, "Content truncated to fit API limits")
	}

	return Result{
		Text:      text,
		Steps:     steps,
		Source:    label,
		Format:    format,
		Truncated: truncated,
	}, nil
}

func (e *Extractor) run(ctx context.Context, f Format, data []byte) (out Output, err error) {
	s, ok := e.strategies[f]
	if !ok {
		return Output{}, apperr.Extraction(fmt.Sprintf("no strategy registered for %s", f), nil)
	}
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Extraction(fmt.Sprintf("%s strategy failed", s.Name()), fmt.Errorf("panic: %v", r))
		}
	}()
	return s.Extract(ctx, data)
}

// Detect picks the format for a declared media type and file name.
func Detect(mediaType, name string) (Format, bool) {
	mt := normalizeMediaType(mediaType)
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case isTextType(mt) || textExts[ext]:
		return FormatText, true
	case mt == "application/pdf" || ext == ".pdf":
		return FormatPDF, true
	case isWordType(mt) || ext == ".docx" || ext == ".doc":
		return FormatDOCX, true
	case isHTMLType(mt) || ext == ".html" || ext == ".htm":
		return FormatHTML, true
	}
	return "", false
}

// SupportedTypes lists the media types accepted by Detect.
func SupportedTypes() []string {
	return []string{
		"text/plain",
		"application/json",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/html",
	}
}

// Label is the human-readable document type used in summaries.
func Label(f Format, mediaType, name string) string {
	switch f {
	case FormatPDF:
		return "PDF Document"
	case FormatDOCX:
		return "Word Document"
	case FormatHTML:
		return "HTML Document"
	case FormatText:
		if strings.Contains(normalizeMediaType(mediaType), "json") || strings.EqualFold(filepath.Ext(name), ".json") {
			return "JSON Document"
		}
		return "Text Document"
	}
	return "Document"
}

// Truncate cuts s to max characters and appends TruncationMarker.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + TruncationMarker, true
		}
		n++
	}
	return s, false
}

// Readable reports whether at least minRatio of the runes in s are
// printable text.
func Readable(s string, minRatio float64) bool {
	if minRatio <= 0 {
		return true
	}
	var total, printable int
	for _, r := range s {
		total++
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if total == 0 {
		return false
	}
	return float64(printable)/float64(total) >= minRatio
}

var successStep = map[Format]string{
	FormatText: "Text content read successfully",
	FormatPDF:  "PDF text extracted successfully",
	FormatDOCX: "Word document text extracted successfully",
	FormatHTML: "HTML content cleaned successfully",
}

var textExts = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
	".csv":  true,
	".log":  true,
	".json": true,
}

func normalizeMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return mt
}

func isHTMLType(mt string) bool {
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func isTextType(mt string) bool {
	if isHTMLType(mt) {
		return false
	}
	return strings.HasPrefix(mt, "text/") || mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func isWordType(mt string) bool {
	return mt == "application/msword" || strings.Contains(mt, "wordprocessingml") || strings.Contains(mt, "word")
}

func declaredType(u Upload) string {
	if u.MediaType != "" {
		return u.MediaType
	}
	if ext := filepath.Ext(u.Name); ext != "" {
		return ext
	}
	return "unknown"
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func failureMessage(err error) string {
	if e := apperr.From(err); e.Cause != nil {
		return e.Cause.Error()
	}
	return err.Error()
}

func asExtraction(err error, label string) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Extraction(fmt.Sprintf("Unable to extract text from %s", label), err)
}
