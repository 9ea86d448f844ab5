// Package pipeline runs one document or message through extraction,
// request building, translation and formatting.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mlorentedev/doctran/internal/adapter"
	"github.com/mlorentedev/doctran/internal/apperr"
	"github.com/mlorentedev/doctran/internal/extract"
	"github.com/mlorentedev/doctran/internal/lang"
	"github.com/mlorentedev/doctran/internal/metrics"
	"github.com/mlorentedev/doctran/internal/prompt"
	"github.com/mlorentedev/doctran/internal/render"
)

const DefaultTimeout = 30 * time.Second

// Extractor turns an upload into text.
type Extractor interface {
	Extract(ctx context.Context, u extract.Upload) (extract.Result, error)
}

// Config wires a Pipeline.
type Config struct {
	Providers       map[string]adapter.Provider
	DefaultProvider string
	Extractor       Extractor
	// System overrides the default assistant context for chat providers.
	System  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Pipeline is safe for concurrent use; it holds no per-request state.
type Pipeline struct {
	providers       map[string]adapter.Provider
	defaultProvider string
	extractor       Extractor
	system          string
	timeout         time.Duration
	logger          *slog.Logger
}

func New(cfg Config) *Pipeline {
	p := &Pipeline{
		providers:       cfg.Providers,
		defaultProvider: cfg.DefaultProvider,
		extractor:       cfg.Extractor,
		system:          cfg.System,
		timeout:         cfg.Timeout,
		logger:          cfg.Logger,
	}
	if p.providers == nil {
		p.providers = map[string]adapter.Provider{}
	}
	if p.extractor == nil {
		p.extractor = extract.New(extract.WithLogger(cfg.Logger))
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// FileInput is an uploaded document to translate.
type FileInput struct {
	Upload      extract.Upload
	Language    string
	Tone        string
	ContentType string
	Provider    string
}

// TextInput is document content that arrived already decoded as text.
type TextInput struct {
	Content     string
	FileName    string
	FileType    string
	Language    string
	Tone        string
	ContentType string
	Provider    string
}

// MessageInput is a free-form question.
type MessageInput struct {
	Message  string
	Language string
	Provider string
}

// Outcome is the result of one run. Err is set exactly when the final
// state is Failed and carries the failing stage's envelope.
type Outcome struct {
	Trace      []State
	Err        *apperr.Error
	Extraction extract.Result
	Request    prompt.Request
	Response   adapter.Response
	Rendered   render.Renderable
	// Content is the extracted text with its summary, set by ProcessFile.
	Content  string
	Provider string
}

// Final is the last state reached.
func (o Outcome) Final() State {
	if len(o.Trace) == 0 {
		return Received
	}
	return o.Trace[len(o.Trace)-1]
}

// OK reports whether the run reached Done.
func (o Outcome) OK() bool {
	return o.Final() == Done
}

type run struct {
	p   *Pipeline
	out Outcome
	op  string
}

func (p *Pipeline) start(op string) *run {
	return &run{p: p, op: op, out: Outcome{Trace: []State{Received}}}
}

func (r *run) enter(s State) {
	r.out.Trace = append(r.out.Trace, s)
}

func (r *run) fail(err error) Outcome {
	stage := r.out.Final()
	e := apperr.From(err)
	r.out.Err = e
	r.enter(Failed)
	metrics.StageFailures.WithLabelValues(stage.String(), string(e.Kind)).Inc()
	r.p.logger.Warn("pipeline failed",
		"op", r.op,
		"stage", stage.String(),
		"kind", e.Kind,
		"status", e.Status,
		"error", err,
	)
	return r.out
}

func (r *run) done() Outcome {
	r.enter(Done)
	return r.out
}

// TranslateFile extracts, translates and formats an uploaded document.
func (p *Pipeline) TranslateFile(ctx context.Context, in FileInput) Outcome {
	r := p.start("translate_file")
	if err := requireLanguage(in.Language); err != nil {
		return r.fail(err)
	}
	providerID, provider, err := p.provider(in.Provider)
	if err != nil {
		return r.fail(err)
	}

	meta := prompt.FileMeta{Name: in.Upload.Name, Type: in.Upload.MediaType, Size: uploadSize(in.Upload)}
	return p.translateUpload(ctx, r, in.Upload, meta, in.Language, in.Tone, in.ContentType, providerID, provider)
}

// TranslateText translates document content supplied as text. The content
// goes through plain-text extraction so truncation and emptiness checks
// apply; the declared type is kept as metadata.
func (p *Pipeline) TranslateText(ctx context.Context, in TextInput) Outcome {
	r := p.start("translate_text")
	if err := requireLanguage(in.Language); err != nil {
		return r.fail(err)
	}
	providerID, provider, err := p.provider(in.Provider)
	if err != nil {
		return r.fail(err)
	}

	up := extract.Upload{
		Data:      []byte(in.Content),
		MediaType: "text/plain",
		Name:      in.FileName,
	}
	meta := prompt.FileMeta{Name: in.FileName, Type: in.FileType, Size: int64(len(in.Content))}
	return p.translateUpload(ctx, r, up, meta, in.Language, in.Tone, in.ContentType, providerID, provider)
}

func (p *Pipeline) translateUpload(ctx context.Context, r *run, up extract.Upload, meta prompt.FileMeta, language, tone, contentType, providerID string, provider adapter.Provider) Outcome {
	r.enter(Extracting)
	res, err := p.extractor.Extract(ctx, up)
	if err != nil {
		return r.fail(err)
	}
	r.out.Extraction = res
	metrics.ExtractedChars.WithLabelValues(string(res.Format)).Observe(float64(res.Chars()))

	r.enter(BuildingRequest)
	req := prompt.Build(res.Text, language, prompt.ModeFile, prompt.Options{
		Tone:        tone,
		ContentType: contentType,
		File:        meta,
		System:      p.system,
	})
	r.out.Request = req

	r.enter(Translating)
	resp, err := p.translate(ctx, providerID, provider, req)
	if err != nil {
		return r.fail(err)
	}
	r.out.Response = resp
	r.out.Provider = providerID

	r.enter(Formatting)
	r.out.Rendered = render.Format(resp, res, meta)

	p.logger.Info("document translated",
		"op", r.op,
		"file", meta.Name,
		"format", res.Format,
		"chars", res.Chars(),
		"truncated", res.Truncated,
		"provider", providerID,
		"fallback", resp.Fallback,
	)
	return r.done()
}

// TranslateMessage answers a free-form question; there is no extraction.
func (p *Pipeline) TranslateMessage(ctx context.Context, in MessageInput) Outcome {
	r := p.start("translate_message")
	if strings.TrimSpace(in.Message) == "" {
		return r.fail(apperr.Validation("Message or file content is required"))
	}
	if err := requireLanguage(in.Language); err != nil {
		return r.fail(err)
	}
	providerID, provider, err := p.provider(in.Provider)
	if err != nil {
		return r.fail(err)
	}

	r.enter(BuildingRequest)
	req := prompt.Build(in.Message, in.Language, prompt.ModeConversation, prompt.Options{System: p.system})
	r.out.Request = req

	r.enter(Translating)
	resp, err := p.translate(ctx, providerID, provider, req)
	if err != nil {
		return r.fail(err)
	}
	r.out.Response = resp
	r.out.Provider = providerID

	r.enter(Formatting)
	r.out.Rendered = render.Renderable{HTML: render.HTML(resp.Text), Text: resp.Text}
	return r.done()
}

// ProcessFile extracts an upload and returns its text followed by the
// processing summary. No provider is called.
func (p *Pipeline) ProcessFile(ctx context.Context, up extract.Upload) Outcome {
	r := p.start("process_file")

	r.enter(Extracting)
	res, err := p.extractor.Extract(ctx, up)
	if err != nil {
		return r.fail(err)
	}
	r.out.Extraction = res
	metrics.ExtractedChars.WithLabelValues(string(res.Format)).Observe(float64(res.Chars()))

	r.enter(Formatting)
	meta := prompt.FileMeta{Name: up.Name, Type: up.MediaType, Size: uploadSize(up)}
	summary := render.NewSummary(res, meta)
	r.out.Rendered = render.Renderable{Summary: summary, Text: res.Text}
	r.out.Content = render.AppendSummary(res.Text, summary)
	return r.done()
}

// DefaultProvider is the provider used when a request names none.
func (p *Pipeline) DefaultProvider() string {
	return p.defaultProvider
}

func (p *Pipeline) provider(id string) (string, adapter.Provider, error) {
	if id == "" {
		id = p.defaultProvider
	}
	id = strings.ToLower(strings.TrimSpace(id))
	a, ok := p.providers[id]
	if !ok {
		return "", nil, apperr.Validation("Unknown provider: %s", id)
	}
	return id, a, nil
}

func (p *Pipeline) translate(ctx context.Context, id string, a adapter.Provider, req prompt.Request) (adapter.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.Translate(ctx, req)
	metrics.TranslateDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())
	if err != nil {
		return adapter.Response{}, adapter.Classify(id, err)
	}
	if resp.Fallback {
		metrics.FallbackTranslations.WithLabelValues(languageLabel(req.TargetLanguage)).Inc()
	}
	return resp, nil
}

// languageLabel keeps metric cardinality bounded by the language table.
func languageLabel(code string) string {
	if l, ok := lang.Lookup(code); ok {
		return l.Code
	}
	return "other"
}

func requireLanguage(code string) error {
	if strings.TrimSpace(code) == "" {
		return apperr.Validation("Target language is required")
	}
	return nil
}

func uploadSize(u extract.Upload) int64 {
	if u.Size > 0 {
		return u.Size
	}
	return int64(len(u.Data))
}
