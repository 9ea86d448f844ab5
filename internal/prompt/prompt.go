// Package prompt builds the provider-neutral translation request.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mlorentedev/doctran/internal/lang"
)

// Mode selects between document translation and a free-form question.
type Mode int

const (
	ModeFile Mode = iota
	ModeConversation
)

func (m Mode) String() string {
	if m == ModeConversation {
		return "conversation"
	}
	return "file"
}

// FileMeta describes the uploaded document a request was built from.
type FileMeta struct {
	Name string
	Type string
	Size int64
}

// Options carries the optional hints and overrides for Build.
type Options struct {
	Tone        string
	ContentType string
	File        FileMeta
	// System replaces DefaultSystem when non-empty.
	System string
}

// Request is the provider-neutral translation request. Chat providers send
// System and User; dedicated translation providers send SourceText and
// TargetLanguage.
type Request struct {
	SourceText     string
	TargetLanguage string
	LanguageName   string
	Tone           string
	ContentType    string
	Mode           Mode
	System         string
	User           string
	File           FileMeta
}

// DefaultSystem is the fixed assistant context sent to chat providers.
const DefaultSystem = `You are a professional file translation assistant. You help users translate their documents and files quickly and accurately.

Your job is to translate file content, not to engage in general conversation. When given a document:
1. Translate the full content into the requested target language.
2. Preserve paragraph breaks, lists and headings.
3. Keep names, numbers, code and URLs unchanged.
4. Respect the requested tone and content type when given.

When asked a question instead of given a document, answer briefly and guide the user toward uploading a file for translation.

Return only the translation or the answer. Keep responses concise and actionable.`

const defaultFileLabel = "Document"

// Build assembles the request for source in the given mode. Unknown
// language codes are used verbatim as the display name.
func Build(source, language string, mode Mode, opts Options) Request {
	name := lang.Name(language)
	system := opts.System
	if strings.TrimSpace(system) == "" {
		system = DefaultSystem
	}

	req := Request{
		SourceText:     source,
		TargetLanguage: language,
		LanguageName:   name,
		Tone:           opts.Tone,
		ContentType:    opts.ContentType,
		Mode:           mode,
		System:         system,
		File:           opts.File,
	}

	if mode == ModeConversation {
		req.User = fmt.Sprintf(`User Question: "%s"

Please provide a brief, helpful response focused on file translation assistance. If the user is asking about general translation or language questions, guide them toward uploading a file for translation.`, source)
		return req
	}

	fileName := opts.File.Name
	if fileName == "" {
		fileName = defaultFileLabel
	}
	fileType := opts.File.Type
	if fileType == "" {
		fileType = defaultFileLabel
	}

	var b strings.Builder
	b.WriteString("File Translation Request:\n\n")
	b.WriteString("**File Details:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", fileName)
	fmt.Fprintf(&b, "- Type: %s\n", fileType)
	fmt.Fprintf(&b, "- Target Language: %s\n", name)
	if opts.Tone != "" {
		fmt.Fprintf(&b, "- Tone: %s\n", opts.Tone)
	}
	if opts.ContentType != "" {
		fmt.Fprintf(&b, "- Content Type: %s\n", opts.ContentType)
	}
	b.WriteString("\n**Content to Translate:**\n")
	b.WriteString(source)
	b.WriteString("\n\nPlease provide a professional translation of the document content. Keep the response concise and focused on the translation task.")
	req.User = b.String()
	return req
}
