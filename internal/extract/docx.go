package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mlorentedev/doctran/internal/apperr"
)

const maxDocumentXML = 64 << 20

var errNoDocumentXML = errors.New("word/document.xml not found in archive")

// DOCXStrategy reads the paragraphs of word/document.xml from an OOXML
// package.
type DOCXStrategy struct{}

func (DOCXStrategy) Name() string { return "docx" }

func (DOCXStrategy) Extract(ctx context.Context, data []byte) (Output, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Output{}, apperr.Extraction("Unable to open Word document", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return Output{}, apperr.Extraction("Unable to open Word document", errNoDocumentXML)
	}

	rc, err := doc.Open()
	if err != nil {
		return Output{}, apperr.Extraction("Unable to open Word document", err)
	}
	defer rc.Close()

	text, paragraphs, err := documentText(ctx, io.LimitReader(rc, maxDocumentXML))
	if err != nil {
		return Output{}, apperr.Extraction("Unable to parse Word document", err)
	}
	return Output{
		Text:  text,
		Notes: []string{fmt.Sprintf("%d paragraphs", paragraphs)},
	}, nil
}

// documentText walks WordprocessingML, emitting run text with paragraph,
// tab and break separators.
func documentText(ctx context.Context, r io.Reader) (string, int, error) {
	dec := xml.NewDecoder(r)
	var (
		b          strings.Builder
		inText     bool
		paragraphs int
	)
	for {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
				paragraphs++
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), paragraphs, nil
}
