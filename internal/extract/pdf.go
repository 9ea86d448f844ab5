package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mlorentedev/doctran/internal/apperr"
)

var disableConfigDir sync.Once

// PDFStrategy reads the page structure with pdfcpu and the text layer with
// ledongthuc/pdf.
type PDFStrategy struct {
	conf *model.Configuration
}

func NewPDFStrategy() *PDFStrategy {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFStrategy{conf: conf}
}

func (*PDFStrategy) Name() string { return "pdf" }

func (s *PDFStrategy) Extract(ctx context.Context, data []byte) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Extraction("Unable to parse PDF document", fmt.Errorf("pdf reader: %v", r))
		}
	}()

	var notes []string
	pctx, perr := api.ReadContext(bytes.NewReader(data), s.conf)
	switch {
	case perr != nil && strings.Contains(strings.ToLower(perr.Error()), "password"):
		return Output{}, apperr.Extraction("Unable to extract text from PDF document. The file is password-protected.", perr)
	case perr == nil && pctx.XRefTable != nil:
		notes = append(notes, fmt.Sprintf("%d pages", pctx.PageCount))
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Output{}, apperr.Extraction("Unable to open PDF document. The file might be corrupted or password-protected.", err)
	}
	var b strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return Output{}, apperr.Extraction("Extraction cancelled", err)
		}
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			notes = append(notes, fmt.Sprintf("page %d unreadable", n))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(content))
	}
	return Output{Text: strings.TrimSpace(b.String()), Notes: notes}, nil
}
