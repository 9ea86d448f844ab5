// Package design inspects the static HTML and CSS of a web page and reports
// its colors, typography, layout values and component patterns. Scripts are
// never executed.
package design

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mlorentedev/doctran/internal/apperr"
)

const (
	defaultMaxBytes    = 5 << 20
	defaultTimeout     = 15 * time.Second
	maxLinkedSheets    = 5
	maxComponents      = 50
	maxComponentText   = 100
	primaryColorsLimit = 10
	userAgent          = "doctran-design-inspector/1.0"
)

type Analysis struct {
	Colors       Colors            `json:"colors"`
	Typography   Typography        `json:"typography"`
	Layout       Layout            `json:"layout"`
	Components   Components        `json:"components"`
	CSSVariables map[string]string `json:"cssVariables"`
	RawCSS       string            `json:"rawCSS"`
}

type Colors struct {
	Primary    []string `json:"primary"`
	Secondary  []string `json:"secondary"`
	Background []string `json:"background"`
	Text       []string `json:"text"`
}

type Typography struct {
	Fonts       []string `json:"fonts"`
	FontSizes   []string `json:"fontSizes"`
	LineHeights []string `json:"lineHeights"`
}

type Layout struct {
	MaxWidths   []string `json:"maxWidths"`
	Spacing     []string `json:"spacing"`
	Breakpoints []string `json:"breakpoints"`
}

type Components struct {
	Buttons    []Component `json:"buttons"`
	Inputs     []Component `json:"inputs"`
	Cards      []Component `json:"cards"`
	Navigation []Component `json:"navigation"`
}

// Component is one element matched as a UI pattern.
type Component struct {
	Tag         string `json:"tag"`
	Text        string `json:"text,omitempty"`
	Classes     string `json:"classes,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Inspector fetches pages for analysis.
type Inspector struct {
	Client   *http.Client
	MaxBytes int64
	Logger   *slog.Logger
}

// New returns an Inspector. A nil client gets one that only connects to
// public addresses.
func New(client *http.Client, logger *slog.Logger) *Inspector {
	if client == nil {
		client = publicOnlyClient(defaultTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{Client: client, MaxBytes: defaultMaxBytes, Logger: logger}
}

// Analyze fetches rawURL and up to five of its linked stylesheets, then
// inspects them.
func (i *Inspector) Analyze(ctx context.Context, rawURL string) (Analysis, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Analysis{}, apperr.Validation("URL must be an absolute http or https address")
	}

	page, err := i.fetch(ctx, u.String())
	if errors.Is(err, errPrivateAddress) {
		return Analysis{}, apperr.Validation("URL must point to a public address")
	}
	if err != nil {
		return Analysis{}, apperr.Provider("Failed to analyze website design", err)
	}

	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return Analysis{}, apperr.Provider("Failed to analyze website design", fmt.Errorf("design: parse html: %w", err))
	}
	s := scan(doc)

	for n, href := range s.links {
		if n == maxLinkedSheets {
			break
		}
		ref, err := u.Parse(href)
		if err != nil {
			continue
		}
		css, err := i.fetch(ctx, ref.String())
		if err != nil {
			i.Logger.Debug("design: skipping stylesheet", "href", ref.String(), "error", err)
			continue
		}
		s.sheets = append(s.sheets, string(css))
	}

	return s.analysis(), nil
}

// Inspect analyses an HTML document without fetching anything.
func Inspect(page []byte) (Analysis, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return Analysis{}, fmt.Errorf("design: parse html: %w", err)
	}
	return scan(doc).analysis(), nil
}

func (i *Inspector) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("design: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("design: fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("design: fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	limit := i.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("design: read %s: %w", target, err)
	}
	return body, nil
}

type scanResult struct {
	sheets     []string
	inline     []string
	links      []string
	components Components
}

func scan(doc *html.Node) *scanResult {
	s := &scanResult{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			s.visit(n)
			if n.DataAtom == atom.Script {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return s
}

func (s *scanResult) visit(n *html.Node) {
	classes := attr(n, "class")
	lowerClasses := strings.ToLower(classes)

	if style := attr(n, "style"); style != "" {
		s.inline = append(s.inline, style)
	}

	switch n.DataAtom {
	case atom.Style:
		s.sheets = append(s.sheets, textContent(n))
	case atom.Link:
		if strings.EqualFold(attr(n, "rel"), "stylesheet") && attr(n, "href") != "" {
			s.links = append(s.links, attr(n, "href"))
		}
	case atom.Input, atom.Textarea, atom.Select:
		add(&s.components.Inputs, Component{
			Tag:         n.Data,
			Type:        attr(n, "type"),
			Placeholder: attr(n, "placeholder"),
			Classes:     classes,
		})
	case atom.Nav:
		add(&s.components.Navigation, Component{Tag: n.Data, Text: clip(textContent(n)), Classes: classes})
	}

	if n.DataAtom == atom.Button || attr(n, "role") == "button" || hasClassToken(lowerClasses, "btn") {
		add(&s.components.Buttons, Component{Tag: n.Data, Text: clip(textContent(n)), Classes: classes})
	}
	if strings.Contains(lowerClasses, "card") {
		add(&s.components.Cards, Component{Tag: n.Data, Text: clip(textContent(n)), Classes: classes})
	}
}

func (s *scanResult) analysis() Analysis {
	var (
		background = newSet()
		text       = newSet()
		fonts      = newSet()
		sizes      = newSet()
		lines      = newSet()
		widths     = newSet()
		spacing    = newSet()
		vars       = map[string]string{}
	)

	apply := func(d declaration) {
		switch {
		case strings.HasPrefix(d.prop, "--"):
			vars[d.prop] = d.value
		case d.prop == "background" || d.prop == "background-color":
			background.add(colorValues(d.value)...)
		case d.prop == "color":
			text.add(colorValues(d.value)...)
		case d.prop == "font-family":
			fonts.add(d.value)
		case d.prop == "font-size":
			sizes.add(d.value)
		case d.prop == "line-height":
			lines.add(d.value)
		case d.prop == "max-width":
			widths.add(d.value)
		case d.prop == "padding" || d.prop == "margin" || d.prop == "gap":
			spacing.add(d.value)
		}
	}

	for _, css := range s.sheets {
		for _, d := range stylesheetDeclarations(css) {
			apply(d)
		}
	}
	for _, style := range s.inline {
		for _, d := range parseDeclarations(style) {
			apply(d)
		}
	}

	bg := background.list()
	a := Analysis{
		Colors: Colors{
			Primary:    window(bg, 0, primaryColorsLimit),
			Secondary:  window(bg, primaryColorsLimit, 2*primaryColorsLimit),
			Background: bg,
			Text:       text.list(),
		},
		Typography: Typography{
			Fonts:       fonts.list(),
			FontSizes:   sizes.list(),
			LineHeights: lines.list(),
		},
		Layout: Layout{
			MaxWidths:   widths.list(),
			Spacing:     spacing.list(),
			Breakpoints: breakpoints(s.sheets),
		},
		Components:   s.components,
		CSSVariables: vars,
		RawCSS:       strings.TrimSpace(strings.Join(s.sheets, "\n")),
	}
	a.Components.normalize()
	return a
}

func (c *Components) normalize() {
	for _, l := range []*[]Component{&c.Buttons, &c.Inputs, &c.Cards, &c.Navigation} {
		if *l == nil {
			*l = []Component{}
		}
	}
}

func add(list *[]Component, c Component) {
	if len(*list) < maxComponents {
		*list = append(*list, c)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasClassToken(classes, token string) bool {
	for _, c := range strings.Fields(classes) {
		if c == token || strings.HasPrefix(c, token+"-") {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if n.DataAtom == atom.Style {
		return strings.TrimSpace(b.String())
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > maxComponentText {
		return string(r[:maxComponentText])
	}
	return s
}

func window(l []string, from, to int) []string {
	if from >= len(l) {
		return []string{}
	}
	if to > len(l) {
		to = len(l)
	}
	return append([]string{}, l[from:to]...)
}

// set keeps insertion order and drops duplicates.
type set struct {
	seen  map[string]bool
	items []string
}

func newSet() *set { return &set{seen: map[string]bool{}} }

func (s *set) add(values ...string) {
	for _, v := range values {
		if v == "" || s.seen[v] {
			continue
		}
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

func (s *set) list() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
