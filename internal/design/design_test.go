package design

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlorentedev/doctran/internal/apperr"
)

const samplePage = `<!doctype html>
<html>
<head>
<link rel="stylesheet" href="/site.css">
<style>
/* palette */
:root { --brand: #0055ff; --gap: 8px; }
body { background-color: #ffffff; color: #222; font-family: "Inter", sans-serif; font-size: 16px; line-height: 1.5; }
.container { max-width: 1200px; margin: 0 auto; padding: 16px; }
a:hover { color: rgb(0, 85, 255); }
@media (max-width: 768px) {
  .container { padding: 8px; }
}
</style>
<script>var color = "#ff0000";</script>
</head>
<body>
<nav class="top-nav"><a href="/">Home</a> <a href="/docs">Docs</a></nav>
<div class="card product-card" style="background: #f5f5f5 url(bg.png) no-repeat">Product one</div>
<button class="btn btn-primary" type="submit">Buy now</button>
<a class="btn-link" href="#">More</a>
<input type="email" placeholder="you@example.com" class="field">
<textarea placeholder="Message"></textarea>
</body>
</html>`

func TestInspect(t *testing.T) {
	a, err := Inspect([]byte(samplePage))
	require.NoError(t, err)

	assert.Equal(t, []string{"#ffffff", "#f5f5f5"}, a.Colors.Background)
	assert.Equal(t, a.Colors.Background, a.Colors.Primary)
	assert.Empty(t, a.Colors.Secondary)
	assert.Equal(t, []string{"#222", "rgb(0, 85, 255)"}, a.Colors.Text)

	assert.Equal(t, []string{`"Inter", sans-serif`}, a.Typography.Fonts)
	assert.Equal(t, []string{"16px"}, a.Typography.FontSizes)
	assert.Equal(t, []string{"1.5"}, a.Typography.LineHeights)

	assert.Equal(t, []string{"1200px"}, a.Layout.MaxWidths)
	assert.Equal(t, []string{"0 auto", "16px", "8px"}, a.Layout.Spacing)
	assert.Equal(t, []string{"768px"}, a.Layout.Breakpoints)

	assert.Equal(t, map[string]string{"--brand": "#0055ff", "--gap": "8px"}, a.CSSVariables)
	assert.Contains(t, a.RawCSS, "max-width: 1200px")
	assert.NotContains(t, a.RawCSS, "var color")
}

func TestInspectComponents(t *testing.T) {
	a, err := Inspect([]byte(samplePage))
	require.NoError(t, err)

	require.Len(t, a.Components.Buttons, 2)
	assert.Equal(t, Component{Tag: "button", Text: "Buy now", Classes: "btn btn-primary"}, a.Components.Buttons[0])
	assert.Equal(t, "a", a.Components.Buttons[1].Tag)

	require.Len(t, a.Components.Inputs, 2)
	assert.Equal(t, Component{Tag: "input", Type: "email", Placeholder: "you@example.com", Classes: "field"}, a.Components.Inputs[0])
	assert.Equal(t, "textarea", a.Components.Inputs[1].Tag)

	require.Len(t, a.Components.Cards, 1)
	assert.Equal(t, "Product one", a.Components.Cards[0].Text)

	require.Len(t, a.Components.Navigation, 1)
	assert.Equal(t, "Home Docs", a.Components.Navigation[0].Text)
}

func TestInspectEmptyPage(t *testing.T) {
	a, err := Inspect([]byte("<html><body><p>plain</p></body></html>"))
	require.NoError(t, err)

	assert.NotNil(t, a.Colors.Primary)
	assert.NotNil(t, a.Components.Buttons)
	assert.Empty(t, a.RawCSS)
	assert.Empty(t, a.CSSVariables)
}

func TestInspectCardTextClipped(t *testing.T) {
	page := `<div class="card">` + strings.Repeat("x", 250) + `</div>`
	a, err := Inspect([]byte(page))
	require.NoError(t, err)

	require.Len(t, a.Components.Cards, 1)
	assert.Len(t, a.Components.Cards[0].Text, maxComponentText)
}

func TestParseDeclarations(t *testing.T) {
	got := parseDeclarations("Color: Red !important; --Brand-Color: #fff; bogus; : x; padding:")
	assert.Equal(t, []declaration{
		{prop: "color", value: "Red"},
		{prop: "--Brand-Color", value: "#fff"},
	}, got)
}

func TestColorValues(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"#abc", []string{"#abc"}},
		{"rgba(0,0,0,.5)", []string{"rgba(0,0,0,.5)"}},
		{"linear-gradient(#fff, #000)", []string{"#fff", "#000"}},
		{"Navy", []string{"navy"}},
		{"transparent", nil},
		{"var(--brand)", nil},
		{"url(a.png) no-repeat", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, colorValues(tt.in))
		})
	}
}

func TestAnalyzeFetchesLinkedStylesheet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	})
	mux.HandleFunc("/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`h1 { font-size: 2rem; } @media (min-width: 1024px) { h1 { font-size: 3rem; } }`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a, err := New(srv.Client(), nil).Analyze(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, []string{"16px", "2rem", "3rem"}, a.Typography.FontSizes)
	assert.Equal(t, []string{"768px", "1024px"}, a.Layout.Breakpoints)
}

func TestAnalyzeSkipsMissingStylesheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/site.css" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	a, err := New(srv.Client(), nil).Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"16px"}, a.Typography.FontSizes)
}

func TestAnalyzeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	in := New(srv.Client(), nil)

	for _, raw := range []string{"", "ftp://example.com", "not a url", "/relative"} {
		_, err := in.Analyze(context.Background(), raw)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "url %q: %v", raw, err)
	}

	_, err := in.Analyze(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindProvider))
	assert.Equal(t, "Failed to analyze website design", apperr.From(err).Message)
}

func TestAnalyzeBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<style>body { color: #111; }</style>` + strings.Repeat(" ", 1024) + `<style>p { color: #999; }</style>`))
	}))
	defer srv.Close()

	in := New(srv.Client(), nil)
	in.MaxBytes = 64

	a, err := in.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"#111"}, a.Colors.Text)
}

func TestAnalyzeRejectsPrivateAddresses(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	in := New(nil, nil)
	for _, raw := range []string{srv.URL, "http://169.254.169.254/latest/meta-data/", "http://[::1]:1/", "http://10.0.0.1:1/"} {
		_, err := in.Analyze(context.Background(), raw)
		require.Error(t, err, raw)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "url %q: %v", raw, err)
	}
	assert.Zero(t, hits)
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::1", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublic(netip.MustParseAddr(tt.addr)))
		})
	}
}
