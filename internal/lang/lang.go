// Package lang is the registry of target languages: display names,
// offline fallback prefixes and provider-specific code remapping.
package lang

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Language describes one supported target language.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Native string `json:"native"`
	prefix string
}

var registry = map[string]Language{
	"es": {Code: "es", Name: "Spanish", Native: "Español", prefix: "Traducido al español: "},
	"fr": {Code: "fr", Name: "French", Native: "Français", prefix: "Traduit en français: "},
	"de": {Code: "de", Name: "German", Native: "Deutsch", prefix: "Ins Deutsche übersetzt: "},
	"it": {Code: "it", Name: "Italian", Native: "Italiano", prefix: "Tradotto in italiano: "},
	"pt": {Code: "pt", Name: "Portuguese", Native: "Português", prefix: "Traduzido para português: "},
	"ru": {Code: "ru", Name: "Russian", Native: "Русский", prefix: "Переведено на русский: "},
	"ja": {Code: "ja", Name: "Japanese", Native: "日本語", prefix: "日本語に翻訳: "},
	"ko": {Code: "ko", Name: "Korean", Native: "한국어", prefix: "한국어로 번역: "},
	"zh": {Code: "zh", Name: "Chinese", Native: "中文", prefix: "翻译成中文: "},
	"ar": {Code: "ar", Name: "Arabic", Native: "العربية", prefix: "مترجم إلى العربية: "},
	"en": {Code: "en", Name: "English", Native: "English", prefix: "Translated to English: "},
}

// Base returns the lower-case base language of code ("pt-BR" -> "pt").
func Base(code string) string {
	code = strings.TrimSpace(code)
	if tag, err := language.Parse(code); err == nil {
		if b, conf := tag.Base(); conf != language.No {
			return b.String()
		}
	}
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// Lookup resolves code against the registry, matching by base language.
func Lookup(code string) (Language, bool) {
	l, ok := registry[Base(code)]
	return l, ok
}

// Name returns the English display name for code. Unknown codes are
// returned unchanged.
func Name(code string) string {
	if l, ok := Lookup(code); ok {
		return l.Name
	}
	return code
}

// FallbackPrefix is the fixed marker prepended by offline stand-in
// translations.
func FallbackPrefix(code string) string {
	if l, ok := Lookup(code); ok {
		return l.prefix
	}
	return "[" + code + "] "
}

// All returns the registry sorted by code.
func All() []Language {
	out := make([]Language, 0, len(registry))
	for _, l := range registry {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// DeepLCode maps a language code to DeepL's target_lang vocabulary.
// Codes that cannot be parsed are upper-cased and passed through.
func DeepLCode(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	}
	base, _ := tag.Base()
	region, regionConf := tag.Region()
	hasRegion := regionConf == language.Exact

	switch base.String() {
	case "en":
		if hasRegion && region.String() == "GB" {
			return "EN-GB"
		}
		return "EN-US"
	case "pt":
		if hasRegion && region.String() == "BR" {
			return "PT-BR"
		}
		return "PT-PT"
	case "zh":
		if script, conf := tag.Script(); conf == language.Exact && script.String() == "Hant" {
			return "ZH-HANT"
		}
		return "ZH"
	default:
		return strings.ToUpper(base.String())
	}
}
