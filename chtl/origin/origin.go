// Package origin checks raw embedded-language payloads.
//
// CHTL passes [Origin] blocks and plain script blocks through unchanged. When
// foreign validation is enabled, each payload is run through a tokenizer for
// its language: golang.org/x/net/html for @Html, tdewolff/parse for @Style
// and @JavaScript. Problems are reported as warnings at their position in the
// CHTL file, and the names the payload defines are collected as Facts.
package origin

import (
	"sort"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/chtl/source"
)

var log = commonlog.GetLogger("chtl.origin")

type Language int

const (
	LanguageNone Language = iota
	LanguageHTML
	LanguageCSS
	LanguageJavaScript
)

var languageNames = map[Language]string{
	LanguageNone:       "none",
	LanguageHTML:       "html",
	LanguageCSS:        "css",
	LanguageJavaScript: "javascript",
}

func (l Language) String() string {
	return languageNames[l]
}

func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// LanguageFor returns the language a fragment is validated as. Style blocks
// and scripts with enhanced selectors hold CHTL syntax and are not
// validated.
func LanguageFor(kind scanner.FragmentKind) Language {
	switch kind {
	case scanner.FragmentOriginHTML:
		return LanguageHTML
	case scanner.FragmentOriginStyle:
		return LanguageCSS
	case scanner.FragmentOriginScript, scanner.FragmentScript:
		return LanguageJavaScript
	}
	return LanguageNone
}

// Facts are the names a payload defines or refers to.
type Facts struct {
	Language   Language        `json:"language" yaml:"language"`
	Start      source.Position `json:"-" yaml:"-"`
	Tags       []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
	IDs        []string        `json:"ids,omitempty" yaml:"ids,omitempty"`
	Classes    []string        `json:"classes,omitempty" yaml:"classes,omitempty"`
	Selectors  []string        `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	Properties []string        `json:"properties,omitempty" yaml:"properties,omitempty"`
	Colors     []string        `json:"colors,omitempty" yaml:"colors,omitempty"`
	Functions  []string        `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// Validate checks src, which starts at start in the CHTL file.
func Validate(lang Language, src []byte, start source.Position, diags *diag.List) *Facts {
	facts := &Facts{Language: lang, Start: start}
	switch lang {
	case LanguageHTML:
		validateHTML(src, start, diags, facts)
	case LanguageCSS:
		validateCSS(src, start, diags, facts)
	case LanguageJavaScript:
		validateJS(src, start, diags, facts)
	default:
		return nil
	}
	facts.normalize()
	log.Debugf("validated %s payload at %s", lang, start)
	return facts
}

// ValidateFragment validates f when it holds a foreign language and returns
// nil otherwise.
func ValidateFragment(f scanner.Fragment, diags *diag.List) *Facts {
	lang := LanguageFor(f.Kind)
	if lang == LanguageNone {
		return nil
	}
	return Validate(lang, []byte(f.Text), f.Start, diags)
}

func (f *Facts) normalize() {
	for _, list := range []*[]string{&f.Tags, &f.IDs, &f.Classes, &f.Selectors, &f.Properties, &f.Colors, &f.Functions} {
		*list = unique(*list)
	}
}

// unique sorts names and drops repeats.
func unique(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	out := names[:1]
	for _, n := range names[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

// at converts a 1-based line and column inside src into a position in the
// CHTL file.
func at(start source.Position, src []byte, line, column int) source.Position {
	off := 0
	for l := 1; l < line && off < len(src); off++ {
		if src[off] == '\n' {
			l++
		}
	}
	off += column - 1
	if off < 0 {
		off = 0
	}
	if off > len(src) {
		off = len(src)
	}
	return start.Advance(string(src[:off]))
}
