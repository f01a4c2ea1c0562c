package origin

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/chtl/source"
)

var start = source.Position{File: "t.chtl", Offset: 40, Line: 3, Column: 10}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		kind scanner.FragmentKind
		want Language
	}{
		{scanner.FragmentCHTL, LanguageNone},
		{scanner.FragmentStyle, LanguageNone},
		{scanner.FragmentCHTLJS, LanguageNone},
		{scanner.FragmentOriginOther, LanguageNone},
		{scanner.FragmentScript, LanguageJavaScript},
		{scanner.FragmentOriginScript, LanguageJavaScript},
		{scanner.FragmentOriginStyle, LanguageCSS},
		{scanner.FragmentOriginHTML, LanguageHTML},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := LanguageFor(tt.kind); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateHTMLFacts(t *testing.T) {
	diags := diag.NewList(0)
	facts := Validate(LanguageHTML, []byte(`<div id="a" class="x y"><br><span class="x">hi</span></div>`), start, diags)
	if n := len(diags.All()); n != 0 {
		t.Fatalf("got %d diagnostics: %v", n, diags.All())
	}
	if want := []string{"br", "div", "span"}; !reflect.DeepEqual(facts.Tags, want) {
		t.Errorf("got %v, want %v", facts.Tags, want)
	}
	if want := []string{"a"}; !reflect.DeepEqual(facts.IDs, want) {
		t.Errorf("got %v, want %v", facts.IDs, want)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(facts.Classes, want) {
		t.Errorf("got %v, want %v", facts.Classes, want)
	}
}

func TestValidateHTMLNesting(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		column  int
	}{
		{"unexpected end tag", "<div></span></div>", "unexpected </span>", 15},
		{"closed by outer tag", "<div><p>text</div>", "<p> is closed by </div>", 15},
		{"never closed", "<section>", "<section> is never closed", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := diag.NewList(0)
			Validate(LanguageHTML, []byte(tt.input), start, diags)
			warnings := diags.Warnings()
			if len(warnings) != 1 {
				t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
			}
			w := warnings[0]
			if !strings.Contains(w.Message, tt.message) {
				t.Errorf("got %q, want %q", w.Message, tt.message)
			}
			if w.Pos.Line != 3 || w.Pos.Column != tt.column {
				t.Errorf("got %v, want 3:%d", w.Pos, tt.column)
			}
			if diags.HasErrors() {
				t.Error("foreign problems must not be errors")
			}
		})
	}
}

func TestValidateCSSFacts(t *testing.T) {
	diags := diag.NewList(0)
	facts := Validate(LanguageCSS, []byte(".box:hover { color: red; }\n#main { Margin: 0; --gap: 2px; }"), start, diags)
	if n := len(diags.All()); n != 0 {
		t.Fatalf("got %d diagnostics: %v", n, diags.All())
	}
	if want := []string{"box"}; !reflect.DeepEqual(facts.Classes, want) {
		t.Errorf("got %v, want %v", facts.Classes, want)
	}
	if want := []string{"main"}; !reflect.DeepEqual(facts.IDs, want) {
		t.Errorf("got %v, want %v", facts.IDs, want)
	}
	if want := []string{"--gap", "color", "margin"}; !reflect.DeepEqual(facts.Properties, want) {
		t.Errorf("got %v, want %v", facts.Properties, want)
	}
	if len(facts.Selectors) != 2 {
		t.Errorf("got %v, want 2 selectors", facts.Selectors)
	}
}

func TestValidateCSSValues(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		colors    []string
		functions []string
	}{
		{"hash color", "a { color: #FFF; }", []string{"#fff"}, nil},
		{"named color", "a { border: 1px solid Red; }", []string{"red"}, nil},
		{"function", "a { width: calc(100% - 2px); color: rgb(1, 2, 3); }", nil, []string{"calc", "rgb"}},
		{"selector hash is not a color", "#main { margin: 0; }", nil, nil},
		{"mixed", "a { background: url(x.png) #000; color: blue; }", []string{"#000", "blue"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := diag.NewList(0)
			facts := Validate(LanguageCSS, []byte(tt.input), start, diags)
			if n := len(diags.All()); n != 0 {
				t.Fatalf("got %d diagnostics: %v", n, diags.All())
			}
			if !reflect.DeepEqual(facts.Colors, tt.colors) {
				t.Errorf("got colors %v, want %v", facts.Colors, tt.colors)
			}
			if !reflect.DeepEqual(facts.Functions, tt.functions) {
				t.Errorf("got functions %v, want %v", facts.Functions, tt.functions)
			}
		})
	}
}

func TestValidateJS(t *testing.T) {
	diags := diag.NewList(0)
	facts := Validate(LanguageJavaScript, []byte("function greet() {}\nclass Widget {}\nlet x = greet();"), start, diags)
	if n := len(diags.All()); n != 0 {
		t.Fatalf("got %d diagnostics: %v", n, diags.All())
	}
	if want := []string{"greet"}; !reflect.DeepEqual(facts.Functions, want) {
		t.Errorf("got functions %v, want %v", facts.Functions, want)
	}
	if want := []string{"Widget"}; !reflect.DeepEqual(facts.Classes, want) {
		t.Errorf("got classes %v, want %v", facts.Classes, want)
	}

	diags = diag.NewList(0)
	Validate(LanguageJavaScript, []byte("\nlet = ;"), start, diags)
	warnings := diags.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if w := warnings[0]; w.Pos.Line != 4 || w.Kind != diag.Lexical {
		t.Errorf("got %v, want a lexical warning on line 4", w)
	}
}

func TestValidateFragmentSkipsCHTL(t *testing.T) {
	frags, _ := scanner.Scan([]byte("div { style { color: red; } }\n[Origin] @Html { <b>x</b> }"), "t.chtl")
	var validated []Language
	for _, f := range frags {
		if facts := ValidateFragment(f, diag.NewList(0)); facts != nil {
			validated = append(validated, facts.Language)
			if f.Start != facts.Start {
				t.Errorf("got %v, want %v", facts.Start, f.Start)
			}
		}
	}
	if want := []Language{LanguageHTML}; !reflect.DeepEqual(validated, want) {
		t.Errorf("got %v, want %v", validated, want)
	}
}

func TestAt(t *testing.T) {
	src := []byte("ab\ncd\nef")
	tests := []struct {
		line, column int
		want         source.Position
	}{
		{1, 1, start},
		{2, 2, source.Position{File: "t.chtl", Offset: 44, Line: 4, Column: 2}},
		{3, 9, source.Position{File: "t.chtl", Offset: 48, Line: 5, Column: 3}},
	}

	for _, tt := range tests {
		if got := at(start, src, tt.line, tt.column); got != tt.want {
			t.Errorf("at(%d, %d) = %v, want %v", tt.line, tt.column, got, tt.want)
		}
	}
}
