package scanner

import (
	"strings"
	"testing"
)

func kinds(frags []Fragment) []FragmentKind {
	var out []FragmentKind
	for _, f := range frags {
		out = append(out, f.Kind)
	}
	return out
}

func TestScanFragments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []FragmentKind
	}{
		{"empty", "", nil},
		{"structural only", "div { id: box; }", []FragmentKind{FragmentCHTL}},
		{
			"local style",
			"div { style { color: red; } }",
			[]FragmentKind{FragmentCHTL, FragmentStyle, FragmentCHTL},
		},
		{
			"empty style block",
			"div { style {} }",
			[]FragmentKind{FragmentCHTL, FragmentCHTL},
		},
		{
			"plain script",
			"script { let a = 1; }",
			[]FragmentKind{FragmentCHTL, FragmentScript, FragmentCHTL},
		},
		{
			"enhanced script",
			"script { {{.box}}.listen(); }",
			[]FragmentKind{FragmentCHTL, FragmentCHTLJS, FragmentCHTL},
		},
		{
			"origin html",
			"[Origin] @Html { <div>}</div> }",
			[]FragmentKind{FragmentCHTL, FragmentOriginHTML, FragmentCHTL},
		},
		{
			"named origin style",
			"[Origin] @Style reset { a { b: c; } }",
			[]FragmentKind{FragmentCHTL, FragmentOriginStyle, FragmentCHTL},
		},
		{
			"custom origin type",
			"[Origin] @Vue comp { <template></template> }",
			[]FragmentKind{FragmentCHTL, FragmentOriginOther, FragmentCHTL},
		},
		{
			"origin usage has no payload",
			"[Origin] @Html banner;",
			[]FragmentKind{FragmentCHTL},
		},
		{
			"style template is structural",
			"[Template] @Style Box { color: red; }",
			[]FragmentKind{FragmentCHTL},
		},
		{
			"style inside string is ignored",
			`div { text { "style { x }" } }`,
			[]FragmentKind{FragmentCHTL},
		},
		{
			"style inside comment is ignored",
			"// style { x }\ndiv {}",
			[]FragmentKind{FragmentCHTL},
		},
		{
			"quote in css line comment",
			"div { style { // it's red\n color: red; } }",
			[]FragmentKind{FragmentCHTL, FragmentStyle, FragmentCHTL},
		},
		{
			"quote in css generator comment",
			"div { style { -- it's red\n color: red; } }",
			[]FragmentKind{FragmentCHTL, FragmentStyle, FragmentCHTL},
		},
		{
			"protocol-relative url in style",
			"div { style { background: url(//a.com/x.png); } }",
			[]FragmentKind{FragmentCHTL, FragmentStyle, FragmentCHTL},
		},
		{
			"custom property in style",
			"div { style { --main: '}'; } }",
			[]FragmentKind{FragmentCHTL, FragmentStyle, FragmentCHTL},
		},
		{
			"style attribute is not a block",
			`div { style: "color: red"; }`,
			[]FragmentKind{FragmentCHTL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags, diags := Scan([]byte(tt.input), "test.chtl")
			if diags.HasErrors() {
				t.Fatalf("unexpected diagnostics: %v", diags.Errors())
			}
			got := kinds(frags)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("fragment %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestScanRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"div { style { color: red; .a { b: c; } } script { if (a) { b(); } } }",
		"[Origin] @JavaScript { const s = \"}\"; /* } */ }\nspan {}",
		"style { a { content: \"}\"; } }",
		"div { style { color: red; ",
		"div { script { let a = 1; ",
		"[Origin] @Html { <div>",
		"div { style { // it's red\n color: red; ",
		"text { \"unterminated",
		"/* open comment",
		"html { body { div { style { & :hover { x: y; } } } } }\n-- generator comment\n",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			frags, _ := Scan([]byte(input), "test.chtl")
			var b strings.Builder
			for _, f := range frags {
				b.WriteString(f.Text)
			}
			if b.String() != input {
				t.Errorf("got %q, want %q", b.String(), input)
			}
		})
	}
}

func TestScanPositions(t *testing.T) {
	frags, _ := Scan([]byte("div {\n  style {\n    color: red;\n  }\n}"), "test.chtl")
	if len(frags) != 3 {
		t.Fatalf("got %d fragments, want 3", len(frags))
	}
	style := frags[1]
	if style.Start.Line != 2 || style.Start.Column != 10 {
		t.Errorf("style start = %d:%d, want 2:10", style.Start.Line, style.Start.Column)
	}
	if style.Start.Offset != frags[0].End.Offset || frags[2].Start.Offset != style.End.Offset {
		t.Error("fragments are not contiguous")
	}
}

func TestScanEmbeddedStringsHideBraces(t *testing.T) {
	frags, diags := Scan([]byte("script { let s = '}'; // }\n }"), "test.chtl")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Errors())
	}
	if len(frags) != 3 || frags[1].Kind != FragmentScript {
		t.Fatalf("got %v", kinds(frags))
	}
	if frags[1].Text != " let s = '}'; // }\n " {
		t.Errorf("got %q", frags[1].Text)
	}
}

func TestScanUnterminated(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		last   FragmentKind
		column int
	}{
		{"style block", "div { style { color: red;", FragmentStyle, 7},
		{"script block", "div { script { let a = 1; ", FragmentScript, 7},
		{"origin block", "[Origin] @Html { <div>", FragmentOriginHTML, 1},
		{"string", `div { text { "abc } }`, FragmentCHTL, 14},
		{"block comment", "div {} /* abc", FragmentCHTL, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags, diags := Scan([]byte(tt.input), "test.chtl")
			if !diags.HasErrors() {
				t.Error("expected a diagnostic")
			}
			if len(frags) == 0 {
				t.Fatal("expected best-effort fragments")
			}
			if got := frags[len(frags)-1].Kind; got != tt.last {
				t.Errorf("last fragment kind = %v, want %v", got, tt.last)
			}
			pos := diags.Errors()[0].Pos
			if pos.Line != 1 || pos.Column != tt.column {
				t.Errorf("got position %d:%d, want 1:%d", pos.Line, pos.Column, tt.column)
			}
		})
	}
}
