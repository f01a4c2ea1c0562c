package compiler

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/origin"
)

var lib = fstest.MapFS{
	"lib.chtl": {Data: []byte(`[Custom] @Element Box { div { class: box; } }
[Template] @Style Red { color: red; }`)},
	"banner.html": {Data: []byte("<b>hi</b>")},
	"a.chtl":      {Data: []byte(`[Import] @Chtl from "b.chtl";`)},
	"b.chtl":      {Data: []byte(`[Import] @Chtl from "a.chtl";`)},
}

func compile(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{WithLoader(&FileLoader{ReadFile: lib.ReadFile})}, opts...)
	return New(opts...).Compile([]byte(src), "main.chtl")
}

func expansions(tree *ast.Tree) []ast.NodeID {
	var out []ast.NodeID
	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		if tree.Kind(id) == ast.KindExpansion {
			out = append(out, id)
		}
		return true
	})
	return out
}

func countMessages(diags *diag.List, substr string) int {
	n := 0
	for _, d := range diags.All() {
		if strings.Contains(d.Message, substr) {
			n++
		}
	}
	return n
}

func TestCompile(t *testing.T) {
	res := compile(t, `[Template] @Style Base { color: red; }
div { style { @Style Base; } }`)
	if !res.OK() {
		t.Fatal(res.Diagnostics.Errors())
	}
	if res.Symbols.Len() != 1 {
		t.Errorf("got %d symbols, want 1", res.Symbols.Len())
	}
	if got := len(expansions(res.Tree)); got != 1 {
		t.Errorf("got %d expansions, want 1", got)
	}
	if len(res.Fragments) != 3 {
		t.Errorf("got %d fragments, want 3", len(res.Fragments))
	}

	again := compile(t, "div { }")
	if res.ID == again.ID {
		t.Error("sessions must have distinct ids")
	}
}

func TestCompileParallelLex(t *testing.T) {
	src := `div { style { color: red; .a { b: c; } } script { let a = "}"; } }
[Origin] @Html { <b></b> }
span { text { "x" } script { {{.a}}.listen(); } }`
	seq := compile(t, src)
	par := compile(t, src, WithParallelLex(true))
	if got, want := par.Tree.String(), seq.Tree.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
	if len(par.Tokens) != len(seq.Tokens) {
		t.Errorf("got %d tokens, want %d", len(par.Tokens), len(seq.Tokens))
	}
	if !reflect.DeepEqual(par.Diagnostics.All(), seq.Diagnostics.All()) {
		t.Errorf("got %v, want %v", par.Diagnostics.All(), seq.Diagnostics.All())
	}
}

func TestCompileIndexBase(t *testing.T) {
	const decl = `[Custom] @Element Card { span { id: a; } span { id: b; } }
body { @Element Card { delete span[1]; } }`
	tests := []struct {
		name string
		src  string
		opts []Option
		want string
	}{
		{"default", decl, nil, "a"},
		{"option", decl, []Option{WithIndexBase(1)}, "b"},
		{"configuration", "[Configuration] { INDEX_INITIAL_COUNT = 1; }\n" + decl, nil, "b"},
		{"configuration wins", "[Configuration] { INDEX_INITIAL_COUNT = 0; }\n" + decl, []Option{WithIndexBase(1)}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compile(t, tt.src, tt.opts...)
			if !res.OK() {
				t.Fatal(res.Diagnostics.Errors())
			}
			exp := expansions(res.Tree)[0]
			spans := res.Tree.Children(exp)
			if len(spans) != 1 {
				t.Fatalf("got %d children, want 1", len(spans))
			}
			if got, _ := res.Tree.Property(spans[0], "id"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileImports(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"single entry", "[Import] [Custom] @Element Box from \"lib.chtl\" as B;\nbody { @Element B; }"},
		{"single entry keeps its name", "[Import] @Element Box from \"lib.chtl\";\nbody { @Element Box; }"},
		{"file under alias", "[Import] @Chtl from \"lib\" as ui;\ndiv { style { @Style Red from ui; } }"},
		{"file under its name", "[Import] @Chtl from \"lib.chtl\";\ndiv { style { @Style Red from lib; } }"},
		{"inside a namespace", "[Namespace] app { [Import] @Chtl from \"lib.chtl\" as ui; div { style { @Style Red from ui; } } }"},
		{"raw file", "[Import] @Html from \"banner.html\" as banner;\nbody { [Origin] @Html banner; }"},
		{"raw file without alias", "[Import] @Html from \"banner.html\";\nbody { [Origin] @Html banner; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compile(t, tt.src)
			if !res.OK() {
				t.Fatal(res.Diagnostics.Errors())
			}
			if got := len(expansions(res.Tree)); got != 1 {
				t.Errorf("got %d expansions, want 1\n%s", got, res.Tree)
			}
		})
	}
}

func TestCompileRawImportPayload(t *testing.T) {
	res := compile(t, "[Import] @Html from \"banner.html\" as banner;\nbody { [Origin] @Html banner; }")
	exp := expansions(res.Tree)[0]
	if got := res.Tree.Node(exp).Value; got != "<b>hi</b>" {
		t.Errorf("got %q, want %q", got, "<b>hi</b>")
	}
}

func TestCompileImportErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []Option
		want string
	}{
		{"missing file", `[Import] @Chtl from "missing.chtl";`, nil, "import missing.chtl"},
		{"missing entry", `[Import] @Element Nope from "lib.chtl";`, nil, "unresolved reference"},
		{"qualifier mismatch", `[Import] [Template] @Element Box from "lib.chtl";`, nil, "is declared as"},
		{"cjmod", `[Import] @CJmod from "mod";`, nil, "not supported"},
		{"no loader", `[Import] @Chtl from "lib.chtl";`, []Option{WithLoader(nil)}, "no module loader"},
		{"duplicate", "[Template] @Style Red { color: blue; }\n[Import] @Style Red from \"lib.chtl\";", nil, "already declared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compile(t, tt.src, tt.opts...)
			if got := countMessages(res.Diagnostics, tt.want); got != 1 {
				t.Errorf("got %d %q errors: %v", got, tt.want, res.Diagnostics.All())
			}
		})
	}
}

func TestCompileImportCycle(t *testing.T) {
	res := New(WithLoader(&FileLoader{ReadFile: lib.ReadFile})).Compile(lib["a.chtl"].Data, "a.chtl")
	if got := countMessages(res.Diagnostics, "import cycle: a.chtl -> b.chtl -> a.chtl"); got != 1 {
		t.Errorf("got %v", res.Diagnostics.All())
	}
}

func TestCompileForeignValidation(t *testing.T) {
	src := "[Origin] @Html { <div> }\nscript { function go() {} }"

	res := compile(t, src)
	if res.Foreign != nil || len(res.Diagnostics.Warnings()) != 0 {
		t.Errorf("validation must be opt-in: %v", res.Diagnostics.All())
	}

	res = compile(t, src, WithForeignValidation(true))
	if res.Diagnostics.HasErrors() {
		t.Fatal(res.Diagnostics.Errors())
	}
	if len(res.Foreign) != 2 {
		t.Fatalf("got %d facts, want 2", len(res.Foreign))
	}
	if got := res.Foreign[0].Language; got != origin.LanguageHTML {
		t.Errorf("got %v, want %v", got, origin.LanguageHTML)
	}
	if got := res.Foreign[1].Functions; !reflect.DeepEqual(got, []string{"go"}) {
		t.Errorf("got %v, want [go]", got)
	}
	if got := countMessages(res.Diagnostics, "<div> is never closed"); got != 1 {
		t.Errorf("got %v", res.Diagnostics.All())
	}
}

func TestCompileMaxErrors(t *testing.T) {
	res := compile(t, "div { style { @Style A; @Style B; @Style C; } }", WithMaxErrors(2))
	if got := len(res.Diagnostics.Errors()); got != 2 {
		t.Errorf("got %d errors, want 2", got)
	}
	if got := res.Diagnostics.Suppressed(); got != 1 {
		t.Errorf("got %d suppressed, want 1", got)
	}
}

func TestFileLoaderResolve(t *testing.T) {
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Path: "lib", From: "src/main.chtl"}, "src/lib.chtl"},
		{Request{Path: "../x.chtl", From: "src/main.chtl"}, "x.chtl"},
		{Request{Path: "a.css", From: "main.chtl", Raw: true}, "a.css"},
		{Request{Path: "/abs/lib.chtl", From: "src/main.chtl"}, "/abs/lib.chtl"},
	}

	l := NewFileLoader()
	for _, tt := range tests {
		t.Run(tt.req.Path, func(t *testing.T) {
			if got := l.resolve(tt.req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
