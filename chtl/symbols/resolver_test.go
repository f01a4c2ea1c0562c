package symbols_test

import (
	"strings"
	"testing"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/parser"
	"github.com/dhamidi/chtl/chtl/symbols"
)

func resolve(t *testing.T, input string) (*ast.Tree, *diag.List) {
	t.Helper()
	p := parser.ParseDocument(strings.NewReader(input), parser.WithFile("test.chtl"))
	tree := p.Finish()
	symbols.NewResolver(p.Symbols(), p.Diagnostics()).ResolveDocument(tree)
	return tree, p.Diagnostics()
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

func names(tree *ast.Tree, id ast.NodeID) []string {
	var out []string
	for _, c := range tree.Children(id) {
		out = append(out, tree.Node(c).Name)
	}
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

func TestResolveStyleUsage(t *testing.T) {
	tree, diags := resolve(t, `[Template] @Style Base { color: red; size: 1px; }
[Template] @Style Big { @Style Base; size: 2px; }
div { style { @Style Big; } }`)
	if diags.HasErrors() {
		t.Fatal(diags.Errors())
	}
	exps := expansions(tree)
	if len(exps) != 1 {
		t.Fatalf("got %d expansions, want 1\n%s", len(exps), tree)
	}
	for key, want := range map[string]string{"color": "red", "size": "2px"} {
		if got, _ := tree.Property(exps[0], key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if got := tree.Node(exps[0]).Name; got != "Big" {
		t.Errorf("got %q, want Big", got)
	}
}

func TestResolveUnresolvedUsage(t *testing.T) {
	_, diags := resolve(t, "div { style { @Style Missing; } }")
	errs := diags.Errors()
	if len(errs) != 1 || errs[0].Kind != diag.Semantic {
		t.Fatalf("got %v", errs)
	}
	if !strings.Contains(errs[0].Message, "unresolved reference") || errs[0].Pos.Line != 1 {
		t.Errorf("got %v", errs[0])
	}
}

func TestResolveSpecialization(t *testing.T) {
	tree, diags := resolve(t, `[Custom] @Element Card {
    div { }
    span { }
    p { }
}
body {
    @Element Card {
        delete span;
        insert after p { footer { } }
        div { class: inner; }
    }
}`)
	if diags.HasErrors() {
		t.Fatal(diags.Errors())
	}
	exp := expansions(tree)[0]
	if got := strings.Join(names(tree, exp), ","); got != "div,p,footer" {
		t.Errorf("got %s, want div,p,footer", got)
	}
	div := tree.Children(exp)[0]
	if v, _ := tree.Property(div, "class"); v != "inner" {
		t.Errorf("class = %q, want inner", v)
	}

	decl := tree.Children(tree.Root)[0]
	if got := len(tree.Children(decl)); got != 3 {
		t.Errorf("the declaration was modified: %d children", got)
	}
}

func TestResolveSpecializationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"template cannot be specialized",
			"[Template] @Element T { div { } }\nbody { @Element T { delete div; } }",
			"cannot be specialized",
		},
		{
			"missing target",
			"[Custom] @Element C { div { } }\nbody { @Element C { delete span; } }",
			"target not found",
		},
		{
			"index out of range",
			"[Custom] @Element C { div { } }\nbody { @Element C { delete div[3]; } }",
			"index out of range",
		},
		{
			"qualifier mismatch",
			"[Template] @Style S { color: red; }\ndiv { style { [Custom] @Style S; } }",
			"is declared as",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := resolve(t, tt.input)
			if got := countMessages(diags, tt.want); got != 1 {
				t.Errorf("got %d %q errors: %v", got, tt.want, diags.All())
			}
			if len(expansions(tree)) != 1 {
				t.Error("the usage must still expand")
			}
		})
	}
}

func TestResolveCycleReportedOnce(t *testing.T) {
	_, diags := resolve(t, `[Template] @Style A { inherit @Style B; color: red; }
[Template] @Style B { inherit @Style A; }
div { style { @Style A; } }
span { style { @Style B; } }`)
	if got := countMessages(diags, "inheritance cycle"); got != 1 {
		t.Errorf("got %d cycle errors, want 1: %v", got, diags.All())
	}
}

func TestResolveRecursiveElement(t *testing.T) {
	_, diags := resolve(t, `[Template] @Element E { div { @Element E; } }
body { @Element E; }`)
	if got := countMessages(diags, "recursive use"); got != 1 {
		t.Errorf("got %d recursion errors, want 1: %v", got, diags.All())
	}
}

func TestResolveVariables(t *testing.T) {
	const decls = `[Template] @Var Theme { primary: "#333"; size: 12px; }
[Custom] @Var Dark { @Var Theme; primary: black; }
`
	tests := []struct {
		value string
		want  string
	}{
		{"Theme(primary)", "#333"},
		{"1px solid Theme(primary)", "1px solid #333"},
		{"Theme(primary = blue)", "blue"},
		{"Dark(primary)", "black"},
		{"Dark(size)", "12px"},
		{"rgb(1, 2, 3)", "rgb(1, 2, 3)"},
		{"url(a.png)", "url(a.png)"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			tree, diags := resolve(t, decls+"div { style { color: "+tt.value+"; } title: "+tt.value+"; }")
			if diags.HasErrors() {
				t.Fatal(diags.Errors())
			}
			div := tree.ChildrenOfKind(tree.Root, ast.KindElement)[0]
			if got, _ := tree.Property(div, "title"); got != tt.want {
				t.Errorf("attribute: got %q, want %q", got, tt.want)
			}
			block := tree.FirstChildOfKind(div, ast.KindStyleBlock)
			if got, _ := tree.Property(block, "color"); got != tt.want {
				t.Errorf("property: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveMissingVariable(t *testing.T) {
	_, diags := resolve(t, "[Template] @Var Theme { a: b; }\ndiv { title: Theme(c); }")
	if got := countMessages(diags, "has no key c"); got != 1 {
		t.Errorf("got %v", diags.All())
	}
}

func TestResolveConstraints(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		violations int
	}{
		{"element", "div { except span; span { } p { } }", 1},
		{"element allowed", "div { except span; p { } }", 0},
		{"html", "div { except @Html; p { } span { } }", 2},
		{"custom", "[Custom] @Element Box { div { } }\n[Template] @Element T { p { } }\ndiv { except [Custom] @Element Box; @Element Box; @Element T; }", 1},
		{"kind", "[Template] @Element T { p { } }\ndiv { except @Element; @Element T; }", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := resolve(t, tt.input)
			if got := countMessages(diags, "is not allowed here"); got != tt.violations {
				t.Errorf("got %d violations, want %d: %v", got, tt.violations, diags.All())
			}
		})
	}
}

func TestResolveOriginUsage(t *testing.T) {
	tree, diags := resolve(t, "[Origin] @Html banner { <b>x</b> }\nbody { [Origin] @Html banner; }")
	if diags.HasErrors() {
		t.Fatal(diags.Errors())
	}
	exps := expansions(tree)
	if len(exps) != 1 || strings.TrimSpace(tree.Node(exps[0]).Value) != "<b>x</b>" {
		t.Errorf("got %v\n%s", exps, tree)
	}
}

func TestResolveContextSelectorFromGroup(t *testing.T) {
	tree, diags := resolve(t, `[Template] @Style Hover { &:hover { color: red; } }
div { class: card; style { @Style Hover; } }`)
	if diags.HasErrors() {
		t.Fatal(diags.Errors())
	}
	exp := expansions(tree)[0]
	rule := tree.FirstChildOfKind(exp, ast.KindRule)
	if got := tree.Node(rule).Selector.Resolved; got != ".card:hover" {
		t.Errorf("got %q, want .card:hover", got)
	}
}

func TestResolveNamespaces(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errors int
	}{
		{"qualified", "[Namespace] ui { [Template] @Style A { color: red; } }\ndiv { style { @Style A from ui; } }", 0},
		{"unqualified outside", "[Namespace] ui { [Template] @Style A { color: red; } }\ndiv { style { @Style A; } }", 1},
		{"same namespace", "[Namespace] ui { [Template] @Style A { color: red; } div { style { @Style A; } } }", 0},
		{"enclosing namespace", "[Template] @Style A { color: red; }\n[Namespace] ui { div { style { @Style A; } } }", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := resolve(t, tt.input)
			if got := len(diags.Errors()); got != tt.errors {
				t.Errorf("got %d errors, want %d: %v", got, tt.errors, diags.Errors())
			}
		})
	}
}

func TestResolvePlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		usage    string
		warnings int
	}{
		{"unfilled", "@Style P;", 1},
		{"filled", "@Style P { color: red; }", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := resolve(t, "[Custom] @Style P { color; }\ndiv { style { "+tt.usage+" } }")
			if diags.HasErrors() {
				t.Fatal(diags.Errors())
			}
			if got := len(diags.Warnings()); got != tt.warnings {
				t.Errorf("got %d warnings, want %d: %v", got, tt.warnings, diags.Warnings())
			}
		})
	}
}
