package symbols

import (
	"errors"
	"sync"
	"testing"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/source"
)

func at(line int) source.Span {
	return source.Span{Start: source.Position{File: "t.chtl", Line: line, Column: 1}}
}

// declare adds a declaration of the given kind to tree and registers it.
func declare(t *testing.T, table *Table, tree *ast.Tree, kind Kind, ns, name string, line int) *Entry {
	t.Helper()
	nk := ast.KindTemplateDecl
	if kind.IsCustom() {
		nk = ast.KindCustomDecl
	}
	id := tree.New(nk, at(line))
	n := tree.Node(id)
	n.Name = name
	n.DeclKind = kind.DeclKind()
	n.Custom = kind.IsCustom()
	n.Template = kind.IsTemplate()
	tree.Append(tree.Root, id)

	e := &Entry{Kind: kind, Name: name, Namespace: ns, File: tree.File, Pos: at(line).Start, Tree: tree, Node: id}
	if err := table.Register(e); err != nil {
		t.Fatal(err)
	}
	return e
}

func property(tree *ast.Tree, parent ast.NodeID, name, value string) ast.NodeID {
	id := tree.New(ast.KindProperty, tree.Node(parent).Span)
	n := tree.Node(id)
	n.Name = name
	n.Value = value
	n.Sep = ":"
	tree.Append(parent, id)
	return id
}

func inherit(tree *ast.Tree, parent ast.NodeID, dk ast.DeclKind, name string) ast.NodeID {
	id := tree.New(ast.KindInherit, tree.Node(parent).Span)
	n := tree.Node(id)
	n.Name = name
	n.DeclKind = dk
	tree.Append(parent, id)
	return id
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		custom bool
		dk     ast.DeclKind
		want   Kind
		ok     bool
	}{
		{false, ast.DeclStyle, KindTemplateStyle, true},
		{false, ast.DeclVar, KindTemplateVar, true},
		{true, ast.DeclElement, KindCustomElement, true},
		{true, ast.DeclVar, KindCustomVar, true},
		{true, ast.DeclHtml, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got, ok := KindFor(tt.custom, tt.dk)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got %v %v, want %v %v", got, ok, tt.want, tt.ok)
			}
			if ok && got.DeclKind() != tt.dk {
				t.Errorf("got %v, want %v", got.DeclKind(), tt.dk)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	first := declare(t, table, tree, KindTemplateStyle, "", "A", 1)

	dup := &Entry{Kind: KindCustomStyle, Name: "A", Pos: at(5).Start, Tree: tree, Node: tree.Root}
	err := table.Register(dup)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("got %v, want %v", err, ErrDuplicate)
	}
	var de *DuplicateError
	if !errors.As(err, &de) || de.Previous != first {
		t.Errorf("got %#v", err)
	}
	if got, _ := table.Lookup(ast.DeclStyle, "", "A"); got != first {
		t.Error("the first declaration must stay in effect")
	}

	other := &Entry{Kind: KindTemplateElement, Name: "A", Tree: tree, Node: tree.Root}
	if err := table.Register(other); err != nil {
		t.Errorf("another kind with the same name: %v", err)
	}
}

func TestRegisterConcurrent(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")

	const n = 32
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = table.Register(&Entry{Kind: KindTemplateVar, Name: "V", Tree: tree, Node: tree.Root})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicate):
			dup++
		}
	}
	if ok != 1 || dup != n-1 {
		t.Errorf("got %d successes and %d duplicates", ok, dup)
	}
	if table.Len() != 1 {
		t.Errorf("got %d entries, want 1", table.Len())
	}
}

func TestResolveScopes(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	root := declare(t, table, tree, KindTemplateStyle, "", "X", 1)
	inA := declare(t, table, tree, KindTemplateStyle, "a", "X", 2)
	inAB := declare(t, table, tree, KindTemplateStyle, "a.b", "X", 3)
	onlyB := declare(t, table, tree, KindTemplateStyle, "a.b", "Y", 4)

	tests := []struct {
		name  string
		ref   string
		ns    string
		scope string
		want  *Entry
	}{
		{"innermost", "X", "", "a.b", inAB},
		{"enclosing", "X", "", "a.c", inA},
		{"global", "X", "", "", root},
		{"qualified", "X", "a", "", inA},
		{"relative qualifier", "Y", "b", "a", onlyB},
		{"full qualifier", "Y", "a.b", "z", onlyB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Resolve(ast.DeclStyle, tt.ref, tt.ns, tt.scope)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got.QualifiedName(), tt.want.QualifiedName())
			}
		})
	}

	_, err := table.Resolve(ast.DeclStyle, "Y", "", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want %v", err, ErrNotFound)
	}
	if _, err := table.Resolve(ast.DeclElement, "X", "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("kinds must not mix: %v", err)
	}
}

func TestFlattenOwnPropertiesWin(t *testing.T) {
	tests := []struct {
		name         string
		inheritFirst bool
	}{
		{"inherit first", true},
		{"inherit last", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			tree := ast.NewTree("t.chtl")
			a := declare(t, table, tree, KindTemplateStyle, "", "A", 1)
			property(tree, a.Node, "x", "1")
			property(tree, a.Node, "y", "1")

			b := declare(t, table, tree, KindTemplateStyle, "", "B", 2)
			if tt.inheritFirst {
				inherit(tree, b.Node, ast.DeclStyle, "A")
				property(tree, b.Node, "x", "2")
			} else {
				property(tree, b.Node, "x", "2")
				inherit(tree, b.Node, ast.DeclStyle, "A")
			}

			if errs := table.Flatten(b); len(errs) != 0 {
				t.Fatal(errs)
			}
			for key, want := range map[string]string{"x": "2", "y": "1"} {
				got, ok, _ := table.Value(b, key)
				if !ok || got != want {
					t.Errorf("%s = %q, want %q", key, got, want)
				}
			}
			if !table.Flattened(b) || !table.Flattened(a) {
				t.Error("flattening must resolve ancestors too")
			}
		})
	}
}

func TestFlattenConcurrent(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	a := declare(t, table, tree, KindTemplateStyle, "", "A", 1)
	property(tree, a.Node, "x", "1")
	b := declare(t, table, tree, KindTemplateStyle, "", "B", 2)
	inherit(tree, b.Node, ast.DeclStyle, "A")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			table.Flatten(b)
		}()
		go func() {
			defer wg.Done()
			table.Flattened(b)
		}()
	}
	wg.Wait()

	if !table.Flattened(b) {
		t.Error("got unresolved entry after flattening")
	}
	if got, ok, _ := table.Value(b, "x"); !ok || got != "1" {
		t.Errorf("got %q, want 1", got)
	}
}

func TestFlattenIsDeterministic(t *testing.T) {
	build := func() string {
		table := NewTable()
		tree := ast.NewTree("t.chtl")
		a := declare(t, table, tree, KindTemplateStyle, "", "A", 1)
		property(tree, a.Node, "color", "red")
		b := declare(t, table, tree, KindTemplateStyle, "", "B", 2)
		property(tree, b.Node, "size", "1px")
		c := declare(t, table, tree, KindTemplateStyle, "", "C", 3)
		inherit(tree, c.Node, ast.DeclStyle, "A")
		inherit(tree, c.Node, ast.DeclStyle, "B")
		return table.DumpFlattened(c)
	}
	want := build()
	for i := 0; i < 10; i++ {
		if got := build(); got != want {
			t.Fatalf("got\n%s\nwant\n%s", got, want)
		}
	}
}

func TestFlattenCycle(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	a := declare(t, table, tree, KindTemplateStyle, "", "A", 1)
	inherit(tree, a.Node, ast.DeclStyle, "B")
	b := declare(t, table, tree, KindTemplateStyle, "", "B", 2)
	inherit(tree, b.Node, ast.DeclStyle, "A")

	seen := map[error]bool{}
	for _, e := range []*Entry{a, b, a} {
		for _, err := range table.Flatten(e) {
			seen[err] = true
		}
	}
	if len(seen) != 1 {
		t.Fatalf("got %d distinct errors, want 1: %v", len(seen), seen)
	}
	for err := range seen {
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("got %v, want a cycle", err)
		}
		if got := err.Error(); got != "inheritance cycle: A -> B -> A" {
			t.Errorf("got %q", got)
		}
	}
}

func TestFlattenMismatch(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	declare(t, table, tree, KindTemplateElement, "", "E", 1)
	s := declare(t, table, tree, KindTemplateStyle, "", "S", 2)
	inherit(tree, s.Node, ast.DeclElement, "E")

	errs := table.Flatten(s)
	var me *MismatchError
	if len(errs) != 1 || !errors.As(errs[0], &me) {
		t.Fatalf("got %v", errs)
	}
}

func TestFlattenMissingBase(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	s := declare(t, table, tree, KindTemplateStyle, "", "S", 1)
	id := inherit(tree, s.Node, ast.DeclStyle, "Missing")
	tree.Node(id).Span = at(7)

	errs := table.Flatten(s)
	var nf *NotFoundError
	if len(errs) != 1 || !errors.As(errs[0], &nf) {
		t.Fatalf("got %v", errs)
	}
	if nf.Pos.Line != 7 {
		t.Errorf("got line %d, want 7", nf.Pos.Line)
	}
}

func TestInstantiate(t *testing.T) {
	table := NewTable()
	tree := ast.NewTree("t.chtl")
	card := declare(t, table, tree, KindCustomElement, "", "Card", 1)
	for _, tag := range []string{"div", "span", "span"} {
		el := tree.New(ast.KindElement, at(1))
		tree.Node(el).Name = tag
		tree.Append(card.Node, el)
	}

	src := ast.NewTree("use.chtl")
	del := src.New(ast.KindSpecialization, at(3))
	src.Node(del).Op = ast.OpDelete
	src.Node(del).Name = "span"
	src.Node(del).Index = 0

	dst := ast.NewTree("out.chtl")
	cp, errs := table.Instantiate(card, dst, src, []ast.NodeID{del})
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if got := len(dst.Children(cp)); got != 2 {
		t.Errorf("got %d children, want 2\n%s", got, dst.Dump(cp, false))
	}
	if got := len(tree.Children(card.Node)); got != 3 {
		t.Errorf("the declaration was modified: %d children", got)
	}
}

func TestMergeAndImport(t *testing.T) {
	lib := NewTable()
	tree := ast.NewTree("lib.chtl")
	x := declare(t, lib, tree, KindTemplateStyle, "", "X", 1)
	declare(t, lib, tree, KindTemplateElement, "inner", "Y", 2)

	table := NewTable()
	if errs := table.Merge(lib, "lib"); len(errs) != 0 {
		t.Fatal(errs)
	}
	if _, ok := table.Lookup(ast.DeclStyle, "lib", "X"); !ok {
		t.Error("lib.X missing")
	}
	if _, ok := table.Lookup(ast.DeclElement, "lib.inner", "Y"); !ok {
		t.Error("lib.inner.Y missing")
	}
	if got := table.Namespaces(); len(got) != 1 || got[0] != "lib" {
		t.Errorf("got %v", got)
	}

	if err := table.Import(x, "", "Alias"); err != nil {
		t.Fatal(err)
	}
	e, ok := table.Lookup(ast.DeclStyle, "", "Alias")
	if !ok || e.Node != x.Node {
		t.Error("alias does not point at X")
	}
	if err := table.Import(x, "", "Alias"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("got %v, want %v", err, ErrDuplicate)
	}
}
