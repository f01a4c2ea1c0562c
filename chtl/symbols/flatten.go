package symbols

import (
	"fmt"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/source"
)

// MismatchError reports an inherit statement naming a declaration of
// another kind.
type MismatchError struct {
	Name string
	Want ast.DeclKind
	Got  ast.DeclKind
	Pos  source.Position
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot inherit %s %s into a %s declaration", e.Got, e.Name, e.Want)
}

func (e *MismatchError) Position() source.Position {
	return e.Pos
}

// Flatten computes the inheritance-merged form of e and caches it on the
// table. It returns the errors met while flattening e and its ancestors;
// repeated calls return the same error values.
func (t *Table) Flatten(e *Entry) []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flattenLocked(e, nil)
	return e.errs
}

// Instantiate copies the flattened form of e into dst and applies ops,
// which are nodes of src. The copy is detached.
func (t *Table) Instantiate(e *Entry, dst, src *ast.Tree, ops []ast.NodeID) (ast.NodeID, []error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flattenLocked(e, nil)
	cp, opErrs := t.engine.Instantiate(dst, t.scratch, e.flat, src, ops)
	errs := append(append([]error(nil), e.errs...), opErrs...)
	return cp, errs
}

// Value returns the value of key in the flattened variable group e.
func (t *Table) Value(e *Entry, key string) (string, bool, []error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flattenLocked(e, nil)
	v, ok := t.scratch.Property(e.flat, key)
	return v, ok, e.errs
}

// DumpFlattened renders the flattened form of e.
func (t *Table) DumpFlattened(e *Entry) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flattenLocked(e, nil)
	return t.scratch.Dump(e.flat, false)
}

// flattenLocked merges, in source order, the flattened ancestors named by
// inherit statements and the declaration's own items. A property declared
// by the entry itself always wins over an inherited one of the same name.
// Declaration-level operations run last.
func (t *Table) flattenLocked(e *Entry, path []*Entry) {
	if e.state != unresolved {
		return
	}
	if e.Kind.DeclKind() == ast.DeclNone {
		e.flat = t.scratch.Copy(e.Tree, e.Node)
		e.state = resolved
		return
	}

	e.state = resolving
	path = append(path, e)
	flat := t.scratch.CopyShallow(e.Tree, e.Node)
	var ops []ast.NodeID
	var errs []error
	for _, c := range e.Tree.Children(e.Node) {
		switch e.Tree.Kind(c) {
		case ast.KindInherit:
			errs = append(errs, t.inheritLocked(e, flat, c, path)...)
		case ast.KindSpecialization:
			ops = append(ops, c)
		default:
			t.mergeLocked(flat, e.Tree, c, "")
		}
	}
	if len(ops) > 0 {
		errs = append(errs, t.engine.Apply(t.scratch, flat, e.Tree, ops)...)
	}

	e.flat = flat
	e.errs = uniqueErrors(errs)
	e.state = resolved
}

func (t *Table) inheritLocked(e *Entry, flat, c ast.NodeID, path []*Entry) []error {
	n := *e.Tree.Node(c)
	want := e.Kind.DeclKind()
	dk := n.DeclKind
	if dk == ast.DeclNone {
		dk = want
	}
	if dk != want {
		return []error{&MismatchError{Name: n.Name, Want: want, Got: dk, Pos: n.Span.Start}}
	}

	base, err := t.resolveLocked(dk.String(), n.Name, n.Namespace, e.Namespace)
	if err != nil {
		if nf, ok := err.(*NotFoundError); ok {
			nf.Pos = n.Span.Start
		}
		return []error{err}
	}
	if base.state == resolving {
		return []error{cycleError(path, base, n.Span.Start)}
	}
	t.flattenLocked(base, path)

	errs := append([]error(nil), base.errs...)
	src := base.flat
	if ops := e.Tree.ChildrenOfKind(c, ast.KindSpecialization); len(ops) > 0 {
		src = t.scratch.Copy(t.scratch, base.flat)
		errs = append(errs, t.engine.Apply(t.scratch, src, e.Tree, ops)...)
	}
	for _, bc := range t.scratch.Children(src) {
		t.mergeLocked(flat, t.scratch, bc, base.Name)
	}
	return errs
}

func cycleError(path []*Entry, base *Entry, pos source.Position) *CycleError {
	start := 0
	for i, p := range path {
		if p == base {
			start = i
			break
		}
	}
	var names []string
	for _, p := range path[start:] {
		names = append(names, p.QualifiedName())
	}
	names = append(names, base.QualifiedName())
	return &CycleError{Path: names, Pos: pos}
}

// mergeLocked copies c of src into flat. from names the ancestor c was
// inherited from, or is empty for the entry's own items.
func (t *Table) mergeLocked(flat ast.NodeID, src *ast.Tree, c ast.NodeID, from string) {
	cp := t.scratch.Copy(src, c)
	n := t.scratch.Node(cp)
	if from != "" && n.From == "" {
		n.From = from
	}
	if n.Kind == ast.KindProperty {
		for _, existing := range t.scratch.Children(flat) {
			ex := t.scratch.Node(existing)
			if ex.Kind != ast.KindProperty || ex.Name != n.Name {
				continue
			}
			if from != "" && ex.From == "" {
				return
			}
			ex.Value = n.Value
			ex.Sep = n.Sep
			ex.Quoted = n.Quoted
			ex.Placeholder = n.Placeholder
			ex.From = n.From
			return
		}
	}
	t.scratch.Append(flat, cp)
}

func uniqueErrors(errs []error) []error {
	seen := map[error]bool{}
	var out []error
	for _, err := range errs {
		if !seen[err] {
			seen[err] = true
			out = append(out, err)
		}
	}
	return out
}
