// Package specialize applies the edit operations attached to a [Custom]
// usage to an instantiated copy of its definition.
//
// Operations run in source order against the children of the copy. An
// operation whose target cannot be found is reported and skipped; the
// remaining operations still apply.
package specialize

import (
	"errors"
	"fmt"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/source"
)

var (
	ErrTargetNotFound  = errors.New("target not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidOp       = errors.New("invalid operation")
)

// Error describes one operation that could not be applied.
type Error struct {
	Op     ast.OpKind
	Target string
	Index  int
	// Count is the number of candidates when the index was out of range.
	Count int
	Pos   source.Position
	Err   error
}

func (e *Error) Error() string {
	target := e.Target
	if target == "" {
		target = "(self)"
	}
	if e.Index >= 0 {
		target = fmt.Sprintf("%s[%d]", target, e.Index)
	}
	if errors.Is(e.Err, ErrIndexOutOfRange) {
		return fmt.Sprintf("%s %s: %v (%d candidates)", e.Op, target, e.Err, e.Count)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Position() source.Position {
	return e.Pos
}

type Engine struct {
	// IndexBase is the number written for the first of several same-named
	// targets.
	IndexBase int
}

// Instantiate copies the definition defID of def into dst and applies ops,
// which are nodes of src, to the copy.
func (e *Engine) Instantiate(dst *ast.Tree, def *ast.Tree, defID ast.NodeID, src *ast.Tree, ops []ast.NodeID) (ast.NodeID, []error) {
	cp := dst.Copy(def, defID)
	return cp, e.Apply(dst, cp, src, ops)
}

// Apply edits the children of base in place.
func (e *Engine) Apply(dst *ast.Tree, base ast.NodeID, src *ast.Tree, ops []ast.NodeID) []error {
	var errs []error
	for _, op := range ops {
		if err := e.apply(dst, base, src, op); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (e *Engine) apply(dst *ast.Tree, base ast.NodeID, src *ast.Tree, op ast.NodeID) error {
	n := *src.Node(op)
	fail := func(err error, count int) error {
		return &Error{Op: n.Op, Target: n.Name, Index: n.Index, Count: count, Pos: n.Span.Start, Err: err}
	}
	payload := src.Children(op)

	switch n.Op {
	case ast.OpDelete:
		if n.DeclKind != ast.DeclNone {
			if removeInherited(dst, base, n.Name) == 0 {
				return fail(ErrTargetNotFound, 0)
			}
			return nil
		}
		idxs, count, err := e.targets(dst, base, n)
		if err != nil {
			return fail(err, count)
		}
		for i := len(idxs) - 1; i >= 0; i-- {
			dst.RemoveAt(base, idxs[i])
		}

	case ast.OpInsert:
		var at int
		switch n.Position {
		case ast.PosAtTop:
			at = 0
		case ast.PosAtBottom:
			at = len(dst.Children(base))
		case ast.PosBefore, ast.PosAfter:
			i, count, err := e.target(dst, base, n)
			if err != nil {
				return fail(err, count)
			}
			at = i
			if n.Position == ast.PosAfter {
				at++
			}
		default:
			return fail(ErrInvalidOp, 0)
		}
		insertCopies(dst, base, at, src, payload)

	case ast.OpReplace:
		i, count, err := e.target(dst, base, n)
		if err != nil {
			return fail(err, count)
		}
		dst.RemoveAt(base, i)
		insertCopies(dst, base, i, src, payload)

	case ast.OpAdd:
		container := base
		if n.Name != "" {
			i, count, err := e.target(dst, base, n)
			if err != nil {
				return fail(err, count)
			}
			container = dst.Children(base)[i]
		}
		for _, c := range payload {
			Merge(dst, container, src, c)
		}

	default:
		return fail(ErrInvalidOp, 0)
	}
	return nil
}

// targets returns the child positions an operation addresses: the indexed
// match when an index is given, every match otherwise.
func (e *Engine) targets(dst *ast.Tree, base ast.NodeID, n ast.Node) ([]int, int, error) {
	var matches []int
	for i, c := range dst.Children(base) {
		if matchesTarget(dst.Node(c), n.Name) {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return nil, 0, ErrTargetNotFound
	}
	if n.Index < 0 {
		return matches, len(matches), nil
	}
	k := n.Index - e.IndexBase
	if k < 0 || k >= len(matches) {
		return nil, len(matches), ErrIndexOutOfRange
	}
	return matches[k : k+1], len(matches), nil
}

// target is targets narrowed to a single position; without an index the
// first match is used.
func (e *Engine) target(dst *ast.Tree, base ast.NodeID, n ast.Node) (int, int, error) {
	idxs, count, err := e.targets(dst, base, n)
	if err != nil {
		return -1, count, err
	}
	return idxs[0], count, nil
}

func matchesTarget(c *ast.Node, name string) bool {
	switch c.Kind {
	case ast.KindElement, ast.KindProperty, ast.KindAttribute:
		return c.Name == name
	}
	return false
}

func removeInherited(dst *ast.Tree, base ast.NodeID, name string) int {
	removed := 0
	children := dst.Children(base)
	for i := len(children) - 1; i >= 0; i-- {
		c := dst.Node(children[i])
		if c.From == name || (c.Kind == ast.KindInherit && c.Name == name) {
			dst.RemoveAt(base, i)
			removed++
		}
	}
	return removed
}

func insertCopies(dst *ast.Tree, parent ast.NodeID, at int, src *ast.Tree, nodes []ast.NodeID) {
	for i, c := range nodes {
		dst.InsertAt(parent, at+i, dst.Copy(src, c))
	}
}

// Merge adds a copy of c (a node of src) to container. Properties and
// attributes replace a same-named entry in place, and a style block is
// merged into an existing one.
func Merge(dst *ast.Tree, container ast.NodeID, src *ast.Tree, c ast.NodeID) {
	n := src.Node(c)
	switch n.Kind {
	case ast.KindProperty, ast.KindAttribute:
		for _, existing := range dst.Children(container) {
			e := dst.Node(existing)
			if e.Kind == n.Kind && e.Name == n.Name {
				e.Value = n.Value
				e.Sep = n.Sep
				e.Quoted = n.Quoted
				e.Placeholder = n.Placeholder
				e.From = n.From
				return
			}
		}
	case ast.KindStyleBlock:
		if block := dst.FirstChildOfKind(container, ast.KindStyleBlock); block != ast.NoNode {
			for _, sc := range src.Children(c) {
				Merge(dst, block, src, sc)
			}
			return
		}
	}
	dst.Append(container, dst.Copy(src, c))
}
