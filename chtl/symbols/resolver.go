package symbols

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

// Resolver expands the usages of one document against a table and reports
// what fails as diagnostics. Each distinct error is reported once.
type Resolver struct {
	table    *Table
	diags    *diag.List
	log      commonlog.Logger
	reported map[error]bool
}

func NewResolver(table *Table, diags *diag.List) *Resolver {
	return &Resolver{
		table:    table,
		diags:    diags,
		log:      commonlog.GetLogger("chtl.resolve"),
		reported: map[error]bool{},
	}
}

// ResolveDocument expands every template, custom and origin usage of tree
// into an Expansion child of the usage, substitutes variable group
// references, checks except constraints and finally flattens the
// declarations of tree that no usage reached.
func (r *Resolver) ResolveDocument(tree *ast.Tree) {
	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		switch tree.Kind(id) {
		case ast.KindTemplateDecl, ast.KindCustomDecl, ast.KindSpecialization,
			ast.KindInherit, ast.KindImportDecl, ast.KindConfiguration:
			return false
		case ast.KindUsage:
			r.expandUsage(tree, id)
		}
		return true
	})
	r.substituteVars(tree)
	r.checkConstraints(tree)

	for _, e := range r.table.Entries() {
		if e.Tree == tree {
			r.report(r.table.Flatten(e), nil)
		}
	}
}

func (r *Resolver) report(errs []error, site *source.Position) {
	for _, err := range errs {
		if r.reported[err] {
			continue
		}
		r.reported[err] = true
		d := diag.Diagnostic{
			Kind:        diag.Semantic,
			Severity:    diag.SeverityError,
			Message:     err.Error(),
			Pos:         positionOf(err),
			Recoverable: true,
		}
		if site != nil && *site != d.Pos {
			related := d.Pos
			d.Pos = *site
			if related.IsValid() {
				d.Related = &related
			}
		}
		r.diags.Add(d)
	}
}

func positionOf(err error) source.Position {
	if p, ok := err.(interface{ Position() source.Position }); ok {
		return p.Position()
	}
	return source.Position{}
}

// ScopeOf returns the namespace lookups from id are made in. Inside an
// expansion that is the namespace of the expanded declaration.
func ScopeOf(tree *ast.Tree, id ast.NodeID) string {
	var parts []string
	for p := tree.Parent(id); p != ast.NoNode; p = tree.Parent(p) {
		n := tree.Node(p)
		switch n.Kind {
		case ast.KindExpansion:
			return joinNamespace(n.Namespace, strings.Join(parts, "."))
		case ast.KindNamespaceDecl:
			parts = append([]string{n.Name}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

func (r *Resolver) expandUsage(tree *ast.Tree, u ast.NodeID) {
	n := *tree.Node(u)
	site := n.Span.Start
	scope := ScopeOf(tree, u)

	var e *Entry
	var err error
	if n.TypeName != "" {
		e, err = r.table.ResolveOrigin(n.TypeName, n.Name, n.Namespace, scope)
	} else {
		e, err = r.table.Resolve(n.DeclKind, n.Name, n.Namespace, scope)
	}
	if err != nil {
		if nf, ok := err.(*NotFoundError); ok {
			nf.Pos = site
		}
		r.report([]error{err}, nil)
		return
	}

	if n.Custom && !e.Kind.IsCustom() || n.Template && !e.Kind.IsTemplate() {
		r.diags.Errorf(diag.Semantic, site, "%s is declared as %s", n.Name, e.Kind)
	}
	ops := tree.ChildrenOfKind(u, ast.KindSpecialization)
	if len(ops) > 0 && !e.Kind.IsCustom() {
		r.diags.Errorf(diag.Semantic, site, "%s %s cannot be specialized; declare it as [Custom]", e.Kind, n.Name)
		ops = nil
	}
	if r.recursive(tree, u, e) {
		r.diags.Errorf(diag.Semantic, site, "recursive use of %s %s", e.Kind, e.QualifiedName())
		return
	}

	cp, errs := r.table.Instantiate(e, tree, tree, ops)
	r.report(errs, &site)

	exp := tree.Node(cp)
	exp.Kind = ast.KindExpansion
	exp.Name = e.QualifiedName()
	exp.Namespace = e.Namespace
	exp.Custom = e.Kind.IsCustom()
	exp.Template = e.Kind.IsTemplate()
	exp.Span = n.Span
	tree.Append(u, cp)
	r.log.Debugf("expanded %s %s at %s", e.Kind, e.QualifiedName(), site)

	if e.Kind.DeclKind() == ast.DeclStyle {
		r.resolveContextSelectors(tree, u, cp)
		for _, c := range tree.Children(cp) {
			if p := tree.Node(c); p.Kind == ast.KindProperty && p.Placeholder {
				r.diags.Warnf(diag.Semantic, site, "property %s of %s has no value", p.Name, e.QualifiedName())
			}
		}
	}
}

// recursive reports whether u sits inside an expansion of e.
func (r *Resolver) recursive(tree *ast.Tree, u ast.NodeID, e *Entry) bool {
	for p := tree.Parent(u); p != ast.NoNode; p = tree.Parent(p) {
		n := tree.Node(p)
		if n.Kind == ast.KindExpansion && n.Name == e.QualifiedName() && n.DeclKind == e.Kind.DeclKind() && n.TypeName == e.Type {
			return true
		}
	}
	return false
}

// resolveContextSelectors rewrites & in the rules a style group brought into
// a local style block.
func (r *Resolver) resolveContextSelectors(tree *ast.Tree, u, exp ast.NodeID) {
	var rules []ast.NodeID
	for _, c := range tree.Children(exp) {
		if n := tree.Node(c); n.Kind == ast.KindRule && n.Selector.Kind == ast.SelectorContext {
			rules = append(rules, c)
		}
	}
	if len(rules) == 0 {
		return
	}
	block := tree.Ancestor(u, ast.KindStyleBlock)
	host := ast.NoNode
	if block != ast.NoNode && tree.Kind(tree.Parent(block)) == ast.KindElement {
		host = tree.Parent(block)
	}
	if host == ast.NoNode {
		r.diags.Errorf(diag.Context, tree.Node(u).Span.Start, "& has no host element outside a local style block")
		return
	}
	sel := tree.HostSelector(host)
	for _, c := range rules {
		n := tree.Node(c)
		n.Selector.Resolved = strings.Replace(n.Selector.Text, "&", sel, 1)
	}
}

// varRef matches Group(key) and Group(key = override).
var varRef = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*)\(\s*([A-Za-z_][A-Za-z0-9_-]*)\s*(?:=\s*([^()]*?))?\s*\)`)

// substituteVars replaces references to variable groups in attribute and
// property values. Calls whose name is not a variable group, such as rgb(...)
// or url(...), are left as written.
func (r *Resolver) substituteVars(tree *ast.Tree) {
	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		n := tree.Node(id)
		switch n.Kind {
		case ast.KindTemplateDecl, ast.KindCustomDecl, ast.KindSpecialization, ast.KindInherit:
			return false
		case ast.KindProperty, ast.KindAttribute:
			if strings.Contains(n.Value, "(") {
				value := r.substitute(n.Value, ScopeOf(tree, id), n.Span.Start)
				tree.Node(id).Value = value
			}
		}
		return true
	})
}

func (r *Resolver) substitute(value, scope string, pos source.Position) string {
	return varRef.ReplaceAllStringFunc(value, func(m string) string {
		sub := varRef.FindStringSubmatch(m)
		group, key, override := sub[1], sub[2], sub[3]
		e, err := r.table.Resolve(ast.DeclVar, group, "", scope)
		if err != nil {
			return m
		}
		if strings.Contains(m, "=") {
			return strings.TrimSpace(override)
		}
		v, ok, errs := r.table.Value(e, key)
		r.report(errs, &pos)
		if !ok {
			r.diags.Errorf(diag.Semantic, pos, "variable group %s has no key %s", e.QualifiedName(), key)
			return m
		}
		return v
	})
}

// checkConstraints enforces except clauses against the other children of
// the node they appear in, including what usages expanded to there.
func (r *Resolver) checkConstraints(tree *ast.Tree) {
	var constraints []ast.NodeID
	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		switch tree.Kind(id) {
		case ast.KindTemplateDecl, ast.KindCustomDecl, ast.KindSpecialization:
			return false
		case ast.KindConstraint:
			constraints = append(constraints, id)
		}
		return true
	})

	for _, c := range constraints {
		container := tree.Parent(c)
		for _, x := range tree.ChildrenOfKind(c, ast.KindExcept) {
			for _, k := range tree.Children(container) {
				if violates(tree, k, tree.Node(x)) {
					related := tree.Node(x).Span.Start
					r.diags.Add(diag.Diagnostic{
						Kind:        diag.Semantic,
						Severity:    diag.SeverityError,
						Message:     fmt.Sprintf("%s is not allowed here", describe(tree.Node(k))),
						Pos:         tree.Node(k).Span.Start,
						Recoverable: true,
						Related:     &related,
					})
				}
			}
		}
	}
}

func violates(tree *ast.Tree, k ast.NodeID, x *ast.Node) bool {
	n := tree.Node(k)
	switch {
	case x.Custom || x.Template:
		if n.Kind != ast.KindUsage {
			return false
		}
		exp := tree.FirstChildOfKind(k, ast.KindExpansion)
		if exp == ast.NoNode {
			return false
		}
		e := tree.Node(exp)
		if x.Custom && !e.Custom || x.Template && !e.Template {
			return false
		}
		return (x.DeclKind == ast.DeclNone || x.DeclKind == n.DeclKind) && (x.Name == "" || x.Name == n.Name)
	case x.DeclKind == ast.DeclHtml:
		return n.Kind == ast.KindElement
	case x.DeclKind != ast.DeclNone:
		return n.Kind == ast.KindUsage && n.TypeName == "" && n.DeclKind == x.DeclKind
	}
	return n.Kind == ast.KindElement && n.Name == x.Name
}

func describe(n *ast.Node) string {
	if n.Kind == ast.KindUsage {
		return fmt.Sprintf("use of %s %s", n.DeclKind, n.Name)
	}
	return fmt.Sprintf("element %s", n.Name)
}
