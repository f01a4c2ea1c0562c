package compiler

import (
	"errors"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
	"github.com/dhamidi/chtl/chtl/symbols"
)

type session struct {
	compiler *Compiler
	result   *Result
	chain    []string
}

// importDecl loads the target of one [Import] and registers what it
// provides in the namespace the import appears in.
func (s *session) importDecl(id ast.NodeID) {
	tree := s.result.Tree
	diags := s.result.Diagnostics
	n := *tree.Node(id)
	pos := n.Span.Start
	if n.Value == "" {
		return
	}

	switch n.DeclKind {
	case ast.DeclConfig, ast.DeclOther:
		diags.Errorf(diag.Semantic, pos, "cannot import %s: %v", n.DeclKind, ErrUnsupported)
		return
	}
	if s.compiler.loader == nil {
		diags.Errorf(diag.Semantic, pos, "cannot import %s: no module loader", n.Value)
		return
	}

	raw := n.Name == "" && (n.DeclKind == ast.DeclHtml || n.DeclKind == ast.DeclStyle || n.DeclKind == ast.DeclJavaScript)
	mod, err := s.compiler.loader.Load(Request{
		Kind:  n.DeclKind,
		Path:  n.Value,
		From:  s.result.File,
		Raw:   raw,
		Chain: s.chain,
	})
	if err != nil {
		diags.Errorf(diag.Semantic, pos, "import %s: %v", n.Value, err)
		return
	}
	diags.Merge(mod.Diagnostics)
	scope := symbols.ScopeOf(tree, id)
	table := s.result.Symbols

	switch {
	case raw:
		name := n.Alias
		if name == "" {
			name = stem(mod.File)
		}
		otree := ast.NewTree(mod.File)
		oid := otree.New(ast.KindOriginDecl, n.Span)
		o := otree.Node(oid)
		o.Name = name
		o.DeclKind = n.DeclKind
		o.TypeName = n.TypeName
		o.Value = mod.Payload
		otree.Append(otree.Root, oid)
		s.register(table, &symbols.Entry{
			Kind:      symbols.KindOrigin,
			Name:      name,
			Namespace: scope,
			Type:      n.TypeName,
			File:      mod.File,
			Pos:       pos,
			Tree:      otree,
			Node:      oid,
		})

	case n.Name == "":
		into := n.Alias
		if into == "" {
			into = stem(mod.File)
		}
		if scope != "" {
			into = scope + "." + into
		}
		for _, err := range table.Merge(mod.Table, into) {
			s.report(err, pos)
		}
		log.Debugf("merged %s into namespace %s", mod.File, into)

	default:
		e, err := mod.Table.Resolve(n.DeclKind, n.Name, n.Namespace, "")
		if err != nil {
			diags.Errorf(diag.Semantic, pos, "import %s: %v", n.Value, err)
			return
		}
		if n.Custom && !e.Kind.IsCustom() || n.Template && !e.Kind.IsTemplate() {
			diags.Errorf(diag.Semantic, pos, "%s is declared as %s in %s", n.Name, e.Kind, mod.File)
		}
		if err := table.Import(e, scope, n.Alias); err != nil {
			s.report(err, pos)
		}
	}
}

func (s *session) register(table *symbols.Table, e *symbols.Entry) {
	if err := table.Register(e); err != nil {
		s.report(err, e.Pos)
	}
}

func (s *session) report(err error, pos source.Position) {
	d := diag.Diagnostic{
		Kind:        diag.Semantic,
		Severity:    diag.SeverityError,
		Message:     err.Error(),
		Pos:         pos,
		Recoverable: true,
	}
	var dup *symbols.DuplicateError
	if errors.As(err, &dup) {
		related := dup.Previous.Pos
		d.Related = &related
	}
	s.result.Diagnostics.Add(d)
}
