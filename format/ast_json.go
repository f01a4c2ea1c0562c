package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/chtl/chtl/ast"
)

type ASTJSONEncoder struct {
	w io.Writer
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(tree *ast.Tree) error {
	text, err := e.MarshalText(tree)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(text); err != nil {
		return err
	}
	_, err = io.WriteString(e.w, "\n")
	return err
}

func (e *ASTJSONEncoder) MarshalText(tree *ast.Tree) ([]byte, error) {
	return json.MarshalIndent(nodeToJSON(tree, tree.Root), "", "  ")
}

// astJSONNode is shared by the JSON and YAML encoders. Fields that do not
// apply to a node's kind are left empty and omitted.
type astJSONNode struct {
	Kind      string         `json:"kind" yaml:"kind"`
	Span      *astJSONSpan   `json:"span,omitempty" yaml:"span,omitempty"`
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Value     *string        `json:"value,omitempty" yaml:"value,omitempty"`
	Sep       string         `json:"sep,omitempty" yaml:"sep,omitempty"`
	DeclKind  string         `json:"declKind,omitempty" yaml:"declKind,omitempty"`
	Type      string         `json:"type,omitempty" yaml:"type,omitempty"`
	Op        string         `json:"op,omitempty" yaml:"op,omitempty"`
	Position  string         `json:"position,omitempty" yaml:"position,omitempty"`
	Index     *int           `json:"index,omitempty" yaml:"index,omitempty"`
	Selector  *astJSONSel    `json:"selector,omitempty" yaml:"selector,omitempty"`
	Namespace string         `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Alias     string         `json:"alias,omitempty" yaml:"alias,omitempty"`
	From      string         `json:"from,omitempty" yaml:"from,omitempty"`
	Flags     []string       `json:"flags,omitempty" yaml:"flags,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
	Children  []*astJSONNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type astJSONSpan struct {
	Start astJSONPosition `json:"start" yaml:"start"`
	End   astJSONPosition `json:"end" yaml:"end"`
}

type astJSONPosition struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
	Offset int `json:"offset" yaml:"offset"`
}

type astJSONSel struct {
	Kind     string `json:"kind" yaml:"kind"`
	Text     string `json:"text" yaml:"text"`
	Resolved string `json:"resolved,omitempty" yaml:"resolved,omitempty"`
}

func nodeToJSON(tree *ast.Tree, id ast.NodeID) *astJSONNode {
	n := tree.Node(id)
	jn := &astJSONNode{
		Kind:      n.Kind.String(),
		Name:      n.Name,
		Sep:       n.Sep,
		DeclKind:  n.DeclKind.String(),
		Op:        n.Op.String(),
		Position:  n.Position.String(),
		Namespace: n.Namespace,
		Alias:     n.Alias,
		From:      n.From,
		Error:     n.Error,
	}

	if n.Span.Start.Line != 0 || n.Span.End.Line != 0 {
		jn.Span = &astJSONSpan{
			Start: astJSONPosition{Line: n.Span.Start.Line, Column: n.Span.Start.Column, Offset: n.Span.Start.Offset},
			End:   astJSONPosition{Line: n.Span.End.Line, Column: n.Span.End.Column, Offset: n.Span.End.Offset},
		}
	}
	if n.Value != "" || n.Sep != "" {
		v := n.Value
		jn.Value = &v
	}
	if n.DeclKind == ast.DeclOther {
		jn.Type = n.TypeName
	}
	if n.Index >= 0 {
		i := n.Index
		jn.Index = &i
	}
	if n.Selector.Kind != ast.SelectorNone {
		jn.Selector = &astJSONSel{
			Kind:     n.Selector.Kind.String(),
			Text:     n.Selector.Text,
			Resolved: n.Selector.Resolved,
		}
	}
	jn.Flags = flags(n)

	for _, c := range n.Children {
		jn.Children = append(jn.Children, nodeToJSON(tree, c))
	}
	return jn
}

func flags(n *ast.Node) []string {
	var out []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{n.Custom, "custom"},
		{n.Template, "template"},
		{n.Quoted, "quoted"},
		{n.Generator, "generator"},
		{n.Implicit, "implicit"},
		{n.Synthesized, "synthesized"},
		{n.Placeholder, "placeholder"},
	} {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}
