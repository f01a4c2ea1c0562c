// Package format renders front end results: syntax trees as JSON, YAML or
// an indented dump, tokens, fragments and symbols as tab-separated lines,
// and diagnostics as styled terminal text.
package format

import (
	"io"

	"github.com/dhamidi/chtl/chtl/ast"
)

// TreeEncoder writes a whole syntax tree.
type TreeEncoder interface {
	Encode(tree *ast.Tree) error
	MarshalText(tree *ast.Tree) ([]byte, error)
}

// ForName returns the tree encoder for a -f flag value.
func ForName(name string, w io.Writer) (TreeEncoder, bool) {
	switch name {
	case "json":
		return NewASTJSONEncoder(w), true
	case "yaml":
		return NewASTYAMLEncoder(w), true
	case "tree":
		return NewDumpEncoder(w, false), true
	case "tree-pos":
		return NewDumpEncoder(w, true), true
	}
	return nil, false
}
