package format

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/chtl/chtl/ast"
)

type ASTYAMLEncoder struct {
	w io.Writer
}

func NewASTYAMLEncoder(w io.Writer) *ASTYAMLEncoder {
	return &ASTYAMLEncoder{w: w}
}

func (e *ASTYAMLEncoder) Encode(tree *ast.Tree) error {
	text, err := e.MarshalText(tree)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *ASTYAMLEncoder) MarshalText(tree *ast.Tree) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(nodeToJSON(tree, tree.Root)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
