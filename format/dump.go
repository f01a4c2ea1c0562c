package format

import (
	"io"

	"github.com/dhamidi/chtl/chtl/ast"
)

// DumpEncoder writes the indented one-node-per-line form of a tree.
type DumpEncoder struct {
	w             io.Writer
	showPositions bool
}

func NewDumpEncoder(w io.Writer, showPositions bool) *DumpEncoder {
	return &DumpEncoder{w: w, showPositions: showPositions}
}

func (e *DumpEncoder) Encode(tree *ast.Tree) error {
	text, err := e.MarshalText(tree)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *DumpEncoder) MarshalText(tree *ast.Tree) ([]byte, error) {
	return []byte(tree.Dump(tree.Root, e.showPositions)), nil
}
