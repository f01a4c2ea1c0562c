package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/chtl/chtl/parser"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/chtl/source"
	"github.com/dhamidi/chtl/chtl/symbols"
)

// LineEncoder writes one tab-separated line per item. Text columns are
// quoted so every item stays on its line.
type LineEncoder struct {
	w io.Writer
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

// EncodeTokens writes position, kind and literal of every token except
// whitespace.
func (e *LineEncoder) EncodeTokens(tokens []parser.Token) error {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Kind == parser.TokenWhitespace {
			continue
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s", lineCol(tok.Span.Start), tok.Kind, strconv.Quote(tok.Literal))
		if tok.Value != "" && tok.Value != tok.Literal {
			fmt.Fprintf(&sb, "\t%s", strconv.Quote(tok.Value))
		}
		sb.WriteString("\n")
	}
	return e.write(sb.String())
}

const fragmentPreview = 40

func (e *LineEncoder) EncodeFragments(frags []scanner.Fragment) error {
	var sb strings.Builder
	for _, f := range frags {
		text := f.Text
		if len(text) > fragmentPreview {
			text = text[:fragmentPreview] + "..."
		}
		kind := f.Kind.String()
		if f.OriginType != "" {
			kind += "(@" + f.OriginType + ")"
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", kind, lineCol(f.Start), lineCol(f.End), strconv.Quote(text))
	}
	return e.write(sb.String())
}

func (e *LineEncoder) EncodeSymbols(entries []*symbols.Entry) error {
	var sb strings.Builder
	for _, s := range entries {
		kind := s.Kind.String()
		if s.Type != "" {
			kind += "(@" + s.Type + ")"
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\n", kind, s.QualifiedName(), s.Pos)
	}
	return e.write(sb.String())
}

func (e *LineEncoder) write(s string) error {
	_, err := io.WriteString(e.w, s)
	return err
}

func lineCol(p source.Position) string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}
