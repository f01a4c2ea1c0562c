package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/origin"
	"github.com/dhamidi/chtl/chtl/symbols"
)

// JSONEncoder writes symbols and diagnostics as indented JSON arrays.
type JSONEncoder struct {
	w io.Writer
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

type jsonSymbol struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	Type      string `json:"type,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
}

type jsonDiagnostic struct {
	File     string        `json:"file,omitempty"`
	Line     int           `json:"line"`
	Column   int           `json:"column"`
	Kind     string        `json:"kind"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Related  *jsonLocation `json:"related,omitempty"`
}

type jsonLocation struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (e *JSONEncoder) EncodeSymbols(entries []*symbols.Entry) error {
	out := make([]jsonSymbol, 0, len(entries))
	for _, s := range entries {
		out = append(out, jsonSymbol{
			Kind:      s.Kind.String(),
			Name:      s.Name,
			Namespace: s.Namespace,
			Type:      s.Type,
			File:      s.File,
			Line:      s.Pos.Line,
			Column:    s.Pos.Column,
		})
	}
	return e.encode(out)
}

func (e *JSONEncoder) EncodeDiagnostics(diags []diag.Diagnostic) error {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		jd := jsonDiagnostic{
			File:     d.Pos.File,
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
			Kind:     d.Kind.String(),
			Severity: d.Severity.String(),
			Message:  d.Message,
		}
		if d.Related != nil {
			jd.Related = &jsonLocation{File: d.Related.File, Line: d.Related.Line, Column: d.Related.Column}
		}
		out = append(out, jd)
	}
	return e.encode(out)
}

// EncodeFacts writes what foreign validation learned about embedded
// payloads.
func (e *JSONEncoder) EncodeFacts(facts []*origin.Facts) error {
	if facts == nil {
		facts = []*origin.Facts{}
	}
	return e.encode(facts)
}

func (e *JSONEncoder) encode(v any) error {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}
