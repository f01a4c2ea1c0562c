// Package source holds the position bookkeeping shared by every stage of the
// front end.
package source

import "fmt"

// Position is a location in a source file. Line and Column are 1-based,
// Column counts bytes.
type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

// Start returns the position of the first byte of file.
func Start(file string) Position {
	return Position{File: file, Line: 1, Column: 1}
}

func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Advance returns the position reached after reading text starting at p.
func (p Position) Advance(text string) Position {
	for i := 0; i < len(text); i++ {
		p.Offset++
		if text[i] == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
	}
	return p
}

type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}
