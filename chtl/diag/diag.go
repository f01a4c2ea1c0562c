// Package diag defines the diagnostics produced by the front end.
//
// Every stage reports problems into a *List instead of returning early, so a
// single run yields the full set of errors and warnings for a file.
package diag

import (
	"fmt"
	"sort"

	"github.com/dhamidi/chtl/chtl/source"
)

type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
	Context
	Recovery
)

var kindNames = map[Kind]string{
	Lexical:  "lexical",
	Syntax:   "syntax",
	Semantic: "semantic",
	Context:  "context",
	Recovery: "recovery",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

type Diagnostic struct {
	Kind        Kind
	Severity    Severity
	Message     string
	Pos         source.Position
	Recoverable bool
	// Related points at a second location involved in the problem, such as
	// the declaration behind a failing usage.
	Related *source.Position
}

func (d Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s %s: %s", d.Pos, d.Kind, d.Severity, d.Message)
	if d.Related != nil {
		msg += " (see " + d.Related.String() + ")"
	}
	return msg
}

// DefaultMaxErrors is used when a List is created with a non-positive cap.
const DefaultMaxErrors = 100

// List collects diagnostics. Errors beyond the cap are counted but not
// stored. A List is owned by one goroutine at a time.
type List struct {
	max        int
	errors     []Diagnostic
	warnings   []Diagnostic
	suppressed int
	seen       map[key]bool
}

// key identifies a diagnostic for duplicate suppression. Earlier stages may
// report the same unterminated construct a later stage reports again.
type key struct {
	kind   Kind
	offset int
	file   string
	msg    string
}

func NewList(maxErrors int) *List {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &List{max: maxErrors}
}

// Add records d and reports whether it was stored. Exact duplicates are
// dropped silently.
func (l *List) Add(d Diagnostic) bool {
	k := key{d.Kind, d.Pos.Offset, d.Pos.File, d.Message}
	if l.seen[k] {
		return false
	}
	if l.seen == nil {
		l.seen = map[key]bool{}
	}
	l.seen[k] = true
	if d.Severity == SeverityWarning {
		if len(l.warnings) >= l.max {
			l.suppressed++
			return false
		}
		l.warnings = append(l.warnings, d)
		return true
	}
	if len(l.errors) >= l.max {
		l.suppressed++
		return false
	}
	l.errors = append(l.errors, d)
	return true
}

// Errorf records a recoverable error.
func (l *List) Errorf(kind Kind, pos source.Position, format string, args ...any) {
	l.Add(Diagnostic{
		Kind:        kind,
		Severity:    SeverityError,
		Message:     fmt.Sprintf(format, args...),
		Pos:         pos,
		Recoverable: true,
	})
}

func (l *List) Warnf(kind Kind, pos source.Position, format string, args ...any) {
	l.Add(Diagnostic{
		Kind:        kind,
		Severity:    SeverityWarning,
		Message:     fmt.Sprintf(format, args...),
		Pos:         pos,
		Recoverable: true,
	})
}

// Merge appends the diagnostics of other, subject to the cap of l.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	for _, d := range other.errors {
		l.Add(d)
	}
	for _, d := range other.warnings {
		l.Add(d)
	}
	l.suppressed += other.suppressed
}

func (l *List) Errors() []Diagnostic {
	return l.errors
}

func (l *List) Warnings() []Diagnostic {
	return l.warnings
}

// All returns errors and warnings ordered by source offset.
func (l *List) All() []Diagnostic {
	all := make([]Diagnostic, 0, len(l.errors)+len(l.warnings))
	all = append(all, l.errors...)
	all = append(all, l.warnings...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pos.File != all[j].Pos.File {
			return all[i].Pos.File < all[j].Pos.File
		}
		return all[i].Pos.Offset < all[j].Pos.Offset
	})
	return all
}

func (l *List) HasErrors() bool {
	return len(l.errors) > 0
}

// Full reports whether the error cap has been reached.
func (l *List) Full() bool {
	return len(l.errors) >= l.max
}

// Suppressed returns how many diagnostics were dropped because of the cap.
func (l *List) Suppressed() int {
	return l.suppressed
}

func (l *List) Max() int {
	return l.max
}

// Count returns the number of stored errors of the given kind.
func (l *List) Count(kind Kind) int {
	n := 0
	for _, d := range l.errors {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
