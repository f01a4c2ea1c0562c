package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dhamidi/chtl/chtl/diag"
)

var (
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorMuted   = lipgloss.Color("#6B7280")

	errorStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	locationStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// DiagnosticPrinter writes diagnostics the way a compiler prints them on a
// terminal: location, kind and message, followed by the offending source
// line with a caret when the source is known.
type DiagnosticPrinter struct {
	w       io.Writer
	color   bool
	sources map[string][]string
}

func NewDiagnosticPrinter(w io.Writer, color bool) *DiagnosticPrinter {
	return &DiagnosticPrinter{w: w, color: color, sources: map[string][]string{}}
}

// AddSource makes the lines of file available for excerpts.
func (p *DiagnosticPrinter) AddSource(file string, src []byte) {
	p.sources[file] = strings.Split(string(src), "\n")
}

// Print writes every diagnostic of list in source order and a summary line.
func (p *DiagnosticPrinter) Print(list *diag.List) error {
	var sb strings.Builder
	for _, d := range list.All() {
		p.format(&sb, d)
	}
	p.summary(&sb, list)
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func (p *DiagnosticPrinter) format(sb *strings.Builder, d diag.Diagnostic) {
	style := errorStyle
	if d.Severity == diag.SeverityWarning {
		style = warningStyle
	}
	fmt.Fprintf(sb, "%s %s %s\n",
		p.paint(locationStyle, d.Pos.String()+":"),
		p.paint(style, d.Kind.String()+" "+d.Severity.String()+":"),
		d.Message)

	if line, ok := p.line(d.Pos.File, d.Pos.Line); ok {
		gutter := fmt.Sprintf("%4d | ", d.Pos.Line)
		fmt.Fprintf(sb, "%s%s\n", p.paint(mutedStyle, gutter), line)
		fmt.Fprintf(sb, "%s%s\n", p.paint(mutedStyle, "     | "), p.paint(style, caret(line, d.Pos.Column)))
	}
	if d.Related != nil {
		fmt.Fprintf(sb, "%s\n", p.paint(mutedStyle, "     see "+d.Related.String()))
	}
}

func (p *DiagnosticPrinter) summary(sb *strings.Builder, list *diag.List) {
	errs, warns := len(list.Errors()), len(list.Warnings())
	if errs == 0 && warns == 0 {
		return
	}
	text := plural(errs, "error") + ", " + plural(warns, "warning")
	if n := list.Suppressed(); n > 0 {
		text += fmt.Sprintf(" (%d more not shown)", n)
	}
	style := warningStyle
	if errs > 0 {
		style = errorStyle
	}
	fmt.Fprintf(sb, "%s\n", p.paint(style, text))
}

func (p *DiagnosticPrinter) line(file string, n int) (string, bool) {
	lines, ok := p.sources[file]
	if !ok || n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

func (p *DiagnosticPrinter) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// caret points at the byte column col of line, keeping tabs so the caret
// lines up with the excerpt.
func caret(line string, col int) string {
	var b strings.Builder
	for i := 0; i < col-1 && i < len(line); i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('^')
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
