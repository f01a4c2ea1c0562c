// Package scanner splits a source file into fragments: contiguous regions
// tagged with the sub-language they contain.
//
// Structural text is everything the CHTL parser reads directly. The contents
// of style{...}, script{...} and [Origin] @Kind {...} blocks are cut out into
// their own fragments so each can be tokenized under the rules of its own
// language. Fragments never overlap and their concatenation is the original
// file.
package scanner

import (
	"strings"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

type FragmentKind int

const (
	FragmentCHTL FragmentKind = iota
	FragmentStyle
	FragmentScript
	FragmentCHTLJS
	FragmentOriginHTML
	FragmentOriginStyle
	FragmentOriginScript
	FragmentOriginOther
)

var fragmentKindNames = map[FragmentKind]string{
	FragmentCHTL:         "CHTL",
	FragmentStyle:        "Style",
	FragmentScript:       "Script",
	FragmentCHTLJS:       "CHTLJS",
	FragmentOriginHTML:   "OriginHtml",
	FragmentOriginStyle:  "OriginStyle",
	FragmentOriginScript: "OriginJavaScript",
	FragmentOriginOther:  "OriginOther",
}

func (k FragmentKind) String() string {
	if name, ok := fragmentKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsOrigin reports whether fragments of this kind are passed through
// verbatim.
func (k FragmentKind) IsOrigin() bool {
	return k >= FragmentOriginHTML
}

type Fragment struct {
	Kind  FragmentKind
	Start source.Position
	End   source.Position
	Text  string
	// OriginType is the @Kind name of an origin fragment, e.g. "Html".
	OriginType string
}

// embedded languages differ in which constructs may hide a closing brace.
type language int

const (
	langRaw language = iota
	langCSS
	langJS
)

type Scanner struct {
	src       []byte
	file      string
	pos       int
	cut       int
	cutPos    source.Position
	stack     []byte
	fragments []Fragment
	diags     *diag.List
}

func New(src []byte, file string) *Scanner {
	return &Scanner{
		src:    src,
		file:   file,
		cutPos: source.Start(file),
		diags:  diag.NewList(0),
	}
}

// Scan splits src into fragments. An empty input yields no fragments.
func Scan(src []byte, file string) ([]Fragment, *diag.List) {
	s := New(src, file)
	return s.Scan(), s.Diagnostics()
}

func (s *Scanner) Diagnostics() *diag.List {
	return s.diags
}

func (s *Scanner) Scan() []Fragment {
	for s.pos < len(s.src) {
		ch := s.src[s.pos]
		switch {
		case ch == '"' || ch == '\'':
			s.skipHostString(ch)
		case ch == '/' && s.peekN(1) == '/':
			s.skipLine()
		case ch == '/' && s.peekN(1) == '*':
			s.skipHostBlockComment()
		case ch == '-' && s.peekN(1) == '-' && !s.identBefore(s.pos):
			s.skipLine()
		case ch == '[':
			if !s.tryOrigin() {
				s.stack = append(s.stack, ch)
				s.pos++
			}
		case ch == '{' || ch == '(':
			s.stack = append(s.stack, ch)
			s.pos++
		case ch == '}' || ch == ']' || ch == ')':
			s.popBracket(ch)
			s.pos++
		case isIdentStart(ch) && !s.identBefore(s.pos):
			s.scanWord()
		default:
			s.pos++
		}
	}
	if s.cut < len(s.src) {
		s.emit(FragmentCHTL, len(s.src), "")
	}
	return s.fragments
}

func (s *Scanner) peekN(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}
	return s.src[s.pos+n]
}

// posAt returns the position of byte offset i, which must not precede the
// current cut.
func (s *Scanner) posAt(i int) source.Position {
	return s.cutPos.Advance(string(s.src[s.cut:i]))
}

func (s *Scanner) emit(kind FragmentKind, end int, originType string) {
	if end <= s.cut {
		return
	}
	text := string(s.src[s.cut:end])
	endPos := s.cutPos.Advance(text)
	s.fragments = append(s.fragments, Fragment{
		Kind:       kind,
		Start:      s.cutPos,
		End:        endPos,
		Text:       text,
		OriginType: originType,
	})
	s.cut = end
	s.cutPos = endPos
}

func (s *Scanner) popBracket(closer byte) {
	if len(s.stack) == 0 {
		return
	}
	if s.stack[len(s.stack)-1] == opener(closer) {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func opener(closer byte) byte {
	switch closer {
	case '}':
		return '{'
	case ']':
		return '['
	}
	return '('
}

// inGroup reports whether the scanner is inside a (...) or [...] group, where
// block openers are never recognized.
func (s *Scanner) inGroup() bool {
	if len(s.stack) == 0 {
		return false
	}
	top := s.stack[len(s.stack)-1]
	return top == '(' || top == '['
}

func (s *Scanner) skipHostString(quote byte) {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		ch := s.src[s.pos]
		if ch == '\\' {
			s.pos += 2
			continue
		}
		s.pos++
		if ch == quote {
			return
		}
	}
	s.pos = len(s.src)
	s.diags.Errorf(diag.Lexical, s.posAt(start), "unterminated string literal")
}

func (s *Scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

func (s *Scanner) skipHostBlockComment() {
	start := s.pos
	end := strings.Index(string(s.src[s.pos+2:]), "*/")
	if end < 0 {
		s.pos = len(s.src)
		s.diags.Errorf(diag.Lexical, s.posAt(start), "unterminated block comment")
		return
	}
	s.pos += 2 + end + 2
}

func (s *Scanner) identBefore(i int) bool {
	if i == 0 {
		return false
	}
	ch := s.src[i-1]
	return isIdentChar(ch) || ch == '@' || ch == '.' || ch == '#' || ch == '&'
}

func (s *Scanner) scanWord() {
	start := s.pos
	for s.pos < len(s.src) && isIdentChar(s.src[s.pos]) {
		s.pos++
	}
	word := string(s.src[start:s.pos])
	if word != "style" && word != "script" {
		return
	}
	if s.inGroup() {
		return
	}
	brace := s.skipSpaceFrom(s.pos)
	if brace >= len(s.src) || s.src[brace] != '{' {
		return
	}

	s.pos = brace + 1
	s.stack = append(s.stack, '{')
	if word == "style" {
		s.openEmbedded(FragmentStyle, langCSS, "", start)
	} else {
		s.openEmbedded(FragmentScript, langJS, "", start)
	}
}

func (s *Scanner) skipSpaceFrom(i int) int {
	for i < len(s.src) && isSpace(s.src[i]) {
		i++
	}
	return i
}

// tryOrigin recognizes `[Origin] @Kind name? {` at the current position and,
// on success, cuts out the raw payload.
func (s *Scanner) tryOrigin() bool {
	const kw = "[Origin]"
	if s.inGroup() || !strings.HasPrefix(string(s.src[s.pos:min(len(s.src), s.pos+len(kw))]), kw) {
		return false
	}
	i := s.skipSpaceFrom(s.pos + len(kw))
	if i >= len(s.src) || s.src[i] != '@' {
		return false
	}
	i++
	typeStart := i
	for i < len(s.src) && isIdentChar(s.src[i]) {
		i++
	}
	originType := string(s.src[typeStart:i])
	if originType == "" {
		return false
	}
	i = s.skipSpaceFrom(i)
	if i < len(s.src) && isIdentStart(s.src[i]) {
		for i < len(s.src) && isIdentChar(s.src[i]) {
			i++
		}
		i = s.skipSpaceFrom(i)
	}
	if i >= len(s.src) || s.src[i] != '{' {
		return false
	}

	start := s.pos
	s.pos = i + 1
	s.stack = append(s.stack, '{')
	switch originType {
	case "Html":
		s.openEmbedded(FragmentOriginHTML, langRaw, originType, start)
	case "Style":
		s.openEmbedded(FragmentOriginStyle, langCSS, originType, start)
	case "JavaScript":
		s.openEmbedded(FragmentOriginScript, langJS, originType, start)
	default:
		s.openEmbedded(FragmentOriginOther, langRaw, originType, start)
	}
	return true
}

// openEmbedded is called with s.pos just past the opening brace of a block
// that started at opener. It emits the structural text up to and including
// the brace, then the block payload, and leaves s.pos on the closing brace.
func (s *Scanner) openEmbedded(kind FragmentKind, lang language, originType string, opener int) {
	openPos := s.posAt(opener)
	s.emit(FragmentCHTL, s.pos, "")
	end, ok := s.matchClose(s.pos, lang)
	if !ok {
		s.diags.Errorf(diag.Lexical, openPos, "unterminated %s block", blockName(kind))
	}
	if kind == FragmentScript && strings.Contains(string(s.src[s.pos:end]), "{{") {
		kind = FragmentCHTLJS
	}
	s.emit(kind, end, originType)
	s.pos = end
}

func blockName(kind FragmentKind) string {
	switch kind {
	case FragmentStyle:
		return "style"
	case FragmentScript, FragmentCHTLJS:
		return "script"
	}
	return "origin"
}

// matchClose finds the brace closing the block whose contents start at i,
// skipping strings and comments according to lang. It returns len(src) and
// false when the block is never closed.
func (s *Scanner) matchClose(i int, lang language) (int, bool) {
	depth, parens := 1, 0
	for i < len(s.src) {
		ch := s.src[i]
		switch {
		case lang == langCSS && ch == '(':
			parens++
			i++
		case lang == langCSS && ch == ')':
			if parens > 0 {
				parens--
			}
			i++
		case ch == '{':
			depth++
			i++
		case ch == '}':
			depth--
			if depth == 0 {
				return i, true
			}
			i++
		case lang != langRaw && (ch == '"' || ch == '\''):
			i = skipQuoted(s.src, i, ch)
		case lang == langJS && ch == '`':
			i = skipQuoted(s.src, i, ch)
		case lang != langRaw && ch == '/' && i+1 < len(s.src) && s.src[i+1] == '*':
			end := strings.Index(string(s.src[i+2:]), "*/")
			if end < 0 {
				return len(s.src), false
			}
			i += 2 + end + 2
		case ch == '/' && i+1 < len(s.src) && s.src[i+1] == '/' && (lang == langJS || lang == langCSS && parens == 0),
			lang == langCSS && parens == 0 && s.isCSSGeneratorComment(i):
			for i < len(s.src) && s.src[i] != '\n' {
				i++
			}
		default:
			i++
		}
	}
	return len(s.src), false
}

// isCSSGeneratorComment reports whether a -- at i starts a comment rather
// than a custom property such as --main-color.
func (s *Scanner) isCSSGeneratorComment(i int) bool {
	if s.src[i] != '-' || i+1 >= len(s.src) || s.src[i+1] != '-' || s.identBefore(i) {
		return false
	}
	return i+2 >= len(s.src) || !isIdentChar(s.src[i+2])
}

func skipQuoted(src []byte, i int, quote byte) int {
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		}
		i++
	}
	return len(src)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9') || ch == '-'
}
