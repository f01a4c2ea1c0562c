package parser

import (
	"bytes"
	"strings"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/chtl/source"
)

// Mode selects the tokenization rules for one fragment.
type Mode int

const (
	ModeCHTL Mode = iota
	ModeStyle
	ModeScript
	ModeRaw
)

var modeNames = map[Mode]string{
	ModeCHTL:   "chtl",
	ModeStyle:  "style",
	ModeScript: "script",
	ModeRaw:    "raw",
}

func (m Mode) String() string {
	return modeNames[m]
}

// ModeFor returns the lexer mode for a fragment kind.
func ModeFor(kind scanner.FragmentKind) Mode {
	switch kind {
	case scanner.FragmentCHTL:
		return ModeCHTL
	case scanner.FragmentStyle:
		return ModeStyle
	case scanner.FragmentScript, scanner.FragmentCHTLJS:
		return ModeScript
	}
	return ModeRaw
}

// State is an entry of the lexer's state stack.
type State int

const (
	StateNormal State = iota
	StateString
	StateComment
	StateValue
	StateEnhancedSelector
)

var stateNames = map[State]string{
	StateNormal:           "normal",
	StateString:           "string",
	StateComment:          "comment",
	StateValue:            "value",
	StateEnhancedSelector: "enhanced-selector",
}

func (s State) String() string {
	return stateNames[s]
}

type LexerOption func(*Lexer)

// WithStart makes positions count from start instead of the beginning of
// the file, so tokens of a fragment carry absolute positions.
func WithStart(start source.Position) LexerOption {
	return func(l *Lexer) {
		l.base = start
		l.line = start.Line
		l.column = start.Column
	}
}

func WithMode(mode Mode) LexerOption {
	return func(l *Lexer) {
		l.mode = mode
	}
}

func WithLexDiagnostics(diags *diag.List) LexerOption {
	return func(l *Lexer) {
		l.diags = diags
	}
}

type Lexer struct {
	input  []byte
	file   string
	base   source.Position
	pos    int
	line   int
	column int
	mode   Mode
	states []State
	// parens counts open parentheses inside an attribute value, where // is
	// part of a URL rather than a comment.
	parens    int
	stmtStart bool
	diags     *diag.List
}

func NewLexer(input []byte, file string, opts ...LexerOption) *Lexer {
	l := &Lexer{
		input:     input,
		file:      file,
		base:      source.Start(file),
		line:      1,
		column:    1,
		states:    []State{StateNormal},
		stmtStart: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.diags == nil {
		l.diags = diag.NewList(0)
	}
	return l
}

// Tokenize lexes one fragment under the rules of its kind. Token positions
// are absolute. The result includes whitespace and comments but no EOF.
func Tokenize(f scanner.Fragment, diags *diag.List) []Token {
	l := NewLexer([]byte(f.Text), f.Start.File,
		WithStart(f.Start), WithMode(ModeFor(f.Kind)), WithLexDiagnostics(diags))
	return l.All()
}

func (l *Lexer) Position() source.Position {
	return source.Position{
		File:   l.file,
		Offset: l.base.Offset + l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) Diagnostics() *diag.List {
	return l.diags
}

// State returns the top of the state stack.
func (l *Lexer) State() State {
	return l.states[len(l.states)-1]
}

// Depth returns the height of the state stack; 1 when only the normal state
// is present.
func (l *Lexer) Depth() int {
	return len(l.states)
}

func (l *Lexer) push(s State) {
	l.states = append(l.states, s)
}

func (l *Lexer) pop() {
	if len(l.states) > 1 {
		l.states = l.states[:len(l.states)-1]
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.input[l.pos:], []byte(s))
}

// identBefore reports whether the byte before the cursor continues a word.
func (l *Lexer) identBefore() bool {
	if l.pos == 0 {
		return false
	}
	ch := l.input[l.pos-1]
	return isIdentChar(ch) || ch == ')' || ch == ']'
}

// All returns every remaining token up to, but not including, EOF.
func (l *Lexer) All() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) NextToken() Token {
	var tok Token
	switch l.mode {
	case ModeScript:
		tok = l.nextScript()
	case ModeRaw:
		tok = l.nextRaw()
	default:
		tok = l.next()
		l.observe(tok)
	}
	return tok
}

func (l *Lexer) next() Token {
	start := l.Position()
	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: source.Span{Start: start, End: start}}
	}

	ch := l.peek()
	switch {
	case isSpace(ch):
		return l.scanWhitespace(start)
	case ch == '/' && l.peekN(1) == '/' && l.parens == 0:
		return l.scanLineComment(start)
	case ch == '/' && l.peekN(1) == '*':
		return l.scanBlockComment(start)
	case ch == '-' && l.peekN(1) == '-' && l.State() != StateValue && !l.identBefore() &&
		(l.mode == ModeCHTL || !isIdentChar(l.peekN(2))):
		return l.scanGeneratorComment(start)
	case ch == '"' || ch == '\'':
		return l.scanString(start, ch)
	case ch == '[' && l.stmtStart:
		if tok, ok := l.scanBracketKeyword(start); ok {
			return tok
		}
	case ch == '@' && isIdentStart(l.peekN(1)):
		return l.scanAtWord(start)
	case ch == '.':
		return l.scanDot(start)
	case ch == '#' && isIdentChar(l.peekN(1)):
		return l.scanHash(start)
	case ch == '&':
		l.advance()
		return l.token(TokenAmpersand, start)
	case isDigit(ch), ch == '-' && (isDigit(l.peekN(1)) || l.peekN(1) == '.'):
		return l.scanUnquoted(start)
	case isIdentStart(ch), ch == '-' && isIdentStart(l.peekN(1)),
		ch == '-' && l.peekN(1) == '-' && isIdentStart(l.peekN(2)):
		return l.scanIdent(start)
	}
	return l.scanPunct(start)
}

// observe maintains the state stack and the statement-start flag after a
// structural token.
func (l *Lexer) observe(tok Token) {
	switch tok.Kind {
	case TokenWhitespace, TokenLineComment, TokenBlockComment, TokenGeneratorComment:
		return
	case TokenColon, TokenAssign:
		if l.State() == StateNormal {
			l.push(StateValue)
		}
	case TokenSemicolon, TokenLBrace, TokenRBrace:
		if l.State() == StateValue {
			l.pop()
		}
		l.parens = 0
	case TokenLParen:
		if l.State() == StateValue {
			l.parens++
		}
	case TokenRParen:
		if l.parens > 0 {
			l.parens--
		}
	}

	switch tok.Kind {
	case TokenSemicolon, TokenLBrace, TokenRBrace, TokenComma,
		TokenImportKw, TokenExcept, TokenDelete, TokenInherit:
		l.stmtStart = true
	default:
		l.stmtStart = false
	}
}

func (l *Lexer) scanWhitespace(start source.Position) Token {
	for isSpace(l.peek()) {
		l.advance()
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) scanLineComment(start source.Position) Token {
	l.push(StateComment)
	defer l.pop()
	l.advanceN(2)
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	return l.token(TokenLineComment, start)
}

func (l *Lexer) scanBlockComment(start source.Position) Token {
	l.push(StateComment)
	defer l.pop()
	l.advanceN(2)
	for {
		if l.pos >= len(l.input) {
			l.diags.Errorf(diag.Lexical, start, "unterminated block comment")
			break
		}
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			break
		}
		l.advance()
	}
	return l.token(TokenBlockComment, start)
}

func (l *Lexer) scanGeneratorComment(start source.Position) Token {
	l.push(StateComment)
	defer l.pop()
	l.advanceN(2)
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	tok := l.token(TokenGeneratorComment, start)
	tok.Value = strings.TrimSpace(tok.Literal[2:])
	return tok
}

// scanString decodes only escaped quotes and backslashes; every other
// escape sequence is kept as written.
func (l *Lexer) scanString(start source.Position, quote byte) Token {
	l.push(StateString)
	defer l.pop()
	l.advance()
	var b strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.diags.Errorf(diag.Lexical, start, "unterminated string literal")
			break
		}
		ch := l.advance()
		if ch == quote {
			break
		}
		if ch == '\\' && l.pos < len(l.input) {
			next := l.advance()
			if next != '"' && next != '\'' && next != '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(next)
			continue
		}
		b.WriteByte(ch)
	}
	tok := l.token(TokenString, start)
	tok.Value = b.String()
	return tok
}

func (l *Lexer) scanBracketKeyword(start source.Position) (Token, bool) {
	end := bytes.IndexByte(l.input[l.pos:], ']')
	if end < 0 {
		return Token{}, false
	}
	kind, ok := LookupBracketKeyword(string(l.input[l.pos : l.pos+end+1]))
	if !ok {
		return Token{}, false
	}
	l.advanceN(end + 1)
	return l.token(kind, start), true
}

// scanAtWord reads @Word. Capitalized words name declaration kinds; the
// rest are CSS at-rules such as @media.
func (l *Lexer) scanAtWord(start source.Position) Token {
	l.advance()
	first := l.peek()
	for isIdentChar(l.peek()) {
		l.advance()
	}
	kind := TokenAtRule
	if first >= 'A' && first <= 'Z' {
		kind = TokenAtKind
	}
	tok := l.token(kind, start)
	tok.Value = tok.Literal[1:]
	return tok
}

func (l *Lexer) scanDot(start source.Position) Token {
	next := l.peekN(1)
	switch {
	case l.identBefore() && isIdentStart(next):
		l.advance()
		return l.token(TokenDot, start)
	case isDigit(next):
		return l.scanUnquoted(start)
	case isIdentStart(next), next == '-' && isIdentStart(l.peekN(2)):
		l.advance()
		for isIdentChar(l.peek()) {
			l.advance()
		}
		tok := l.token(TokenClassSelector, start)
		tok.Value = tok.Literal[1:]
		return tok
	}
	l.advance()
	return l.token(TokenDot, start)
}

// scanHash reads #name. Inside a value it is a literal such as a color.
func (l *Lexer) scanHash(start source.Position) Token {
	l.advance()
	for isIdentChar(l.peek()) {
		l.advance()
	}
	if l.State() == StateValue {
		tok := l.token(TokenUnquoted, start)
		tok.Value = tok.Literal
		return tok
	}
	tok := l.token(TokenIDSelector, start)
	tok.Value = tok.Literal[1:]
	return tok
}

// scanUnquoted reads a literal that starts like a number, e.g. 10px, 1.5em
// or 100%.
func (l *Lexer) scanUnquoted(start source.Position) Token {
	l.advance()
	for {
		ch := l.peek()
		if isIdentChar(ch) || ch == '%' || (ch == '.' && isDigit(l.peekN(1))) {
			l.advance()
			continue
		}
		break
	}
	tok := l.token(TokenUnquoted, start)
	tok.Value = tok.Literal
	return tok
}

func (l *Lexer) scanIdent(start source.Position) Token {
	l.advance()
	if l.peek() == '-' {
		l.advance()
	}
	for isIdentChar(l.peek()) {
		l.advance()
	}
	tok := l.token(TokenIdent, start)
	tok.Kind = LookupKeyword(tok.Literal)
	tok.Value = tok.Literal
	return tok
}

var punctuation = map[byte]TokenKind{
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	'(': TokenLParen,
	')': TokenRParen,
	';': TokenSemicolon,
	':': TokenColon,
	'=': TokenAssign,
	',': TokenComma,
	'.': TokenDot,
}

func (l *Lexer) scanPunct(start source.Position) Token {
	ch := l.advance()
	if kind, ok := punctuation[ch]; ok {
		return l.token(kind, start)
	}
	if strings.IndexByte("!$%*+-/<>?^|~@#", ch) >= 0 {
		return l.token(TokenPunct, start)
	}
	l.diags.Errorf(diag.Lexical, start, "unexpected character %q", ch)
	return l.token(TokenUnknown, start)
}

// nextScript splits script text into raw runs and {{...}} enhanced
// selectors. Selectors inside strings and comments are not recognized.
func (l *Lexer) nextScript() Token {
	start := l.Position()
	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: source.Span{Start: start, End: start}}
	}
	if l.hasPrefix("{{") {
		return l.scanEnhancedSelector(start)
	}
	for l.pos < len(l.input) && !l.hasPrefix("{{") {
		ch := l.peek()
		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			l.skipScriptString(ch)
		case ch == '/' && l.peekN(1) == '/':
			for l.peek() != 0 && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekN(1) == '*':
			l.advanceN(2)
			for l.pos < len(l.input) && !l.hasPrefix("*/") {
				l.advance()
			}
			l.advanceN(2)
		default:
			l.advance()
		}
	}
	tok := l.token(TokenRawText, start)
	tok.Value = tok.Literal
	return tok
}

func (l *Lexer) skipScriptString(quote byte) {
	l.push(StateString)
	defer l.pop()
	l.advance()
	for l.pos < len(l.input) {
		ch := l.advance()
		if ch == '\\' {
			l.advance()
			continue
		}
		if ch == quote {
			return
		}
	}
}

func (l *Lexer) scanEnhancedSelector(start source.Position) Token {
	l.push(StateEnhancedSelector)
	defer l.pop()
	l.advanceN(2)
	inner := l.pos
	for l.pos < len(l.input) && !l.hasPrefix("}}") {
		l.advance()
	}
	value := string(l.input[inner:l.pos])
	if l.pos >= len(l.input) {
		l.diags.Errorf(diag.Lexical, start, "unterminated enhanced selector")
	} else {
		l.advanceN(2)
	}
	tok := l.token(TokenEnhancedSelector, start)
	tok.Value = strings.TrimSpace(value)
	return tok
}

func (l *Lexer) nextRaw() Token {
	start := l.Position()
	if l.pos >= len(l.input) {
		return Token{Kind: TokenEOF, Span: source.Span{Start: start, End: start}}
	}
	l.advanceN(len(l.input) - l.pos)
	tok := l.token(TokenRawText, start)
	tok.Value = tok.Literal
	return tok
}

func (l *Lexer) token(kind TokenKind, start source.Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    source.Span{Start: start, End: end},
		Literal: string(l.input[start.Offset-l.base.Offset : end.Offset-l.base.Offset]),
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}
