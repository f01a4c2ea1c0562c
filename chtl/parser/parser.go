package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/chtl/source"
	"github.com/dhamidi/chtl/chtl/symbols"
)

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithComments keeps // and /* */ comments as Comment nodes. Generator
// comments are always kept.
func WithComments() Option {
	return func(p *Parser) {
		p.includeComments = true
	}
}

// WithSymbols registers declarations into table instead of a fresh one.
func WithSymbols(table *symbols.Table) Option {
	return func(p *Parser) {
		p.table = table
	}
}

func WithDiagnostics(diags *diag.List) Option {
	return func(p *Parser) {
		p.diags = diags
	}
}

func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		p.maxDepth = n
	}
}

// WithTokens parses already lexed tokens, skipping the scanner. Tokens may
// include whitespace and comments.
func WithTokens(tokens []Token) Option {
	return func(p *Parser) {
		p.raw = tokens
		p.lexed = true
	}
}

// Config is the effect of the active [Configuration] block.
type Config struct {
	IndexBase        int
	DisableNameGroup bool
	Debug            bool
	// Values holds every entry as written.
	Values map[string]string
	// Aliases maps an alternative spelling to the keyword it stands for.
	Aliases map[string]TokenKind
}

type Parser struct {
	file            string
	includeComments bool
	maxDepth        int
	reader          io.Reader
	raw             []Token
	lexed           bool
	fragments       []scanner.Fragment
	tokens          []Token
	comments        []Token
	nextComment     int
	pos             int
	eof             Token
	tree            *ast.Tree
	ctx             *ContextStack
	table           *symbols.Table
	diags           *diag.List
	log             commonlog.Logger
	config          Config
	usages          []ast.NodeID
	imports         []ast.NodeID
	lastErr         int
	// ampOK is set while & may start a rule.
	ampOK bool
	// customKind is the @Kind of the innermost declaration or usage body.
	customKind ast.DeclKind
}

// ParseDocument prepares a parser for a whole CHTL file. Nothing is read
// until Finish is called.
func ParseDocument(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		reader:  r,
		lastErr: -1,
		log:     commonlog.GetLogger("chtl.parser"),
		config: Config{
			Values:  map[string]string{},
			Aliases: map[string]TokenKind{},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.table == nil {
		p.table = symbols.NewTable()
	}
	if p.diags == nil {
		p.diags = diag.NewList(0)
	}
	return p
}

// ParseTokens prepares a parser for tokens lexed elsewhere.
func ParseTokens(tokens []Token, opts ...Option) *Parser {
	return ParseDocument(nil, append([]Option{WithTokens(tokens)}, opts...)...)
}

// Finish scans, lexes and parses the input and returns the tree. Problems
// are reported to the diagnostics list; a tree is always returned. Calling
// Finish again returns the same tree.
func (p *Parser) Finish() *ast.Tree {
	if p.tree != nil {
		return p.tree
	}
	p.tree = ast.NewTree(p.file)
	p.ctx = NewContextStack(p.maxDepth, p.diags)

	if !p.lexed {
		if err := p.lex(); err != nil {
			p.diags.Errorf(diag.Recovery, source.Start(p.file), "reading input: %v", err)
			return p.tree
		}
	}
	p.tokenize()
	p.parseDocument()
	p.log.Debugf("parsed %s: %d nodes, %d symbols", p.file, p.tree.Len(), p.table.Len())
	return p.tree
}

func (p *Parser) lex() error {
	if p.reader == nil {
		return errors.New("no input")
	}
	data, err := io.ReadAll(p.reader)
	if err != nil {
		return err
	}
	frags, sdiags := scanner.Scan(data, p.file)
	p.diags.Merge(sdiags)
	p.fragments = frags
	for _, f := range frags {
		p.raw = append(p.raw, Tokenize(f, p.diags)...)
	}
	return nil
}

func (p *Parser) Tree() *ast.Tree {
	return p.tree
}

func (p *Parser) Diagnostics() *diag.List {
	return p.diags
}

// Context returns the context stack. After Finish it holds the frames
// left open at end of input.
func (p *Parser) Context() *ContextStack {
	return p.ctx
}

func (p *Parser) Symbols() *symbols.Table {
	return p.table
}

func (p *Parser) Fragments() []scanner.Fragment {
	return p.fragments
}

func (p *Parser) Comments() []Token {
	return p.comments
}

// Usages returns the template, custom and origin usages in source order.
func (p *Parser) Usages() []ast.NodeID {
	return p.usages
}

func (p *Parser) Imports() []ast.NodeID {
	return p.imports
}

func (p *Parser) Config() Config {
	return p.config
}

func (p *Parser) tokenize() {
	end := source.Start(p.file)
	for _, tok := range p.raw {
		end = tok.Span.End
		switch tok.Kind {
		case TokenWhitespace:
		case TokenLineComment, TokenBlockComment:
			if p.includeComments {
				p.comments = append(p.comments, tok)
			}
		case TokenGeneratorComment:
			p.comments = append(p.comments, tok)
		default:
			p.tokens = append(p.tokens, tok)
		}
	}
	p.eof = Token{Kind: TokenEOF, Span: source.Span{Start: end, End: end}}
	p.tokens = append(p.tokens, p.eof)
}

// remap applies [Name] aliases.
func (p *Parser) remap(tok Token) Token {
	if tok.Kind == TokenIdent && len(p.config.Aliases) > 0 {
		if kind, ok := p.config.Aliases[tok.Literal]; ok {
			tok.Kind = kind
		}
	}
	return tok
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.eof
	}
	return p.remap(p.tokens[p.pos])
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.eof
	}
	return p.remap(p.tokens[p.pos+n])
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind TokenKind) *Token {
	tok := p.peek()
	if tok.Kind == kind {
		p.advance()
		return &tok
	}
	return nil
}

func (p *Parser) expectIdentifier() *Token {
	if p.isIdentifierLike() {
		tok := p.advance()
		return &tok
	}
	return nil
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

// mustProgress returns a function that checks if the parser has advanced.
// Call it at the start of a loop iteration, then call the returned function
// at the end to skip a token if no progress was made.
func (p *Parser) mustProgress() func() bool {
	saved := p.pos
	return func() bool {
		if p.pos == saved {
			if !p.check(TokenEOF) {
				p.advance()
			}
			return false
		}
		return true
	}
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

func isIdentifierKind(kind TokenKind) bool {
	return kind == TokenIdent || kind.IsKeyword()
}

func (p *Parser) isIdentifierLike() bool {
	return isIdentifierKind(p.peek().Kind)
}

func (p *Parser) atBlockEnd() bool {
	return p.match(TokenRBrace, TokenEOF)
}

func (p *Parser) startNode(kind ast.NodeKind) ast.NodeID {
	return p.tree.New(kind, source.Span{Start: p.peek().Span.Start})
}

func (p *Parser) finishNode(id ast.NodeID) ast.NodeID {
	if p.pos > 0 {
		p.tree.Node(id).Span.End = p.tokens[p.pos-1].Span.End
	}
	return id
}

func (p *Parser) add(parent, child ast.NodeID) {
	p.tree.Append(parent, child)
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenEOF:
		return "end of input"
	case TokenRawText:
		return "raw text"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// errorf reports a syntax error at tok. Unknown tokens were reported by the
// lexer already, and a second error at the same offset adds nothing.
func (p *Parser) errorf(tok Token, format string, args ...any) {
	if tok.Kind == TokenUnknown || tok.Span.Start.Offset == p.lastErr {
		return
	}
	p.lastErr = tok.Span.Start.Offset
	p.diags.Errorf(diag.Syntax, tok.Span.Start, format, args...)
}

func (p *Parser) contextErrorf(pos source.Position, format string, args ...any) {
	p.diags.Errorf(diag.Context, pos, format, args...)
}

// errorNode reports an error at the current token, skips to the next safe
// point and returns an Error node for the skipped region.
func (p *Parser) errorNode(format string, args ...any) ast.NodeID {
	tok := p.peek()
	msg := fmt.Sprintf(format, args...)
	p.errorf(tok, "%s", msg)
	id := p.tree.New(ast.KindError, tok.Span)
	p.tree.Node(id).Error = msg
	p.recover()
	return p.finishNode(id)
}

// recover skips at least one token, then up to a safe point: after a ';',
// after a skipped block, before the '}' closing the enclosing block or
// before the start of a statement.
func (p *Parser) recover() {
	if !p.check(TokenEOF) {
		p.advance()
	}
	depth := 0
	for {
		switch p.peek().Kind {
		case TokenEOF:
			if depth > 0 {
				p.diags.Errorf(diag.Recovery, p.eof.Span.Start, "reached end of input while skipping an invalid block")
			}
			return
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 {
				return
			}
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				p.advance()
				return
			}
		default:
			if depth == 0 && p.atStatementStart() {
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) atStatementStart() bool {
	tok := p.peek()
	switch {
	case tok.Kind.IsBracketKeyword():
		return true
	case tok.Kind == TokenAtKind, tok.Kind == TokenExcept, tok.Kind == TokenInherit,
		tok.Kind == TokenDelete, tok.Kind == TokenInsert:
		return true
	case isIdentifierKind(tok.Kind):
		return p.peekN(1).Kind == TokenLBrace
	}
	return false
}

// openBlock consumes '{' and pushes a frame for the block. When the block
// cannot be opened it is skipped and false is returned.
func (p *Parser) openBlock(kind FrameKind, name string, node ast.NodeID) bool {
	tok := p.peek()
	if tok.Kind != TokenLBrace {
		p.errorf(tok, "expected '{' to open %s, got %s", kind, describe(tok))
		return false
	}
	p.advance()
	if _, err := p.ctx.Push(kind, name, tok.Span.Start, node); err != nil {
		p.contextErrorf(tok.Span.Start, "%v", err)
		p.skipBlock()
		return false
	}
	return true
}

// closeBlock consumes '}' and pops the frame. At end of input the frame is
// left open and reported once parsing is done.
func (p *Parser) closeBlock(kind FrameKind) {
	if tok := p.peek(); tok.Kind == TokenRBrace {
		p.advance()
		p.ctx.PopExpect(kind, tok.Span.End)
	}
}

// skipBlock skips to just past the brace matching an already consumed '{'.
func (p *Parser) skipBlock() {
	depth := 1
	for depth > 0 && !p.check(TokenEOF) {
		switch p.advance().Kind {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
		}
	}
}

// endStatement consumes the ';' ending a statement. It may be left out
// before '}'.
func (p *Parser) endStatement() {
	tok := p.peek()
	switch tok.Kind {
	case TokenSemicolon:
		p.advance()
	case TokenRBrace, TokenEOF:
	default:
		p.errorf(tok, "expected ';', got %s", describe(tok))
		p.recover()
	}
}

func (p *Parser) flushComments(parent ast.NodeID) {
	for p.nextComment < len(p.comments) && p.comments[p.nextComment].Span.Start.Offset < p.peek().Span.Start.Offset {
		tok := p.comments[p.nextComment]
		p.nextComment++
		id := p.tree.New(ast.KindComment, tok.Span)
		n := p.tree.Node(id)
		n.Value = tok.Literal
		if tok.Kind == TokenGeneratorComment {
			n.Generator = true
			n.Value = tok.Value
		}
		p.add(parent, id)
	}
}

// joinTokens concatenates token text, putting a single space wherever the
// source had a gap.
func joinTokens(toks []Token) string {
	var b strings.Builder
	for i, tok := range toks {
		if i > 0 && tok.Span.Start.Offset > toks[i-1].Span.End.Offset {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Literal)
	}
	return b.String()
}

// parseValue reads the tokens of a value up to ';', '{' or '}'. A value
// made of a single string is decoded and reported as quoted.
func (p *Parser) parseValue() (string, bool) {
	var toks []Token
	for !p.match(TokenSemicolon, TokenLBrace, TokenRBrace, TokenEOF) {
		toks = append(toks, p.advance())
	}
	if len(toks) == 1 && toks[0].Kind == TokenString {
		return toks[0].Value, true
	}
	return joinTokens(toks), false
}

// body selects which statements a block accepts.
type body int

const (
	bodyTop body = iota
	bodyElement
	bodyUsageElement
	bodyStyle
	bodyRule
	bodyStyleGroup
	bodyVarGroup
	bodyUsageStyle
)

func (b body) isStyle() bool {
	return b >= bodyStyle
}

func bodyFor(dk ast.DeclKind) body {
	switch dk {
	case ast.DeclStyle:
		return bodyStyleGroup
	case ast.DeclVar:
		return bodyVarGroup
	}
	return bodyElement
}

func (p *Parser) parseDocument() {
	root := p.tree.Root
	for {
		p.parseStatements(root, bodyTop)
		if p.check(TokenEOF) {
			break
		}
		tok := p.advance()
		p.contextErrorf(tok.Span.Start, "unexpected '}' with no open block")
	}
	p.flushComments(root)
	for _, f := range p.ctx.Unclosed() {
		p.contextErrorf(f.Start, "unclosed %s %s", f.Kind, quoteName(f.Name))
	}
	p.tree.Node(root).Span.End = p.eof.Span.End
}

func (p *Parser) parseStatements(parent ast.NodeID, b body) {
	for {
		p.flushComments(parent)
		if p.atBlockEnd() {
			return
		}
		progress := p.mustProgress()
		p.parseStatement(parent, b)
		progress()
	}
}

func (p *Parser) parseStatement(parent ast.NodeID, b body) {
	tok := p.peek()
	switch tok.Kind {
	case TokenSemicolon:
		p.advance()
	case TokenTemplateKw, TokenCustomKw:
		if b == bodyTop && p.isDeclaration() {
			p.add(parent, p.parseDeclaration())
			return
		}
		p.add(parent, p.parseUsage(parent, b))
	case TokenAtKind:
		p.add(parent, p.parseUsage(parent, b))
	case TokenNamespaceKw:
		if b != bodyTop {
			p.contextErrorf(tok.Span.Start, "[Namespace] is only allowed at the top level or inside a namespace")
		}
		p.add(parent, p.parseNamespace())
	case TokenImportKw:
		if b != bodyTop {
			p.contextErrorf(tok.Span.Start, "[Import] is only allowed at the top level or inside a namespace")
		}
		p.add(parent, p.parseImport())
	case TokenConfigurationKw:
		if b != bodyTop {
			p.contextErrorf(tok.Span.Start, "[Configuration] is only allowed at the top level")
		}
		p.add(parent, p.parseConfiguration())
	case TokenNameKw:
		p.contextErrorf(tok.Span.Start, "[Name] is only allowed inside [Configuration]")
		p.add(parent, p.parseNameBlock())
	case TokenOriginKw:
		p.add(parent, p.parseOrigin())
	case TokenInherit:
		p.add(parent, p.parseInherit(parent))
	case TokenDelete:
		p.parseDelete(parent)
	case TokenInsert, TokenReplace, TokenAdd:
		p.add(parent, p.parseOperation())
	case TokenExcept:
		p.add(parent, p.parseConstraint())
	default:
		if b.isStyle() {
			p.parseStyleItem(parent, b)
		} else {
			p.parseElementItem(parent, b)
		}
	}
}

func (p *Parser) parseElementItem(parent ast.NodeID, b body) {
	tok := p.peek()
	next := p.peekN(1).Kind
	isSep := next == TokenColon || next == TokenAssign

	switch {
	case tok.Kind == TokenStyle && next == TokenLBrace:
		p.add(parent, p.parseStyleBlock(parent))
	case tok.Kind == TokenScript && next == TokenLBrace:
		p.add(parent, p.parseScriptBlock(parent))
	case tok.Kind == TokenText && next == TokenLBrace:
		p.add(parent, p.parseTextBlock())
	case b == bodyTop && p.isIdentifierLike() && isSep:
		p.add(parent, p.errorNode("attribute %s outside an element", tok.Literal))
	case tok.Kind == TokenText && isSep:
		p.add(parent, p.parseTextAttribute())
	case p.isIdentifierLike() && isSep:
		if b == bodyUsageElement {
			p.contextErrorf(tok.Span.Start, "attributes of a used element are changed with add")
		}
		p.add(parent, p.parseAttribute(ast.KindAttribute))
	case b == bodyUsageElement && p.isIdentifierLike() && (next == TokenLBrace || next == TokenLBracket):
		p.add(parent, p.parseTargetedAdd())
	case p.isIdentifierLike() && next == TokenLBrace:
		p.add(parent, p.parseElement())
	case b != bodyTop && (tok.Kind == TokenString || tok.Kind == TokenUnquoted || p.isIdentifierLike()):
		p.add(parent, p.parseBareText())
	default:
		p.add(parent, p.errorNode("unexpected %s", describe(tok)))
	}
}

func (p *Parser) parseElement() ast.NodeID {
	id := p.startNode(ast.KindElement)
	name := p.advance().Literal
	p.tree.Node(id).Name = name
	if p.openBlock(FrameElement, name, id) {
		p.parseStatements(id, bodyElement)
		p.closeBlock(FrameElement)
	}
	p.finishNode(id)
	p.resolveLocalBlocks(id)
	return id
}

// parseAttribute parses `name: value;` or `name = value;` into a node of
// the given kind.
func (p *Parser) parseAttribute(kind ast.NodeKind) ast.NodeID {
	id := p.startNode(kind)
	name := p.advance()
	sep := p.advance()
	value, quoted := p.parseValue()
	if value == "" && !quoted {
		p.errorf(p.peek(), "missing value for %s", name.Literal)
	}
	n := p.tree.Node(id)
	n.Name = name.Literal
	n.Sep = sep.Literal
	n.Value = value
	n.Quoted = quoted
	p.endStatement()
	return p.finishNode(id)
}

func (p *Parser) parseTextAttribute() ast.NodeID {
	id := p.startNode(ast.KindText)
	p.advance()
	sep := p.advance()
	value, quoted := p.parseValue()
	n := p.tree.Node(id)
	n.Value = value
	n.Quoted = quoted
	n.Sep = sep.Literal
	p.endStatement()
	return p.finishNode(id)
}

func (p *Parser) parseTextBlock() ast.NodeID {
	id := p.startNode(ast.KindText)
	p.advance()
	if p.openBlock(FrameElement, "text", id) {
		var toks []Token
		for !p.atBlockEnd() {
			toks = append(toks, p.advance())
		}
		n := p.tree.Node(id)
		if len(toks) == 1 && toks[0].Kind == TokenString {
			n.Value = toks[0].Value
			n.Quoted = true
		} else {
			n.Value = joinTokens(toks)
		}
		p.closeBlock(FrameElement)
	}
	return p.finishNode(id)
}

// parseBareText parses a literal standing alone in an element body.
func (p *Parser) parseBareText() ast.NodeID {
	id := p.startNode(ast.KindText)
	value, quoted := p.parseValue()
	n := p.tree.Node(id)
	n.Value = value
	n.Quoted = quoted
	n.Implicit = true
	p.endStatement()
	return p.finishNode(id)
}

func (p *Parser) parseStyleBlock(parent ast.NodeID) ast.NodeID {
	id := p.startNode(ast.KindStyleBlock)
	p.advance()
	saved := p.ampOK
	p.ampOK = p.tree.Kind(parent) == ast.KindElement
	if p.openBlock(FrameStyleBlock, "style", id) {
		p.parseStatements(id, bodyStyle)
		p.closeBlock(FrameStyleBlock)
	}
	p.ampOK = saved
	return p.finishNode(id)
}

func (p *Parser) parseStyleItem(parent ast.NodeID, b body) {
	tok := p.peek()
	switch {
	case p.isRuleStart():
		if b == bodyVarGroup {
			p.add(parent, p.errorNode("rules are not allowed in a variable group"))
			return
		}
		p.add(parent, p.parseRule())
	case p.isIdentifierLike() || tok.Kind == TokenUnquoted:
		switch p.peekN(1).Kind {
		case TokenColon, TokenAssign:
			p.add(parent, p.parseAttribute(ast.KindProperty))
		case TokenComma, TokenSemicolon, TokenRBrace:
			p.parsePlaceholders(parent, b)
		default:
			p.add(parent, p.errorNode("expected ':' after %s, got %s", tok.Literal, describe(p.peekN(1))))
		}
	default:
		p.add(parent, p.errorNode("unexpected %s in style block", describe(tok)))
	}
}

// isRuleStart reports whether a '{' comes before the end of the current
// statement.
func (p *Parser) isRuleStart() bool {
	for i := 0; ; i++ {
		switch p.peekN(i).Kind {
		case TokenLBrace:
			return true
		case TokenSemicolon, TokenRBrace, TokenEOF:
			return false
		}
	}
}

// parsePlaceholders parses `a, b;`: properties declared without a value,
// which only a [Custom] @Style group may do.
func (p *Parser) parsePlaceholders(parent ast.NodeID, b body) {
	allowed := b == bodyStyleGroup && p.ctx.CurrentIs(FrameCustomBody)
	for {
		tok := p.advance()
		id := p.tree.New(ast.KindProperty, tok.Span)
		n := p.tree.Node(id)
		n.Name = tok.Literal
		n.Placeholder = true
		if !allowed {
			p.errorf(tok, "property %s has no value", tok.Literal)
		}
		p.add(parent, id)
		if !p.check(TokenComma) {
			break
		}
		p.advance()
		if !p.isIdentifierLike() {
			break
		}
	}
	p.endStatement()
}

func (p *Parser) parseRule() ast.NodeID {
	id := p.startNode(ast.KindRule)
	first := p.peek()
	var toks []Token
	for !p.match(TokenLBrace, TokenSemicolon, TokenRBrace, TokenEOF) {
		toks = append(toks, p.advance())
	}

	sel := ast.Selector{Text: joinTokens(toks)}
	switch {
	case strings.Contains(sel.Text, "&"):
		sel.Kind = ast.SelectorContext
	case first.Kind == TokenClassSelector:
		sel.Kind = ast.SelectorClass
		sel.Value = first.Value
	case first.Kind == TokenIDSelector:
		sel.Kind = ast.SelectorID
		sel.Value = first.Value
	case isIdentifierKind(first.Kind):
		sel.Kind = ast.SelectorTag
		sel.Value = first.Literal
	default:
		sel.Kind = ast.SelectorOther
	}
	if sel.Kind != ast.SelectorContext {
		sel.Resolved = sel.Text
	} else if !p.ampOK {
		p.contextErrorf(first.Span.Start, "& is only allowed inside a local style block or a style group")
	}
	p.tree.Node(id).Selector = sel

	if p.openBlock(FrameStyleBlock, sel.Text, id) {
		p.parseStatements(id, bodyRule)
		p.closeBlock(FrameStyleBlock)
	}
	return p.finishNode(id)
}

func (p *Parser) parseScriptBlock(parent ast.NodeID) ast.NodeID {
	id := p.startNode(ast.KindScriptBlock)
	p.advance()
	local := p.tree.Kind(parent) == ast.KindElement
	if !p.openBlock(FrameScriptBlock, "script", id) {
		return p.finishNode(id)
	}

	var fallback []Token
	flush := func() {
		if len(fallback) == 0 {
			return
		}
		raw := p.tree.New(ast.KindRawText, source.Span{Start: fallback[0].Span.Start, End: fallback[len(fallback)-1].Span.End})
		p.tree.Node(raw).Value = joinTokens(fallback)
		p.add(id, raw)
		fallback = nil
	}
	depth := 0
	for !p.check(TokenEOF) && !(depth == 0 && p.check(TokenRBrace)) {
		tok := p.advance()
		switch tok.Kind {
		case TokenRawText:
			flush()
			raw := p.tree.New(ast.KindRawText, tok.Span)
			p.tree.Node(raw).Value = tok.Literal
			p.add(id, raw)
		case TokenEnhancedSelector:
			flush()
			sel := p.enhancedSelector(tok)
			if !local && p.tree.Node(sel).Selector.Kind == ast.SelectorContext {
				p.contextErrorf(tok.Span.Start, "{{&}} has no host element outside a local script block")
			}
			p.add(id, sel)
		default:
			switch tok.Kind {
			case TokenLBrace:
				depth++
			case TokenRBrace:
				depth--
			}
			fallback = append(fallback, tok)
		}
	}
	flush()
	p.closeBlock(FrameScriptBlock)
	return p.finishNode(id)
}

func (p *Parser) enhancedSelector(tok Token) ast.NodeID {
	id := p.tree.New(ast.KindEnhancedSelector, tok.Span)
	n := p.tree.Node(id)
	n.Value = tok.Value
	sel := ast.Selector{Text: tok.Value, Resolved: tok.Value}
	switch {
	case strings.Contains(tok.Value, "&"):
		sel.Kind = ast.SelectorContext
		sel.Resolved = ""
	case strings.HasPrefix(tok.Value, "."):
		sel.Kind = ast.SelectorClass
		sel.Value = selectorName(tok.Value[1:])
	case strings.HasPrefix(tok.Value, "#"):
		sel.Kind = ast.SelectorID
		sel.Value = selectorName(tok.Value[1:])
	case tok.Value != "" && isIdentStart(tok.Value[0]):
		sel.Kind = ast.SelectorTag
		sel.Value = selectorName(tok.Value)
	default:
		sel.Kind = ast.SelectorOther
	}
	n.Selector = sel
	return id
}

// selectorName returns the leading name of a simple selector.
func selectorName(s string) string {
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return s[:i]
		}
	}
	return s
}

// resolveLocalBlocks runs when an element is complete. Class and id
// selectors of its style and script blocks become attributes, and & is
// replaced by the element's selector.
func (p *Parser) resolveLocalBlocks(elem ast.NodeID) {
	var contextual []ast.NodeID
	for _, blk := range p.tree.ChildrenOfKind(elem, ast.KindStyleBlock) {
		for _, r := range p.tree.ChildrenOfKind(blk, ast.KindRule) {
			sel := p.tree.Node(r).Selector
			switch sel.Kind {
			case ast.SelectorClass, ast.SelectorID:
				p.tree.AddSelectorAttribute(elem, sel.Kind, sel.Value)
			case ast.SelectorContext:
				contextual = append(contextual, r)
			}
		}
	}
	for _, blk := range p.tree.ChildrenOfKind(elem, ast.KindScriptBlock) {
		for _, s := range p.tree.ChildrenOfKind(blk, ast.KindEnhancedSelector) {
			sel := p.tree.Node(s).Selector
			switch sel.Kind {
			case ast.SelectorClass, ast.SelectorID:
				p.tree.AddSelectorAttribute(elem, sel.Kind, sel.Value)
			case ast.SelectorContext:
				contextual = append(contextual, s)
			}
		}
	}
	if len(contextual) == 0 {
		return
	}

	host := p.tree.HostSelector(elem)
	for _, c := range contextual {
		n := p.tree.Node(c)
		n.Selector.Resolved = strings.ReplaceAll(n.Selector.Text, "&", host)
		if blk := p.tree.Parent(c); p.tree.Kind(blk) == ast.KindStyleBlock {
			p.tree.Node(blk).Selector = ast.Selector{Kind: ast.SelectorContext, Text: "&", Resolved: host}
		}
	}
}
