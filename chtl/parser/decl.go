package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/symbols"
)

// isDeclaration reports whether a [Template] or [Custom] keyword starts a
// declaration `[Custom] @Kind Name {` rather than a qualified usage.
func (p *Parser) isDeclaration() bool {
	return p.peekN(1).Kind == TokenAtKind &&
		isIdentifierKind(p.peekN(2).Kind) &&
		p.peekN(3).Kind == TokenLBrace
}

func (p *Parser) parseDeclaration() ast.NodeID {
	kw := p.advance()
	custom := kw.Kind == TokenCustomKw
	id := p.tree.New(ast.KindTemplateDecl, kw.Span)
	frame := FrameTemplateBody
	if custom {
		p.tree.Node(id).Kind = ast.KindCustomDecl
		frame = FrameCustomBody
	}
	kindTok := p.advance()
	nameTok := p.advance()
	dk := ast.LookupDeclKind(kindTok.Value)

	n := p.tree.Node(id)
	n.Name = nameTok.Literal
	n.DeclKind = dk
	n.Custom = custom
	n.Template = !custom

	kind, ok := symbols.KindFor(custom, dk)
	if !ok {
		p.errorf(kindTok, "%s cannot declare %s", kw.Literal, kindTok.Literal)
	}

	savedAmp, savedKind := p.ampOK, p.customKind
	p.ampOK = dk == ast.DeclStyle
	p.customKind = dk
	if p.openBlock(frame, nameTok.Literal, id) {
		p.parseStatements(id, bodyFor(dk))
		p.closeBlock(frame)
	}
	p.ampOK, p.customKind = savedAmp, savedKind
	p.finishNode(id)

	if ok {
		p.register(&symbols.Entry{
			Kind:      kind,
			Name:      nameTok.Literal,
			Namespace: p.ctx.NamespacePath(),
			File:      p.file,
			Pos:       nameTok.Span.Start,
			Tree:      p.tree,
			Node:      id,
		})
	}
	return id
}

// register adds e to the symbol table. A duplicate is reported at the new
// declaration and points back at the first one, which stays in effect.
func (p *Parser) register(e *symbols.Entry) {
	err := p.table.Register(e)
	if err == nil {
		return
	}
	d := diag.Diagnostic{
		Kind:        diag.Semantic,
		Severity:    diag.SeverityError,
		Message:     err.Error(),
		Pos:         e.Pos,
		Recoverable: true,
	}
	var dup *symbols.DuplicateError
	if errors.As(err, &dup) {
		related := dup.Previous.Pos
		d.Related = &related
	}
	p.diags.Add(d)
}

// parseQualifier consumes an optional [Template] or [Custom] qualifier.
func (p *Parser) parseQualifier(id ast.NodeID) {
	switch p.peek().Kind {
	case TokenCustomKw:
		p.advance()
		p.tree.Node(id).Custom = true
	case TokenTemplateKw:
		p.advance()
		p.tree.Node(id).Template = true
	}
}

func (p *Parser) parseQualifiedName() string {
	tok := p.expectIdentifier()
	if tok == nil {
		p.errorf(p.peek(), "expected a namespace name, got %s", describe(p.peek()))
		return ""
	}
	parts := []string{tok.Literal}
	for p.check(TokenDot) && isIdentifierKind(p.peekN(1).Kind) {
		p.advance()
		parts = append(parts, p.advance().Literal)
	}
	return strings.Join(parts, ".")
}

// parseReference parses `@Kind Name (from ns)?` after an optional
// qualifier. It reports false after producing an error.
func (p *Parser) parseReference(id ast.NodeID) bool {
	p.parseQualifier(id)
	kindTok := p.expect(TokenAtKind)
	if kindTok == nil {
		p.errorf(p.peek(), "expected @Style, @Element or @Var, got %s", describe(p.peek()))
		return false
	}
	nameTok := p.expectIdentifier()
	if nameTok == nil {
		p.errorf(p.peek(), "expected a name after %s, got %s", kindTok.Literal, describe(p.peek()))
		return false
	}
	n := p.tree.Node(id)
	n.DeclKind = ast.LookupDeclKind(kindTok.Value)
	n.Name = nameTok.Literal
	if p.check(TokenFrom) {
		p.advance()
		ns := p.parseQualifiedName()
		p.tree.Node(id).Namespace = ns
	}
	return true
}

// parseSpecializationBody parses the `{ ... }` after a usage or inherit, or
// the ';' ending it.
func (p *Parser) parseSpecializationBody(id ast.NodeID) {
	if !p.check(TokenLBrace) {
		p.endStatement()
		return
	}
	n := p.tree.Node(id)
	dk, name := n.DeclKind, n.Name
	savedKind := p.customKind
	p.customKind = dk
	if p.openBlock(FrameCustomBody, name, id) {
		b := bodyUsageElement
		if dk == ast.DeclStyle || dk == ast.DeclVar {
			b = bodyUsageStyle
		}
		p.parseStatements(id, b)
		p.closeBlock(FrameCustomBody)
	}
	p.customKind = savedKind
	p.groupProperties(id)
}

// groupProperties turns runs of bare properties in a specialization body
// into implicit add operations.
func (p *Parser) groupProperties(id ast.NodeID) {
	children := append([]ast.NodeID(nil), p.tree.Children(id)...)
	var out []ast.NodeID
	group := ast.NoNode
	for _, c := range children {
		if p.tree.Kind(c) != ast.KindProperty {
			group = ast.NoNode
			out = append(out, c)
			continue
		}
		if group == ast.NoNode {
			group = p.tree.New(ast.KindSpecialization, p.tree.Node(c).Span)
			g := p.tree.Node(group)
			g.Op = ast.OpAdd
			g.Implicit = true
			g.Parent = id
			out = append(out, group)
		}
		p.tree.Node(c).Parent = group
		g := p.tree.Node(group)
		g.Children = append(g.Children, c)
		g.Span.End = p.tree.Node(c).Span.End
	}
	p.tree.Node(id).Children = out
}

// parseUsage parses `[Custom]? @Kind Name (from ns)? (; | { ... })`.
// Directly inside a declaration of the same kind it is an inherit.
func (p *Parser) parseUsage(parent ast.NodeID, b body) ast.NodeID {
	id := p.startNode(ast.KindUsage)
	start := p.peek()
	if !p.parseReference(id) {
		p.recover()
		n := p.tree.Node(id)
		n.Kind = ast.KindError
		n.Error = "invalid usage"
		return p.finishNode(id)
	}

	n := p.tree.Node(id)
	switch pk := p.tree.Kind(parent); {
	case (pk == ast.KindTemplateDecl || pk == ast.KindCustomDecl) && p.tree.Node(parent).DeclKind == n.DeclKind:
		n.Kind = ast.KindInherit
		n.Implicit = true
	default:
		p.checkUsageContext(b, n.DeclKind, start)
		p.usages = append(p.usages, id)
	}
	p.parseSpecializationBody(id)
	return p.finishNode(id)
}

func (p *Parser) checkUsageContext(b body, dk ast.DeclKind, at Token) {
	switch dk {
	case ast.DeclStyle:
		if !b.isStyle() || b == bodyVarGroup {
			p.contextErrorf(at.Span.Start, "@Style groups are only used inside style blocks")
		}
	case ast.DeclElement:
		if b.isStyle() {
			p.contextErrorf(at.Span.Start, "@Element cannot be used inside a style block")
		}
	case ast.DeclVar:
		p.contextErrorf(at.Span.Start, "variable groups are referenced as Name(key) inside values")
	default:
		p.contextErrorf(at.Span.Start, "%s cannot be used here", dk)
	}
}

func (p *Parser) parseInherit(parent ast.NodeID) ast.NodeID {
	id := p.startNode(ast.KindInherit)
	kw := p.advance()
	if pk := p.tree.Kind(parent); pk != ast.KindTemplateDecl && pk != ast.KindCustomDecl {
		p.contextErrorf(kw.Span.Start, "inherit is only allowed in a [Template] or [Custom] body")
	}
	if !p.parseReference(id) {
		p.recover()
		n := p.tree.Node(id)
		n.Kind = ast.KindError
		n.Error = "invalid inherit"
		return p.finishNode(id)
	}
	p.parseSpecializationBody(id)
	return p.finishNode(id)
}

func (p *Parser) checkOperation(kw Token) {
	if !p.ctx.CurrentIs(FrameCustomBody) {
		p.contextErrorf(kw.Span.Start, "%s is only allowed inside a [Custom] body or a specialization block", kw.Literal)
	}
}

// parseDelete parses `delete a, b[1], @Style X;` into one operation per
// target.
func (p *Parser) parseDelete(parent ast.NodeID) {
	kw := p.advance()
	p.checkOperation(kw)
	for {
		id := p.startNode(ast.KindSpecialization)
		p.tree.Node(id).Op = ast.OpDelete
		if !p.parseTarget(id, true) {
			p.tree.Node(id).Kind = ast.KindError
			p.add(parent, p.errorNode("expected a delete target, got %s", describe(p.peek())))
			return
		}
		p.add(parent, p.finishNode(id))
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}
	p.endStatement()
}

// parseTarget parses `name`, `name[index]` or, when decl is set, an
// inherited `@Kind Name`.
func (p *Parser) parseTarget(id ast.NodeID, decl bool) bool {
	switch {
	case decl && p.match(TokenTemplateKw, TokenCustomKw, TokenAtKind):
		return p.parseReference(id)
	case p.isIdentifierLike():
		p.tree.Node(id).Name = p.advance().Literal
		if p.check(TokenLBracket) {
			p.parseIndex(id)
		}
		return true
	}
	return false
}

func (p *Parser) parseIndex(id ast.NodeID) {
	p.advance()
	tok := p.peek()
	if tok.Kind != TokenUnquoted {
		p.errorf(tok, "expected an index, got %s", describe(tok))
	} else {
		p.advance()
		i, err := strconv.Atoi(tok.Literal)
		if err != nil || i < 0 {
			p.errorf(tok, "invalid index %s", tok.Literal)
		} else {
			p.tree.Node(id).Index = i
		}
	}
	if p.expect(TokenRBracket) == nil {
		p.errorf(p.peek(), "expected ']', got %s", describe(p.peek()))
	}
}

// parseOperation parses insert, replace and add.
func (p *Parser) parseOperation() ast.NodeID {
	id := p.startNode(ast.KindSpecialization)
	kw := p.advance()
	p.checkOperation(kw)

	switch kw.Kind {
	case TokenInsert:
		p.tree.Node(id).Op = ast.OpInsert
		switch tok := p.advance(); tok.Kind {
		case TokenAfter:
			p.tree.Node(id).Position = ast.PosAfter
		case TokenBefore:
			p.tree.Node(id).Position = ast.PosBefore
		case TokenReplace:
			p.tree.Node(id).Op = ast.OpReplace
		case TokenAt:
			switch p.advance().Kind {
			case TokenTop:
				p.tree.Node(id).Position = ast.PosAtTop
			case TokenBottom:
				p.tree.Node(id).Position = ast.PosAtBottom
			default:
				return p.failOperation(id, "expected top or bottom after 'insert at'")
			}
		default:
			return p.failOperation(id, "expected after, before, replace or at after insert")
		}
		if pos := p.tree.Node(id).Position; pos != ast.PosAtTop && pos != ast.PosAtBottom {
			if !p.parseTarget(id, false) {
				return p.failOperation(id, "expected an insert target")
			}
		}
	case TokenReplace:
		p.tree.Node(id).Op = ast.OpReplace
		if !p.parseTarget(id, false) {
			return p.failOperation(id, "expected a replace target")
		}
	case TokenAdd:
		p.tree.Node(id).Op = ast.OpAdd
		if p.isIdentifierLike() {
			p.parseTarget(id, false)
		}
	}
	p.parsePayload(id)
	return p.finishNode(id)
}

func (p *Parser) failOperation(id ast.NodeID, msg string) ast.NodeID {
	p.errorf(p.peek(), "%s, got %s", msg, describe(p.peek()))
	p.recover()
	n := p.tree.Node(id)
	n.Kind = ast.KindError
	n.Error = msg
	return p.finishNode(id)
}

// parseTargetedAdd parses `div[1] { ... }` inside the specialization body
// of an element usage: content added to an existing child.
func (p *Parser) parseTargetedAdd() ast.NodeID {
	id := p.startNode(ast.KindSpecialization)
	n := p.tree.Node(id)
	n.Op = ast.OpAdd
	n.Implicit = true
	p.parseTarget(id, false)
	p.parsePayload(id)
	return p.finishNode(id)
}

// parsePayload parses the braced content an operation inserts or adds.
func (p *Parser) parsePayload(id ast.NodeID) {
	op := p.tree.Node(id).Op.String()
	if p.customKind == ast.DeclStyle || p.customKind == ast.DeclVar {
		if p.openBlock(FrameStyleBlock, op, id) {
			p.parseStatements(id, bodyRule)
			p.closeBlock(FrameStyleBlock)
		}
		return
	}
	if p.openBlock(FrameElement, op, id) {
		p.parseStatements(id, bodyElement)
		p.closeBlock(FrameElement)
	}
}

func (p *Parser) parseNamespace() ast.NodeID {
	id := p.startNode(ast.KindNamespaceDecl)
	p.advance()
	nameTok := p.peek()
	name := p.parseQualifiedName()
	if name == "" {
		p.recover()
		p.tree.Node(id).Kind = ast.KindError
		return p.finishNode(id)
	}
	p.tree.Node(id).Name = name

	parent := p.ctx.NamespacePath()
	for _, seg := range strings.Split(name, ".") {
		p.register(&symbols.Entry{
			Kind:      symbols.KindNamespace,
			Name:      seg,
			Namespace: parent,
			File:      p.file,
			Pos:       nameTok.Span.Start,
			Tree:      p.tree,
			Node:      id,
		})
		if parent == "" {
			parent = seg
		} else {
			parent += "." + seg
		}
	}

	if p.openBlock(FrameNamespaceBody, name, id) {
		p.parseStatements(id, bodyTop)
		p.closeBlock(FrameNamespaceBody)
	}
	return p.finishNode(id)
}

// parseImport parses
//
//	[Import] [Custom]? @Kind Name? from? path (as alias)? (from ns)?;
func (p *Parser) parseImport() ast.NodeID {
	id := p.startNode(ast.KindImportDecl)
	kw := p.advance()
	p.parseQualifier(id)
	kindTok := p.expect(TokenAtKind)
	if kindTok == nil {
		return p.errorNode("expected @Kind after %s, got %s", kw.Literal, describe(p.peek()))
	}
	n := p.tree.Node(id)
	n.TypeName = kindTok.Value
	n.DeclKind = ast.LookupDeclKind(kindTok.Value)
	if n.DeclKind == ast.DeclOther {
		p.errorf(*kindTok, "cannot import %s", kindTok.Literal)
	}

	if p.isIdentifierLike() && !p.check(TokenFrom) && p.peekN(1).Kind == TokenFrom {
		p.tree.Node(id).Name = p.advance().Literal
	}
	if p.check(TokenFrom) {
		p.advance()
	}
	pathTok := p.peek()
	path := p.parsePath()
	if path == "" {
		p.errorf(pathTok, "expected an import path, got %s", describe(pathTok))
	}
	p.tree.Node(id).Value = path
	if p.check(TokenAs) {
		p.advance()
		if tok := p.expectIdentifier(); tok != nil {
			p.tree.Node(id).Alias = tok.Literal
		} else {
			p.errorf(p.peek(), "expected a name after 'as', got %s", describe(p.peek()))
		}
	}
	if p.check(TokenFrom) {
		p.advance()
		ns := p.parseQualifiedName()
		p.tree.Node(id).Namespace = ns
	}
	p.endStatement()
	p.finishNode(id)

	p.imports = append(p.imports, id)
	n = p.tree.Node(id)
	p.register(&symbols.Entry{
		Kind:      symbols.KindImport,
		Name:      importKey(n),
		Namespace: p.ctx.NamespacePath(),
		File:      p.file,
		Pos:       n.Span.Start,
		Tree:      p.tree,
		Node:      id,
	})
	return id
}

// parsePath reads an import path: a string or the tokens up to as, from or
// ';' with their spacing.
func (p *Parser) parsePath() string {
	if tok := p.peek(); tok.Kind == TokenString {
		p.advance()
		return tok.Value
	}
	var toks []Token
	for !p.match(TokenAs, TokenFrom, TokenSemicolon, TokenRBrace, TokenLBrace, TokenEOF) {
		toks = append(toks, p.advance())
	}
	return joinTokens(toks)
}

// importKey identifies an import in the symbol table, so importing the
// same thing twice is reported.
func importKey(n *ast.Node) string {
	parts := []string{"@" + n.TypeName}
	if n.Name != "" {
		parts = append(parts, n.Name)
	}
	parts = append(parts, n.Value)
	if n.Alias != "" {
		parts = append(parts, "as", n.Alias)
	}
	return strings.Join(parts, " ")
}

// parseOrigin parses a raw block `[Origin] @Kind name? { ... }` or the use
// of a named one, `[Origin] @Kind name;`.
func (p *Parser) parseOrigin() ast.NodeID {
	id := p.startNode(ast.KindOriginDecl)
	kw := p.advance()
	kindTok := p.expect(TokenAtKind)
	if kindTok == nil {
		return p.errorNode("expected @Kind after %s, got %s", kw.Literal, describe(p.peek()))
	}
	n := p.tree.Node(id)
	n.TypeName = kindTok.Value
	n.DeclKind = ast.LookupDeclKind(kindTok.Value)
	var nameTok *Token
	if p.isIdentifierLike() {
		tok := p.advance()
		nameTok = &tok
		p.tree.Node(id).Name = tok.Literal
	}

	if !p.check(TokenLBrace) {
		if nameTok == nil {
			p.tree.Node(id).Kind = ast.KindError
			p.errorf(p.peek(), "expected a name or '{' after %s, got %s", kindTok.Literal, describe(p.peek()))
			p.recover()
			return p.finishNode(id)
		}
		p.tree.Node(id).Kind = ast.KindUsage
		p.usages = append(p.usages, id)
		p.endStatement()
		return p.finishNode(id)
	}

	name := ""
	if nameTok != nil {
		name = nameTok.Literal
	}
	if p.openBlock(FrameOriginBody, name, id) {
		var b strings.Builder
		var fallback []Token
		depth := 0
		for !p.check(TokenEOF) && !(depth == 0 && p.check(TokenRBrace)) {
			tok := p.advance()
			switch tok.Kind {
			case TokenRawText:
				b.WriteString(tok.Literal)
			case TokenLBrace:
				depth++
				fallback = append(fallback, tok)
			case TokenRBrace:
				depth--
				fallback = append(fallback, tok)
			default:
				fallback = append(fallback, tok)
			}
		}
		b.WriteString(joinTokens(fallback))
		p.tree.Node(id).Value = b.String()
		p.closeBlock(FrameOriginBody)
	}
	p.finishNode(id)

	if nameTok != nil {
		p.register(&symbols.Entry{
			Kind:      symbols.KindOrigin,
			Name:      nameTok.Literal,
			Namespace: p.ctx.NamespacePath(),
			Type:      kindTok.Value,
			File:      p.file,
			Pos:       nameTok.Span.Start,
			Tree:      p.tree,
			Node:      id,
		})
	}
	return id
}

func (p *Parser) parseConstraint() ast.NodeID {
	id := p.startNode(ast.KindConstraint)
	p.advance()
	for {
		x := p.startNode(ast.KindExcept)
		switch {
		case p.match(TokenCustomKw, TokenTemplateKw):
			p.parseQualifier(x)
			if tok := p.expect(TokenAtKind); tok != nil {
				p.tree.Node(x).DeclKind = ast.LookupDeclKind(tok.Value)
				if name := p.expectIdentifier(); name != nil {
					p.tree.Node(x).Name = name.Literal
				}
			}
		case p.check(TokenAtKind):
			tok := p.advance()
			p.tree.Node(x).DeclKind = ast.LookupDeclKind(tok.Value)
		case p.isIdentifierLike():
			p.tree.Node(x).Name = p.advance().Literal
		default:
			p.tree.Node(x).Kind = ast.KindError
			p.add(id, p.errorNode("expected an element, @Kind or [Custom] after except, got %s", describe(p.peek())))
			return p.finishNode(id)
		}
		p.add(id, p.finishNode(x))
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}
	p.endStatement()
	return p.finishNode(id)
}

// parseConfiguration parses a [Configuration] block. The unnamed block
// configures this parse; named `@Config Name` blocks are only recorded.
func (p *Parser) parseConfiguration() ast.NodeID {
	id := p.startNode(ast.KindConfiguration)
	p.advance()
	var nameTok *Token
	if at := p.expect(TokenAtKind); at != nil {
		if at.Value != "Config" {
			p.errorf(*at, "expected @Config, got %s", at.Literal)
		}
		nameTok = p.expectIdentifier()
		if nameTok == nil {
			p.errorf(p.peek(), "expected a configuration name, got %s", describe(p.peek()))
		} else {
			p.tree.Node(id).Name = nameTok.Literal
		}
	}

	if p.openBlock(FrameConfiguration, p.tree.Node(id).Name, id) {
		for {
			p.flushComments(id)
			if p.atBlockEnd() {
				break
			}
			progress := p.mustProgress()
			next := p.peekN(1).Kind
			switch {
			case p.check(TokenNameKw):
				p.add(id, p.parseNameBlock())
			case p.isIdentifierLike() && (next == TokenAssign || next == TokenColon):
				p.add(id, p.parseAttribute(ast.KindConfigEntry))
			default:
				p.add(id, p.errorNode("unexpected %s in [Configuration]", describe(p.peek())))
			}
			progress()
		}
		p.closeBlock(FrameConfiguration)
	}
	p.finishNode(id)

	if nameTok != nil {
		p.register(&symbols.Entry{
			Kind:      symbols.KindConfiguration,
			Name:      nameTok.Literal,
			Namespace: p.ctx.NamespacePath(),
			File:      p.file,
			Pos:       nameTok.Span.Start,
			Tree:      p.tree,
			Node:      id,
		})
	} else {
		p.applyConfig(id)
	}
	return id
}

func (p *Parser) parseNameBlock() ast.NodeID {
	id := p.startNode(ast.KindNameBlock)
	p.advance()
	if p.openBlock(FrameConfiguration, "[Name]", id) {
		for {
			p.flushComments(id)
			if p.atBlockEnd() {
				break
			}
			progress := p.mustProgress()
			next := p.peekN(1).Kind
			if p.isIdentifierLike() && (next == TokenAssign || next == TokenColon) {
				p.add(id, p.parseAttribute(ast.KindConfigEntry))
			} else {
				p.add(id, p.errorNode("expected KEYWORD_NAME = alias, got %s", describe(p.peek())))
			}
			progress()
		}
		p.closeBlock(FrameConfiguration)
	}
	return p.finishNode(id)
}

func (p *Parser) applyConfig(id ast.NodeID) {
	var names []ast.NodeID
	for _, c := range p.tree.Children(id) {
		n := p.tree.Node(c)
		switch n.Kind {
		case ast.KindNameBlock:
			names = append(names, c)
		case ast.KindConfigEntry:
			p.setConfig(n)
		}
	}
	if p.config.DisableNameGroup {
		return
	}
	for _, nb := range names {
		for _, c := range p.tree.ChildrenOfKind(nb, ast.KindConfigEntry) {
			p.addAliases(p.tree.Node(c))
		}
	}
}

func (p *Parser) setConfig(n *ast.Node) {
	p.config.Values[n.Name] = n.Value
	switch n.Name {
	case "INDEX_INITIAL_COUNT":
		i, err := strconv.Atoi(n.Value)
		if err != nil {
			p.diags.Errorf(diag.Semantic, n.Span.Start, "INDEX_INITIAL_COUNT must be an integer, got %q", n.Value)
			return
		}
		p.config.IndexBase = i
	case "DISABLE_NAME_GROUP":
		p.config.DisableNameGroup = p.configBool(n)
	case "DEBUG_MODE":
		p.config.Debug = p.configBool(n)
	}
}

func (p *Parser) configBool(n *ast.Node) bool {
	b, err := strconv.ParseBool(n.Value)
	if err != nil {
		p.diags.Errorf(diag.Semantic, n.Span.Start, "%s must be true or false, got %q", n.Name, n.Value)
	}
	return b
}

// addAliases applies `KEYWORD_X = alias;` or `KEYWORD_X = [a, b];`.
func (p *Parser) addAliases(n *ast.Node) {
	kind, ok := aliasKeys[n.Name]
	if !ok {
		p.diags.Warnf(diag.Semantic, n.Span.Start, "unknown keyword group %s", n.Name)
		return
	}
	for _, alias := range strings.Split(strings.Trim(n.Value, "[]"), ",") {
		if alias = strings.TrimSpace(alias); alias != "" {
			p.config.Aliases[alias] = kind
		}
	}
}
