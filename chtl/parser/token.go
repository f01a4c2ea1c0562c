package parser

import "github.com/dhamidi/chtl/chtl/source"

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenUnknown
	TokenWhitespace
	TokenLineComment
	TokenBlockComment
	TokenGeneratorComment

	// Literals
	TokenIdent
	TokenString
	TokenUnquoted

	// Bracket keywords
	TokenTemplateKw
	TokenCustomKw
	TokenNamespaceKw
	TokenImportKw
	TokenOriginKw
	TokenConfigurationKw
	TokenNameKw

	// @-words
	TokenAtKind
	TokenAtRule

	// Selectors
	TokenClassSelector
	TokenIDSelector
	TokenAmpersand

	// Embedded script content
	TokenRawText
	TokenEnhancedSelector

	// Contextual keywords
	TokenText
	TokenStyle
	TokenScript
	TokenInherit
	TokenDelete
	TokenInsert
	TokenReplace
	TokenAdd
	TokenAfter
	TokenBefore
	TokenAt
	TokenTop
	TokenBottom
	TokenFrom
	TokenAs
	TokenExcept

	// Punctuation
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
	TokenSemicolon
	TokenColon
	TokenAssign
	TokenComma
	TokenDot
	TokenPunct
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:              "EOF",
	TokenUnknown:          "Unknown",
	TokenWhitespace:       "Whitespace",
	TokenLineComment:      "LineComment",
	TokenBlockComment:     "BlockComment",
	TokenGeneratorComment: "GeneratorComment",
	TokenIdent:            "Identifier",
	TokenString:           "String",
	TokenUnquoted:         "Unquoted",
	TokenTemplateKw:       "[Template]",
	TokenCustomKw:         "[Custom]",
	TokenNamespaceKw:      "[Namespace]",
	TokenImportKw:         "[Import]",
	TokenOriginKw:         "[Origin]",
	TokenConfigurationKw:  "[Configuration]",
	TokenNameKw:           "[Name]",
	TokenAtKind:           "AtKind",
	TokenAtRule:           "AtRule",
	TokenClassSelector:    "ClassSelector",
	TokenIDSelector:       "IDSelector",
	TokenAmpersand:        "&",
	TokenRawText:          "RawText",
	TokenEnhancedSelector: "EnhancedSelector",
	TokenText:             "text",
	TokenStyle:            "style",
	TokenScript:           "script",
	TokenInherit:          "inherit",
	TokenDelete:           "delete",
	TokenInsert:           "insert",
	TokenReplace:          "replace",
	TokenAdd:              "add",
	TokenAfter:            "after",
	TokenBefore:           "before",
	TokenAt:               "at",
	TokenTop:              "top",
	TokenBottom:           "bottom",
	TokenFrom:             "from",
	TokenAs:               "as",
	TokenExcept:           "except",
	TokenLBrace:           "{",
	TokenRBrace:           "}",
	TokenLBracket:         "[",
	TokenRBracket:         "]",
	TokenLParen:           "(",
	TokenRParen:           ")",
	TokenSemicolon:        ";",
	TokenColon:            ":",
	TokenAssign:           "=",
	TokenComma:            ",",
	TokenDot:              ".",
	TokenPunct:            "Punct",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsKeyword reports whether k is a contextual keyword. Keywords are accepted
// wherever an identifier is expected.
func (k TokenKind) IsKeyword() bool {
	return k >= TokenText && k <= TokenExcept
}

// IsBracketKeyword reports whether k is one of the [Word] keywords.
func (k TokenKind) IsBracketKeyword() bool {
	return k >= TokenTemplateKw && k <= TokenNameKw
}

type Token struct {
	Kind    TokenKind
	Span    source.Span
	Literal string
	// Value is the decoded string contents, the bare name of a selector or
	// @-word, the text of a comment or the inner text of {{...}}.
	Value string
}

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return t.Literal
}

var keywords = map[string]TokenKind{
	"text":    TokenText,
	"style":   TokenStyle,
	"script":  TokenScript,
	"inherit": TokenInherit,
	"delete":  TokenDelete,
	"insert":  TokenInsert,
	"replace": TokenReplace,
	"add":     TokenAdd,
	"after":   TokenAfter,
	"before":  TokenBefore,
	"at":      TokenAt,
	"top":     TokenTop,
	"bottom":  TokenBottom,
	"from":    TokenFrom,
	"as":      TokenAs,
	"except":  TokenExcept,
}

func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return TokenIdent
}

var bracketKeywords = map[string]TokenKind{
	"[Template]":      TokenTemplateKw,
	"[Custom]":        TokenCustomKw,
	"[Namespace]":     TokenNamespaceKw,
	"[Import]":        TokenImportKw,
	"[Origin]":        TokenOriginKw,
	"[Configuration]": TokenConfigurationKw,
	"[Name]":          TokenNameKw,
}

// LookupBracketKeyword maps a complete [Word] spelling to its keyword kind.
func LookupBracketKeyword(word string) (TokenKind, bool) {
	kind, ok := bracketKeywords[word]
	return kind, ok
}

// aliasKeys maps the [Name] configuration keys to the keyword they rename.
var aliasKeys = map[string]TokenKind{
	"KEYWORD_TEXT":    TokenText,
	"KEYWORD_INHERIT": TokenInherit,
	"KEYWORD_DELETE":  TokenDelete,
	"KEYWORD_INSERT":  TokenInsert,
	"KEYWORD_REPLACE": TokenReplace,
	"KEYWORD_ADD":     TokenAdd,
	"KEYWORD_AFTER":   TokenAfter,
	"KEYWORD_BEFORE":  TokenBefore,
	"KEYWORD_AT":      TokenAt,
	"KEYWORD_TOP":     TokenTop,
	"KEYWORD_BOTTOM":  TokenBottom,
	"KEYWORD_FROM":    TokenFrom,
	"KEYWORD_AS":      TokenAs,
	"KEYWORD_EXCEPT":  TokenExcept,
}
