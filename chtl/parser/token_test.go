package parser

import (
	"testing"
)

func TestTokenKindString(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want string
	}{
		{TokenEOF, "EOF"},
		{TokenIdent, "Identifier"},
		{TokenString, "String"},
		{TokenTemplateKw, "[Template]"},
		{TokenConfigurationKw, "[Configuration]"},
		{TokenAtKind, "AtKind"},
		{TokenAmpersand, "&"},
		{TokenDelete, "delete"},
		{TokenExcept, "except"},
		{TokenLBrace, "{"},
		{TokenSemicolon, ";"},
		{TokenKind(9999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		ident string
		want  TokenKind
	}{
		{"text", TokenText},
		{"style", TokenStyle},
		{"inherit", TokenInherit},
		{"at", TokenAt},
		{"except", TokenExcept},
		{"div", TokenIdent},
		{"Text", TokenIdent},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			if got := LookupKeyword(tt.ident); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookupBracketKeyword(t *testing.T) {
	if kind, ok := LookupBracketKeyword("[Namespace]"); !ok || kind != TokenNamespaceKw {
		t.Errorf("got %v %v, want %v true", kind, ok, TokenNamespaceKw)
	}
	if _, ok := LookupBracketKeyword("[Unknown]"); ok {
		t.Error("[Unknown] is not a keyword")
	}
}

func TestTokenKindClasses(t *testing.T) {
	if !TokenFrom.IsKeyword() || TokenIdent.IsKeyword() || TokenLBrace.IsKeyword() {
		t.Error("IsKeyword misclassifies")
	}
	if !TokenNameKw.IsBracketKeyword() || TokenAtKind.IsBracketKeyword() {
		t.Error("IsBracketKeyword misclassifies")
	}
}

func TestTokenString(t *testing.T) {
	if got := (Token{Kind: TokenEOF}).String(); got != "end of input" {
		t.Errorf("got %q", got)
	}
	if got := (Token{Kind: TokenIdent, Literal: "div"}).String(); got != "div" {
		t.Errorf("got %q", got)
	}
}
