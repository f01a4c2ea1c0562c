package origin

import (
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

// namedColors are the CSS 2.1 color keywords.
var namedColors = map[string]bool{
	"aqua": true, "black": true, "blue": true, "fuchsia": true, "gray": true,
	"green": true, "lime": true, "maroon": true, "navy": true, "olive": true,
	"orange": true, "purple": true, "red": true, "silver": true, "teal": true,
	"white": true, "yellow": true, "transparent": true,
}

// validateCSS runs src through the css grammar parser and collects the
// selectors and properties it defines, and the colors and functions its
// declarations use.
func validateCSS(src []byte, start source.Position, diags *diag.List, facts *Facts) {
	p := css.NewParser(parse.NewInputBytes(src), false)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				reportParseError("css", err, src, start, diags)
			}
			return
		case css.BeginRulesetGrammar, css.QualifiedRuleGrammar:
			collectSelector(p.Values(), facts)
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			facts.Properties = append(facts.Properties, strings.ToLower(string(data)))
			collectValues(p.Values(), facts)
		}
	}
}

func collectSelector(values []css.Token, facts *Facts) {
	var b strings.Builder
	for i, v := range values {
		b.Write(v.Data)
		switch v.TokenType {
		case css.HashToken:
			facts.IDs = append(facts.IDs, strings.TrimPrefix(string(v.Data), "#"))
		case css.DelimToken:
			if string(v.Data) == "." && i+1 < len(values) && values[i+1].TokenType == css.IdentToken {
				facts.Classes = append(facts.Classes, string(values[i+1].Data))
			}
		}
	}
	if sel := strings.TrimSpace(b.String()); sel != "" {
		facts.Selectors = append(facts.Selectors, sel)
	}
}

func collectValues(values []css.Token, facts *Facts) {
	for _, v := range values {
		switch v.TokenType {
		case css.HashToken:
			facts.Colors = append(facts.Colors, strings.ToLower(string(v.Data)))
		case css.IdentToken:
			if name := strings.ToLower(string(v.Data)); namedColors[name] {
				facts.Colors = append(facts.Colors, name)
			}
		case css.FunctionToken:
			facts.Functions = append(facts.Functions, strings.ToLower(strings.TrimSuffix(string(v.Data), "(")))
		}
	}
}

// reportParseError converts a tdewolff parse error into a warning at its
// position in the CHTL file.
func reportParseError(lang string, err error, src []byte, start source.Position, diags *diag.List) {
	var pe *parse.Error
	if errors.As(err, &pe) {
		diags.Warnf(diag.Lexical, at(start, src, pe.Line, pe.Column), "%s: %s", lang, pe.Message)
		return
	}
	diags.Warnf(diag.Lexical, start, "%s: %v", lang, err)
}
