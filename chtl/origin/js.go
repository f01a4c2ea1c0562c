package origin

import (
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

// validateJS parses src as a script and collects its top-level function and
// class names.
func validateJS(src []byte, start source.Position, diags *diag.List, facts *Facts) {
	tree, err := js.Parse(parse.NewInputBytes(src), js.Options{})
	if err != nil {
		reportParseError("javascript", err, src, start, diags)
		return
	}
	for _, stmt := range tree.List {
		switch s := stmt.(type) {
		case *js.FuncDecl:
			if s.Name != nil {
				facts.Functions = append(facts.Functions, string(s.Name.Data))
			}
		case *js.ClassDecl:
			if s.Name != nil {
				facts.Classes = append(facts.Classes, string(s.Name.Data))
			}
		}
	}
}
