// Package parser turns CHTL source into an ast.Tree.
//
// # Overview
//
// Parsing runs in three stages. The scanner cuts the file into fragments,
// the lexer tokenizes each fragment under the rules of its kind, and a
// recursive-descent parser builds the tree from the concatenated tokens.
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Scanner   │────▶│   Lexer     │────▶│   Parser    │
//	│ (fragments) │     │  (tokens)   │     │   (tree)    │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                                               │
//	                           ┌───────────────────┼───────────────────┐
//	                           ▼                   ▼                   ▼
//	                    ┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	                    │  Context    │     │   Symbol    │     │ Diagnostics │
//	                    │   Stack     │     │   Table     │     │    List     │
//	                    └─────────────┘     └─────────────┘     └─────────────┘
//
// Fragments keep their absolute start position, so every token and node
// points into the original file.
//
// # Usage
//
//	p := parser.ParseDocument(r, parser.WithFile("index.chtl"))
//	tree := p.Finish()
//	for _, d := range p.Diagnostics().All() {
//	    fmt.Println(d)
//	}
//
// Finish always returns a tree. Statements that fail to parse become Error
// nodes and parsing resumes at the next safe point: after a ';', after a
// skipped block, at a '}' closing the enclosing block or at the start of
// the next statement.
//
// # Context
//
// Every braced region pushes a Frame onto the ContextStack and pops it at
// its closing brace. Regions still open at end of input stay on the stack
// and are reported as unclosed. The stack also answers the questions the
// grammar depends on, such as whether a delete statement sits inside a
// [Custom] body and which namespace a declaration belongs to.
//
// # Local style blocks
//
// When an element is complete, the class and id selectors of its style
// block rules are added to the element as attributes unless it already
// has them, and & in rules and {{&}} in scripts is replaced by the
// element's selector: its first class, else its id, else a generated class.
//
// # Configuration
//
// An unnamed [Configuration] block takes effect for the rest of the file:
// INDEX_INITIAL_COUNT sets the number written for the first of several
// same-named targets, and a [Name] block adds alternative spellings for
// keywords unless DISABLE_NAME_GROUP is true.
package parser
