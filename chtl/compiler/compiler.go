// Package compiler runs the front end over one CHTL file: scanning, lexing,
// parsing, import loading and resolution. Each call to Compile is an
// independent session with its own symbol table and diagnostics.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/origin"
	"github.com/dhamidi/chtl/chtl/parser"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/chtl/specialize"
	"github.com/dhamidi/chtl/chtl/symbols"
)

var log = commonlog.GetLogger("chtl.compiler")

type Option func(*Compiler)

func WithMaxErrors(n int) Option {
	return func(c *Compiler) {
		c.maxErrors = n
	}
}

func WithMaxDepth(n int) Option {
	return func(c *Compiler) {
		c.maxDepth = n
	}
}

// WithIndexBase sets the number written for the first of several same-named
// siblings. INDEX_INITIAL_COUNT in the source takes precedence.
func WithIndexBase(n int) Option {
	return func(c *Compiler) {
		c.indexBase = n
	}
}

// WithLoader sets the loader used for [Import]. A nil loader makes every
// import an error.
func WithLoader(l Loader) Option {
	return func(c *Compiler) {
		c.loader = l
	}
}

// WithParallelLex lexes the fragments of a file concurrently.
func WithParallelLex(enabled bool) Option {
	return func(c *Compiler) {
		c.parallel = enabled
	}
}

// WithForeignValidation checks origin payloads and plain scripts with a
// parser for their language.
func WithForeignValidation(enabled bool) Option {
	return func(c *Compiler) {
		c.validateForeign = enabled
	}
}

// WithComments keeps ordinary comments in the tree.
func WithComments() Option {
	return func(c *Compiler) {
		c.comments = true
	}
}

// withChain records the files whose imports led to this compilation.
func withChain(chain []string) Option {
	return func(c *Compiler) {
		c.chain = chain
	}
}

type Compiler struct {
	maxErrors       int
	maxDepth        int
	indexBase       int
	loader          Loader
	parallel        bool
	validateForeign bool
	comments        bool
	chain           []string
}

func New(opts ...Option) *Compiler {
	c := &Compiler{
		maxErrors: diag.DefaultMaxErrors,
		maxDepth:  parser.DefaultMaxDepth,
		loader:    NewFileLoader(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is everything one session produced. Tree and Symbols are always
// set, even when Diagnostics holds errors.
type Result struct {
	ID          uuid.UUID
	File        string
	Tree        *ast.Tree
	Symbols     *symbols.Table
	Fragments   []scanner.Fragment
	Tokens      []parser.Token
	Config      parser.Config
	Diagnostics *diag.List
	// Foreign holds what validation learned about embedded payloads, in
	// source order.
	Foreign []*origin.Facts
}

// OK reports whether the file compiled without errors.
func (r *Result) OK() bool {
	return !r.Diagnostics.HasErrors()
}

func (c *Compiler) CompileFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chtl file: %w", err)
	}
	return c.Compile(data, path), nil
}

// Compile runs every stage over src. Problems are reported in the result's
// diagnostics; Compile itself never fails.
func (c *Compiler) Compile(src []byte, file string) *Result {
	res := &Result{
		ID:          uuid.New(),
		File:        file,
		Diagnostics: diag.NewList(c.maxErrors),
	}
	log.Debugf("session %s: compiling %s", res.ID, file)

	frags, sdiags := scanner.Scan(src, file)
	res.Diagnostics.Merge(sdiags)
	res.Fragments = frags
	res.Tokens = c.lex(frags, res.Diagnostics)
	log.Debugf("session %s: %d fragments, %d tokens", res.ID, len(frags), len(res.Tokens))

	engine := &specialize.Engine{}
	table := symbols.NewTable(symbols.WithEngine(engine))
	opts := []parser.Option{
		parser.WithFile(file),
		parser.WithSymbols(table),
		parser.WithDiagnostics(res.Diagnostics),
		parser.WithMaxDepth(c.maxDepth),
	}
	if c.comments {
		opts = append(opts, parser.WithComments())
	}
	p := parser.ParseTokens(res.Tokens, opts...)
	res.Tree = p.Finish()
	res.Symbols = table
	res.Config = p.Config()

	engine.IndexBase = c.indexBase
	if _, ok := res.Config.Values["INDEX_INITIAL_COUNT"]; ok {
		engine.IndexBase = res.Config.IndexBase
	}

	s := &session{
		compiler: c,
		result:   res,
		chain:    append(append([]string(nil), c.chain...), filepath.Clean(file)),
	}
	for _, id := range p.Imports() {
		s.importDecl(id)
	}

	symbols.NewResolver(table, res.Diagnostics).ResolveDocument(res.Tree)

	if c.validateForeign {
		for _, f := range frags {
			if facts := origin.ValidateFragment(f, res.Diagnostics); facts != nil {
				res.Foreign = append(res.Foreign, facts)
			}
		}
	}

	log.Infof("session %s: %s: %d errors, %d warnings, %d symbols",
		res.ID, file, len(res.Diagnostics.Errors()), len(res.Diagnostics.Warnings()), table.Len())
	return res
}

// lex tokenizes each fragment in its own mode. In parallel mode every
// fragment gets its own diagnostics list; the lists are merged in fragment
// order so the result does not depend on scheduling.
func (c *Compiler) lex(frags []scanner.Fragment, diags *diag.List) []parser.Token {
	if !c.parallel || len(frags) < 2 {
		var tokens []parser.Token
		for _, f := range frags {
			tokens = append(tokens, parser.Tokenize(f, diags)...)
		}
		return tokens
	}

	tokens := make([][]parser.Token, len(frags))
	lists := make([]*diag.List, len(frags))
	var wg sync.WaitGroup
	for i, f := range frags {
		wg.Add(1)
		go func(i int, f scanner.Fragment) {
			defer wg.Done()
			lists[i] = diag.NewList(diags.Max())
			tokens[i] = parser.Tokenize(f, lists[i])
		}(i, f)
	}
	wg.Wait()

	var all []parser.Token
	for i := range frags {
		diags.Merge(lists[i])
		all = append(all, tokens[i]...)
	}
	return all
}

// CompileSource compiles an in-memory document.
func CompileSource(src, file string, opts ...Option) *Result {
	return New(opts...).Compile([]byte(src), file)
}
