// Package codebase keeps every CHTL file of a directory compiled and serves
// editor queries over the results.
package codebase

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/symbols"
)

var log = commonlog.GetLogger("chtl.codebase")

type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	opts    []compiler.Option
	files   map[string]*FileInfo
}

type FileInfo struct {
	Path    string
	Content []byte
	Result  *compiler.Result
	// ModTime is the modification time of the file when Content was read
	// from disk. It is zero for text handed to UpdateFile.
	ModTime time.Time
}

func New(rootDir string, opts ...compiler.Option) *Codebase {
	return &Codebase{
		rootDir: rootDir,
		opts:    opts,
		files:   make(map[string]*FileInfo),
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

func (c *Codebase) ScanAll() error {
	c.walk(func(path string, _ fs.DirEntry) {
		if err := c.ScanFile(path); err != nil {
			log.Warningf("scan %s: %v", path, err)
		}
	})
	return nil
}

// walk calls fn for every .chtl file below the root, skipping dot
// directories.
func (c *Codebase) walk(fn func(path string, d fs.DirEntry)) {
	filepath.WalkDir(c.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != c.rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".chtl" {
			fn(filepath.Clean(path), d)
		}
		return nil
	})
}

func (c *Codebase) ScanFile(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	_, err = c.scanFile(path, st.ModTime())
	return err
}

func (c *Codebase) scanFile(path string, modTime time.Time) (*FileInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.update(path, content, modTime), nil
}

// UpdateFile compiles content as the new text of path. Imports of files
// the codebase holds see their in-memory text rather than the disk.
func (c *Codebase) UpdateFile(path string, content []byte) *FileInfo {
	return c.update(path, content, time.Time{})
}

func (c *Codebase) update(path string, content []byte, modTime time.Time) *FileInfo {
	path = filepath.Clean(path)
	loader := &compiler.FileLoader{ReadFile: c.readFile, Options: c.opts}
	opts := append(append([]compiler.Option(nil), c.opts...), compiler.WithLoader(loader))
	res := compiler.New(opts...).Compile(content, path)

	info := &FileInfo{Path: path, Content: content, Result: res, ModTime: modTime}
	c.mu.Lock()
	c.files[path] = info
	c.mu.Unlock()
	return info
}

func (c *Codebase) readFile(name string) ([]byte, error) {
	c.mu.RLock()
	f := c.files[filepath.Clean(name)]
	c.mu.RUnlock()
	if f != nil {
		return f.Content, nil
	}
	return os.ReadFile(name)
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, filepath.Clean(path))
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[filepath.Clean(path)]
}

// Paths returns the known files in lexical order.
func (c *Codebase) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for p := range c.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Diagnostics returns the diagnostics of path that point into path itself.
// Problems inside imported files are reported against those files.
func (c *Codebase) Diagnostics(path string) []diag.Diagnostic {
	f := c.GetFile(path)
	if f == nil {
		return nil
	}
	var out []diag.Diagnostic
	for _, d := range f.Result.Diagnostics.All() {
		if d.Pos.File == f.Path {
			out = append(out, d)
		}
	}
	return out
}

// Symbols returns the declarations made in path, in source order.
func (c *Codebase) Symbols(path string) []*symbols.Entry {
	f := c.GetFile(path)
	if f == nil {
		return nil
	}
	var out []*symbols.Entry
	for _, e := range f.Result.Symbols.Entries() {
		if e.File == f.Path && e.Kind != symbols.KindImport {
			out = append(out, e)
		}
	}
	return out
}

var (
	usagePrefix = regexp.MustCompile(`(?:\[(Template|Custom)\]\s*)?@(Style|Element|Var)\s+([A-Za-z0-9_\-]*)$`)
	fromPrefix  = regexp.MustCompile(`\bfrom\s+([A-Za-z0-9_.\-]*)$`)
)

// CompletionsAtPoint suggests names for the word being typed before the
// 1-based line and 0-based character col: declarations after @Style,
// @Element or @Var, namespaces after from.
func (c *Codebase) CompletionsAtPoint(path string, line, col int) []CompletionItem {
	f := c.GetFile(path)
	if f == nil {
		return nil
	}
	prefix, ok := linePrefix(f.Content, line, col)
	if !ok {
		return nil
	}

	if m := fromPrefix.FindStringSubmatch(prefix); m != nil {
		var items []CompletionItem
		for _, ns := range f.Result.Symbols.Namespaces() {
			if strings.HasPrefix(ns, m[1]) {
				items = append(items, CompletionItem{
					Label:      ns,
					Kind:       CompletionKindNamespace,
					Detail:     "[Namespace]",
					InsertText: ns,
				})
			}
		}
		return items
	}

	m := usagePrefix.FindStringSubmatch(prefix)
	if m == nil {
		return nil
	}
	qualifier, declKind, partial := m[1], ast.LookupDeclKind(m[2]), m[3]

	var items []CompletionItem
	seen := make(map[string]bool)
	for _, e := range f.Result.Symbols.Entries() {
		if e.Kind.DeclKind() != declKind || !strings.HasPrefix(e.Name, partial) {
			continue
		}
		if (qualifier == "Template" && !e.Kind.IsTemplate()) || (qualifier == "Custom" && !e.Kind.IsCustom()) {
			continue
		}
		item := CompletionItem{
			Label:      e.Name,
			Kind:       completionKind(e.Kind),
			Detail:     e.Kind.String(),
			InsertText: e.Name,
		}
		if e.Namespace != "" {
			item.Detail += " from " + e.Namespace
			item.InsertText += " from " + e.Namespace
		}
		if seen[item.InsertText] {
			continue
		}
		seen[item.InsertText] = true
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].InsertText < items[j].InsertText })
	return items
}

func linePrefix(content []byte, line, col int) (string, bool) {
	lines := strings.Split(string(content), "\n")
	if line <= 0 || line > len(lines) {
		return "", false
	}
	text := strings.TrimRight(lines[line-1], "\r")
	if col < 0 {
		return "", false
	}
	if col > len(text) {
		col = len(text)
	}
	return text[:col], true
}

func completionKind(k symbols.Kind) CompletionKind {
	switch k.DeclKind() {
	case ast.DeclStyle:
		return CompletionKindStyle
	case ast.DeclVar:
		return CompletionKindVar
	}
	return CompletionKindElement
}

type CompletionKind int

const (
	CompletionKindStyle CompletionKind = iota
	CompletionKindElement
	CompletionKindVar
	CompletionKindNamespace
)

type CompletionItem struct {
	Label      string
	Kind       CompletionKind
	Detail     string
	InsertText string
}
