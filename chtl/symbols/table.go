// Package symbols records the named declarations of a compilation unit and
// resolves references to them.
//
// Names are scoped by namespace path and grouped by declaration kind, so
// `@Style Box` and `@Element Box` may coexist while two `@Style Box`
// declarations in one namespace may not, whether [Template] or [Custom].
package symbols

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/source"
	"github.com/dhamidi/chtl/chtl/specialize"
)

type Kind int

const (
	KindTemplateStyle Kind = iota
	KindTemplateElement
	KindTemplateVar
	KindCustomStyle
	KindCustomElement
	KindCustomVar
	KindOrigin
	KindNamespace
	KindImport
	KindConfiguration
)

var kindNames = map[Kind]string{
	KindTemplateStyle:   "[Template] @Style",
	KindTemplateElement: "[Template] @Element",
	KindTemplateVar:     "[Template] @Var",
	KindCustomStyle:     "[Custom] @Style",
	KindCustomElement:   "[Custom] @Element",
	KindCustomVar:       "[Custom] @Var",
	KindOrigin:          "[Origin]",
	KindNamespace:       "[Namespace]",
	KindImport:          "[Import]",
	KindConfiguration:   "[Configuration]",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindFor maps a template or custom declaration to its symbol kind.
func KindFor(custom bool, dk ast.DeclKind) (Kind, bool) {
	var k Kind
	switch dk {
	case ast.DeclStyle:
		k = KindTemplateStyle
	case ast.DeclElement:
		k = KindTemplateElement
	case ast.DeclVar:
		k = KindTemplateVar
	default:
		return 0, false
	}
	if custom {
		k += KindCustomStyle - KindTemplateStyle
	}
	return k, true
}

func (k Kind) IsCustom() bool {
	return k >= KindCustomStyle && k <= KindCustomVar
}

func (k Kind) IsTemplate() bool {
	return k >= KindTemplateStyle && k <= KindTemplateVar
}

// DeclKind returns the @Kind of template and custom symbols.
func (k Kind) DeclKind() ast.DeclKind {
	switch k {
	case KindTemplateStyle, KindCustomStyle:
		return ast.DeclStyle
	case KindTemplateElement, KindCustomElement:
		return ast.DeclElement
	case KindTemplateVar, KindCustomVar:
		return ast.DeclVar
	}
	return ast.DeclNone
}

var (
	ErrDuplicate = errors.New("duplicate declaration")
	ErrNotFound  = errors.New("unresolved reference")
	ErrCycle     = errors.New("inheritance cycle")
)

type DuplicateError struct {
	Entry    *Entry
	Previous *Entry
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%v: %s %s already declared at %s",
		ErrDuplicate, e.Entry.Kind, e.Entry.QualifiedName(), e.Previous.Pos)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

func (e *DuplicateError) Position() source.Position {
	return e.Entry.Pos
}

type NotFoundError struct {
	What  string
	Name  string
	Scope string
	Pos   source.Position
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%v: %s %s", ErrNotFound, e.What, e.Name)
	if e.Scope != "" {
		msg += " in namespace " + e.Scope
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func (e *NotFoundError) Position() source.Position {
	return e.Pos
}

type CycleError struct {
	Path []string
	Pos  source.Position
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

func (e *CycleError) Position() source.Position {
	return e.Pos
}

type state int

const (
	unresolved state = iota
	resolving
	resolved
)

// Entry is one named declaration. Readers never mutate it; the flattened
// form is computed by the table and kept in a tree the table owns.
type Entry struct {
	Kind      Kind
	Name      string
	Namespace string
	// Type is the @Kind name of an origin, e.g. "Html".
	Type string
	File string
	Pos  source.Position
	Tree *ast.Tree
	Node ast.NodeID

	state state
	flat  ast.NodeID
	errs  []error
}

// QualifiedName returns the name prefixed with its namespace path.
func (e *Entry) QualifiedName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + "." + e.Name
}


// group separates the name spaces of different declaration kinds.
func (e *Entry) group() string {
	switch e.Kind {
	case KindOrigin:
		return "origin:" + e.Type
	case KindNamespace:
		return "namespace"
	case KindImport:
		return "import"
	case KindConfiguration:
		return "config"
	}
	return e.Kind.DeclKind().String()
}

type key struct {
	namespace string
	group     string
	name      string
}

type Table struct {
	mu      sync.RWMutex
	entries map[key]*Entry
	order   []*Entry
	scratch *ast.Tree
	engine  *specialize.Engine
	log     commonlog.Logger
}

type TableOption func(*Table)

// WithEngine sets the engine applying declaration-level operations inside
// [Custom] bodies.
func WithEngine(e *specialize.Engine) TableOption {
	return func(t *Table) {
		t.engine = e
	}
}

func NewTable(opts ...TableOption) *Table {
	t := &Table{
		entries: map[key]*Entry{},
		scratch: ast.NewTree(""),
		engine:  &specialize.Engine{},
		log:     commonlog.GetLogger("chtl.symbols"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Flattened reports whether the inheritance of e has been resolved.
func (t *Table) Flattened(e *Entry) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return e.state == resolved
}

// Register adds e. Registering a namespace that already exists merges the
// two and is not an error.
func (t *Table) Register(e *Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registerLocked(e)
}

func (t *Table) registerLocked(e *Entry) error {
	k := key{e.Namespace, e.group(), e.Name}
	if prev, ok := t.entries[k]; ok {
		if e.Kind == KindNamespace {
			return nil
		}
		return &DuplicateError{Entry: e, Previous: prev}
	}
	e.state = unresolved
	e.flat = ast.NoNode
	e.errs = nil
	t.entries[k] = e
	t.order = append(t.order, e)
	t.log.Debugf("registered %s %s", e.Kind, e.QualifiedName())
	return nil
}

// Entries returns every entry in registration order.
func (t *Table) Entries() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Entry(nil), t.order...)
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Namespaces returns the registered namespace paths in sorted order.
func (t *Table) Namespaces() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, e := range t.order {
		if e.Kind == KindNamespace {
			out = append(out, e.QualifiedName())
		}
	}
	sort.Strings(out)
	return out
}

// Resolve finds the template or custom declaration of kind dk named name as
// seen from scope. ns is the `from` qualifier of the reference, if any.
func (t *Table) Resolve(dk ast.DeclKind, name, ns, scope string) (*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolveLocked(dk.String(), name, ns, scope)
}

// ResolveOrigin finds a named [Origin] block of the given type.
func (t *Table) ResolveOrigin(typ, name, ns, scope string) (*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolveLocked("origin:"+typ, name, ns, scope)
}

// Lookup is an exact lookup that never fails with an error.
func (t *Table) Lookup(dk ast.DeclKind, namespace, name string) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key{namespace, dk.String(), name}]
	return e, ok
}

// resolveLocked tries the scopes from the innermost outward. A qualified
// reference is tried as written first, then relative to each enclosing
// namespace.
func (t *Table) resolveLocked(group, name, ns, scope string) (*Entry, error) {
	var candidates []string
	if ns != "" {
		candidates = append(candidates, ns)
	}
	for s := scope; ; s = parentNamespace(s) {
		switch {
		case ns == "":
			candidates = append(candidates, s)
		case s != "":
			candidates = append(candidates, s+"."+ns)
		}
		if s == "" {
			break
		}
	}
	for _, c := range candidates {
		if e, ok := t.entries[key{c, group, name}]; ok {
			return e, nil
		}
	}
	what := strings.TrimPrefix(group, "origin:")
	if strings.HasPrefix(group, "origin:") {
		what = "[Origin] @" + what
	}
	full := name
	if ns != "" {
		full = ns + "." + name
	}
	return nil, &NotFoundError{What: what, Name: full, Scope: scope}
}

func parentNamespace(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[:i]
	}
	return ""
}

// Merge registers the entries of other under the namespace into. Entries
// keep their trees; their flattened forms are recomputed in t.
func (t *Table) Merge(other *Table, into string) []error {
	entries := other.Entries()
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	for _, e := range entries {
		cp := *e
		cp.Namespace = joinNamespace(into, e.Namespace)
		if err := t.registerLocked(&cp); err != nil {
			errs = append(errs, err)
		}
	}
	if into != "" {
		t.registerLocked(&Entry{Kind: KindNamespace, Name: lastSegment(into), Namespace: parentNamespace(into)})
	}
	return errs
}

// Import registers a copy of a single entry under into, renamed to alias
// when alias is set.
func (t *Table) Import(e *Entry, into, alias string) error {
	cp := *e
	cp.Namespace = into
	if alias != "" {
		cp.Name = alias
	}
	return t.Register(&cp)
}

func joinNamespace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "." + b
}

func lastSegment(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
