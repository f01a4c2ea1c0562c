// Package ast holds the syntax tree built by the parser.
//
// Nodes live in an arena owned by a Tree and are addressed by NodeID. A node
// owns its Children exclusively; Parent is a plain index used for lookups
// such as the enclosing namespace and never for ownership. Pointers returned
// by Tree.Node are invalidated by the next call that adds nodes.
package ast

import (
	"strconv"
	"strings"

	"github.com/dhamidi/chtl/chtl/source"
)

type NodeID int32

// NoNode is the null handle.
const NoNode NodeID = -1

type NodeKind int

const (
	KindError NodeKind = iota
	KindDocument
	KindComment
	KindText
	KindElement
	KindAttribute
	KindStyleBlock
	KindScriptBlock
	KindRule
	KindProperty
	KindTemplateDecl
	KindCustomDecl
	KindInherit
	KindUsage
	KindSpecialization
	KindOriginDecl
	KindImportDecl
	KindNamespaceDecl
	KindConstraint
	KindExcept
	KindConfiguration
	KindNameBlock
	KindConfigEntry
	KindRawText
	KindEnhancedSelector
	KindExpansion
)

var nodeKindNames = map[NodeKind]string{
	KindError:            "Error",
	KindDocument:         "Document",
	KindComment:          "Comment",
	KindText:             "Text",
	KindElement:          "Element",
	KindAttribute:        "Attribute",
	KindStyleBlock:       "StyleBlock",
	KindScriptBlock:      "ScriptBlock",
	KindRule:             "Rule",
	KindProperty:         "Property",
	KindTemplateDecl:     "TemplateDecl",
	KindCustomDecl:       "CustomDecl",
	KindInherit:          "Inherit",
	KindUsage:            "Usage",
	KindSpecialization:   "Specialization",
	KindOriginDecl:       "OriginDecl",
	KindImportDecl:       "ImportDecl",
	KindNamespaceDecl:    "NamespaceDecl",
	KindConstraint:       "Constraint",
	KindExcept:           "Except",
	KindConfiguration:    "Configuration",
	KindNameBlock:        "NameBlock",
	KindConfigEntry:      "ConfigEntry",
	KindRawText:          "RawText",
	KindEnhancedSelector: "EnhancedSelector",
	KindExpansion:        "Expansion",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// DeclKind is the @Kind discriminator of declarations, usages, origins and
// imports.
type DeclKind int

const (
	DeclNone DeclKind = iota
	DeclStyle
	DeclElement
	DeclVar
	DeclHtml
	DeclJavaScript
	DeclChtl
	DeclCJmod
	DeclConfig
	DeclOther
)

var declKindNames = map[DeclKind]string{
	DeclNone:       "",
	DeclStyle:      "@Style",
	DeclElement:    "@Element",
	DeclVar:        "@Var",
	DeclHtml:       "@Html",
	DeclJavaScript: "@JavaScript",
	DeclChtl:       "@Chtl",
	DeclCJmod:      "@CJmod",
	DeclConfig:     "@Config",
	DeclOther:      "@Other",
}

func (k DeclKind) String() string {
	return declKindNames[k]
}

// LookupDeclKind maps a discriminator name without the @ to its DeclKind.
func LookupDeclKind(name string) DeclKind {
	for k, n := range declKindNames {
		if k != DeclNone && k != DeclOther && n[1:] == name {
			return k
		}
	}
	return DeclOther
}

type OpKind int

const (
	OpNone OpKind = iota
	OpDelete
	OpInsert
	OpReplace
	OpAdd
)

var opKindNames = map[OpKind]string{
	OpNone:    "",
	OpDelete:  "delete",
	OpInsert:  "insert",
	OpReplace: "replace",
	OpAdd:     "add",
}

func (k OpKind) String() string {
	return opKindNames[k]
}

type InsertPos int

const (
	PosNone InsertPos = iota
	PosBefore
	PosAfter
	PosAtTop
	PosAtBottom
)

var insertPosNames = map[InsertPos]string{
	PosNone:     "",
	PosBefore:   "before",
	PosAfter:    "after",
	PosAtTop:    "at top",
	PosAtBottom: "at bottom",
}

func (p InsertPos) String() string {
	return insertPosNames[p]
}

type SelectorKind int

const (
	SelectorNone SelectorKind = iota
	SelectorClass
	SelectorID
	SelectorTag
	SelectorContext
	SelectorOther
)

var selectorKindNames = map[SelectorKind]string{
	SelectorNone:    "",
	SelectorClass:   "class",
	SelectorID:      "id",
	SelectorTag:     "tag",
	SelectorContext: "context",
	SelectorOther:   "other",
}

func (k SelectorKind) String() string {
	return selectorKindNames[k]
}

// Selector describes the selector of a CSS rule. Value is the bare name
// (without . or #), Text the full selector as written and Resolved the text
// after & has been replaced by the host element's selector.
type Selector struct {
	Kind     SelectorKind
	Value    string
	Text     string
	Resolved string
}

// Node is a tagged variant; which fields are meaningful depends on Kind.
type Node struct {
	Kind     NodeKind
	Span     source.Span
	Parent   NodeID
	Children []NodeID

	// Name is the tag, attribute or property name, declaration name,
	// namespace name, specialization target or import alias.
	Name string
	// Value is the attribute or property value, text content, comment text,
	// raw payload or import path.
	Value string
	// Sep records the separator written between name and value (":" or
	// "="). Consumers never distinguish the two.
	Sep string

	DeclKind DeclKind
	// Custom marks usages and imports qualified with [Custom], Template
	// those qualified with [Template].
	Custom   bool
	Template bool

	Op       OpKind
	Position InsertPos
	// Index selects among same-named siblings; -1 when absent.
	Index int

	Selector Selector

	// Namespace is the qualifier of a usage (`from a.b`) or the source of an
	// import.
	Namespace string
	// Alias is the `as` name of an import.
	Alias string
	// TypeName is the raw @Kind name, kept for origin types without a
	// DeclKind of their own.
	TypeName string
	// From names the declaration a copied node was inherited from.
	From string

	Quoted      bool
	Generator   bool
	Implicit    bool
	Synthesized bool
	Placeholder bool

	Error string
}

type Tree struct {
	File  string
	Root  NodeID
	nodes []Node
	synth int
}

func NewTree(file string) *Tree {
	t := &Tree{File: file}
	t.Root = t.New(KindDocument, source.Span{Start: source.Start(file)})
	return t
}

// New allocates a detached node.
func (t *Tree) New(kind NodeKind, span source.Span) NodeID {
	t.nodes = append(t.nodes, Node{Kind: kind, Span: span, Parent: NoNode, Index: -1})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Kind(id NodeID) NodeKind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindError
}

func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// Append makes child the last child of parent.
func (t *Tree) Append(parent, child NodeID) {
	if child == NoNode {
		return
	}
	t.nodes[child].Parent = parent
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
}

// InsertAt makes child the i-th child of parent.
func (t *Tree) InsertAt(parent NodeID, i int, child NodeID) {
	p := &t.nodes[parent]
	if i < 0 {
		i = 0
	}
	if i > len(p.Children) {
		i = len(p.Children)
	}
	p.Children = append(p.Children, NoNode)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = child
	t.nodes[child].Parent = parent
}

// RemoveAt detaches the i-th child of parent and returns it.
func (t *Tree) RemoveAt(parent NodeID, i int) NodeID {
	p := &t.nodes[parent]
	if i < 0 || i >= len(p.Children) {
		return NoNode
	}
	child := p.Children[i]
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	t.nodes[child].Parent = NoNode
	return child
}

// IndexOf returns the position of child among the children of parent.
func (t *Tree) IndexOf(parent, child NodeID) int {
	for i, c := range t.Children(parent) {
		if c == child {
			return i
		}
	}
	return -1
}

// Copy deep-copies the subtree rooted at id in src into t and returns the
// detached copy.
func (t *Tree) Copy(src *Tree, id NodeID) NodeID {
	n := *src.Node(id)
	children := n.Children
	n.Children = nil
	n.Parent = NoNode
	t.nodes = append(t.nodes, n)
	cp := NodeID(len(t.nodes) - 1)
	for _, c := range children {
		t.Append(cp, t.Copy(src, c))
	}
	return cp
}

// CopyShallow copies the node id of src into t without its children.
func (t *Tree) CopyShallow(src *Tree, id NodeID) NodeID {
	n := *src.Node(id)
	n.Children = nil
	n.Parent = NoNode
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) FirstChildOfKind(id NodeID, kind NodeKind) NodeID {
	for _, c := range t.Children(id) {
		if t.nodes[c].Kind == kind {
			return c
		}
	}
	return NoNode
}

func (t *Tree) ChildrenOfKind(id NodeID, kind NodeKind) []NodeID {
	var result []NodeID
	for _, c := range t.Children(id) {
		if t.nodes[c].Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// Walk visits id and its descendants depth-first. Returning false from fn
// skips the children of the visited node. Children appended while walking a
// node are visited.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for i := 0; i < len(t.nodes[id].Children); i++ {
		t.Walk(t.nodes[id].Children[i], fn)
	}
}

// Ancestor returns the nearest proper ancestor of id with the given kind.
func (t *Tree) Ancestor(id NodeID, kind NodeKind) NodeID {
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		if t.nodes[p].Kind == kind {
			return p
		}
	}
	return NoNode
}

// NamespaceOf returns the dotted path of the namespaces enclosing id.
func (t *Tree) NamespaceOf(id NodeID) string {
	var parts []string
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		if t.nodes[p].Kind == KindNamespaceDecl {
			parts = append([]string{t.nodes[p].Name}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

// Property returns the value of the property or attribute child named name.
func (t *Tree) Property(id NodeID, name string) (string, bool) {
	for _, c := range t.Children(id) {
		n := &t.nodes[c]
		if (n.Kind == KindProperty || n.Kind == KindAttribute) && n.Name == name {
			return n.Value, true
		}
	}
	return "", false
}

func (t *Tree) String() string {
	return t.Dump(t.Root, false)
}

// Dump renders the subtree at id one node per line.
func (t *Tree) Dump(id NodeID, showPositions bool) string {
	var b strings.Builder
	t.dump(&b, id, 0, showPositions)
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, id NodeID, indent int, showPositions bool) {
	n := t.Node(id)
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(n.Kind.String())
	if showPositions {
		b.WriteString(" [" + n.Span.String() + "]")
	}
	if label := n.Label(); label != "" {
		b.WriteString(" " + label)
	}
	if n.Error != "" {
		b.WriteString(" ERROR: " + n.Error)
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		t.dump(b, c, indent+1, showPositions)
	}
}

// Label is the one-line summary used by Dump.
func (n *Node) Label() string {
	var parts []string
	if n.Op != OpNone {
		parts = append(parts, n.Op.String())
	}
	if n.Position != PosNone {
		parts = append(parts, n.Position.String())
	}
	if n.DeclKind != DeclNone {
		parts = append(parts, n.DeclKind.String())
	}
	if n.Selector.Kind != SelectorNone {
		text := n.Selector.Text
		if n.Selector.Resolved != "" && n.Selector.Resolved != text {
			text += " => " + n.Selector.Resolved
		}
		parts = append(parts, text)
	}
	if n.Name != "" {
		name := n.Name
		if n.Index >= 0 {
			name += "[" + strconv.Itoa(n.Index) + "]"
		}
		parts = append(parts, name)
	}
	if n.Namespace != "" {
		parts = append(parts, "from "+n.Namespace)
	}
	if n.Alias != "" {
		parts = append(parts, "as "+n.Alias)
	}
	if n.Value != "" || n.Sep != "" {
		v := n.Value
		if n.Sep != "" {
			v = n.Sep + " " + strconv.Quote(v)
		} else {
			v = strconv.Quote(v)
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}
