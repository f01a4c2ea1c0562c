package ast

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// HostSelector returns the selector that & stands for inside the style block
// of elem: its first class, else its id. When the element has neither, a
// class is synthesized and added to it.
func (t *Tree) HostSelector(elem NodeID) string {
	if class, ok := t.Property(elem, "class"); ok {
		if fields := strings.Fields(class); len(fields) > 0 {
			return "." + fields[0]
		}
	}
	if id, ok := t.Property(elem, "id"); ok && strings.TrimSpace(id) != "" {
		return "#" + strings.TrimSpace(id)
	}

	t.synth++
	name := fmt.Sprintf("chtl-%s-%d", strcase.ToKebab(t.Node(elem).Name), t.synth)
	span := t.Node(elem).Span
	attr := t.New(KindAttribute, span)
	a := t.Node(attr)
	a.Name = "class"
	a.Value = name
	a.Sep = ":"
	a.Synthesized = true
	t.InsertAt(elem, 0, attr)
	return "." + name
}

// AddSelectorAttribute gives elem the class or id named by a rule selector of
// its local style block, unless the element already carries that attribute.
func (t *Tree) AddSelectorAttribute(elem NodeID, kind SelectorKind, value string) {
	var attrName string
	switch kind {
	case SelectorClass:
		attrName = "class"
	case SelectorID:
		attrName = "id"
	default:
		return
	}
	if _, ok := t.Property(elem, attrName); ok {
		return
	}
	attr := t.New(KindAttribute, t.Node(elem).Span)
	a := t.Node(attr)
	a.Name = attrName
	a.Value = value
	a.Sep = ":"
	a.Implicit = true
	t.InsertAt(elem, 0, attr)
}
