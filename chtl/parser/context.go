package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

type FrameKind int

const (
	FrameElement FrameKind = iota
	FrameAttribute
	FrameStyleBlock
	FrameScriptBlock
	FrameTemplateBody
	FrameCustomBody
	FrameNamespaceBody
	FrameOriginBody
	FrameConfiguration
)

var frameKindNames = map[FrameKind]string{
	FrameElement:       "element",
	FrameAttribute:     "attribute",
	FrameStyleBlock:    "style block",
	FrameScriptBlock:   "script block",
	FrameTemplateBody:  "template body",
	FrameCustomBody:    "custom body",
	FrameNamespaceBody: "namespace",
	FrameOriginBody:    "origin block",
	FrameConfiguration: "configuration",
}

func (k FrameKind) String() string {
	if name, ok := frameKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Frame is one open syntactic region.
type Frame struct {
	Kind     FrameKind
	Name     string
	Start    source.Position
	End      source.Position
	Complete bool
	// Node is the AST node the region belongs to.
	Node ast.NodeID
	// Meta carries per-frame facts, such as the declaration kind of a
	// template body.
	Meta map[string]string
}

var ErrMaxDepth = errors.New("maximum nesting depth exceeded")

// DefaultMaxDepth bounds nesting when no limit is configured.
const DefaultMaxDepth = 256

// ContextStack records the regions the parser is inside of. It is owned by
// one parser.
type ContextStack struct {
	frames   []*Frame
	maxDepth int
	diags    *diag.List
}

func NewContextStack(maxDepth int, diags *diag.List) *ContextStack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if diags == nil {
		diags = diag.NewList(0)
	}
	return &ContextStack{maxDepth: maxDepth, diags: diags}
}

// Push opens a frame. It fails once the stack is as deep as the configured
// limit; the caller decides how to skip the region.
func (s *ContextStack) Push(kind FrameKind, name string, start source.Position, node ast.NodeID) (*Frame, error) {
	if len(s.frames) >= s.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrMaxDepth, s.maxDepth)
	}
	f := &Frame{Kind: kind, Name: name, Start: start, Node: node}
	s.frames = append(s.frames, f)
	return f, nil
}

// Pop closes the innermost frame.
func (s *ContextStack) Pop() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// PopExpect closes the innermost frame of the given kind. Frames above it
// are closed as well and each is reported as unclosed. When no such frame
// is open the stack is left alone and nil is returned.
func (s *ContextStack) PopExpect(kind FrameKind, end source.Position) *Frame {
	i := len(s.frames) - 1
	for i >= 0 && s.frames[i].Kind != kind {
		i--
	}
	if i < 0 {
		s.diags.Errorf(diag.Context, end, "unexpected end of %s: none is open", kind)
		return nil
	}
	for j := len(s.frames) - 1; j > i; j-- {
		f := s.frames[j]
		f.End = end
		s.diags.Add(diag.Diagnostic{
			Kind:        diag.Context,
			Severity:    diag.SeverityError,
			Message:     fmt.Sprintf("%s %s closed by end of %s", f.Kind, quoteName(f.Name), kind),
			Pos:         f.Start,
			Recoverable: true,
		})
	}
	f := s.frames[i]
	f.End = end
	f.Complete = true
	s.frames = s.frames[:i]
	return f
}

func quoteName(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return fmt.Sprintf("%q", name)
}

func (s *ContextStack) Current() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// CurrentIs reports whether the innermost frame has the given kind.
func (s *ContextStack) CurrentIs(kind FrameKind) bool {
	f := s.Current()
	return f != nil && f.Kind == kind
}

// IsInContext reports whether any open frame has the given kind.
func (s *ContextStack) IsInContext(kind FrameKind) bool {
	return s.Nearest(kind) != nil
}

func (s *ContextStack) Nearest(kind FrameKind) *Frame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == kind {
			return s.frames[i]
		}
	}
	return nil
}

// NamespacePath returns the dotted names of the open namespaces.
func (s *ContextStack) NamespacePath() string {
	var parts []string
	for _, f := range s.frames {
		if f.Kind == FrameNamespaceBody {
			parts = append(parts, f.Name)
		}
	}
	return strings.Join(parts, ".")
}

// PathOf qualifies name with the open namespaces.
func (s *ContextStack) PathOf(name string) string {
	if ns := s.NamespacePath(); ns != "" {
		return ns + "." + name
	}
	return name
}

// ElementPath returns the open element names joined by " > ".
func (s *ContextStack) ElementPath() string {
	var parts []string
	for _, f := range s.frames {
		if f.Kind == FrameElement {
			parts = append(parts, f.Name)
		}
	}
	return strings.Join(parts, " > ")
}

func (s *ContextStack) Depth() int {
	return len(s.frames)
}

// Unclosed returns the open frames, outermost first.
func (s *ContextStack) Unclosed() []*Frame {
	return append([]*Frame(nil), s.frames...)
}
