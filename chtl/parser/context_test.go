package parser

import (
	"errors"
	"testing"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/source"
)

func at(line int) source.Position {
	return source.Position{File: "a.chtl", Line: line, Column: 1}
}

func TestContextStackPushPop(t *testing.T) {
	s := NewContextStack(0, nil)
	s.Push(FrameNamespaceBody, "space", at(1), ast.NoNode)
	s.Push(FrameNamespaceBody, "room", at(2), ast.NoNode)
	s.Push(FrameElement, "div", at(3), ast.NoNode)

	if got := s.NamespacePath(); got != "space.room" {
		t.Errorf("got %q, want %q", got, "space.room")
	}
	if got := s.PathOf("Box"); got != "space.room.Box" {
		t.Errorf("got %q, want %q", got, "space.room.Box")
	}
	if !s.CurrentIs(FrameElement) || !s.IsInContext(FrameNamespaceBody) {
		t.Error("unexpected context")
	}
	if s.IsInContext(FrameStyleBlock) {
		t.Error("not inside a style block")
	}

	f := s.PopExpect(FrameElement, at(4))
	if f == nil || !f.Complete || f.End != at(4) {
		t.Errorf("got %+v", f)
	}
	if got := s.Depth(); got != 2 {
		t.Errorf("got depth %d, want 2", got)
	}
}

func TestContextStackMaxDepth(t *testing.T) {
	s := NewContextStack(2, nil)
	if _, err := s.Push(FrameElement, "a", at(1), ast.NoNode); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Push(FrameElement, "b", at(1), ast.NoNode); err != nil {
		t.Fatal(err)
	}
	_, err := s.Push(FrameElement, "c", at(1), ast.NoNode)
	if !errors.Is(err, ErrMaxDepth) {
		t.Errorf("got %v, want %v", err, ErrMaxDepth)
	}
	if got := s.Depth(); got != 2 {
		t.Errorf("got depth %d, want 2", got)
	}
}

func TestContextStackForcePop(t *testing.T) {
	diags := diag.NewList(0)
	s := NewContextStack(0, diags)
	s.Push(FrameElement, "div", at(1), ast.NoNode)
	s.Push(FrameStyleBlock, "", at(2), ast.NoNode)
	s.Push(FrameElement, "span", at(3), ast.NoNode)

	f := s.PopExpect(FrameStyleBlock, at(5))
	if f == nil || f.Kind != FrameStyleBlock {
		t.Fatalf("got %+v", f)
	}
	if got := s.Depth(); got != 1 {
		t.Errorf("got depth %d, want 1", got)
	}
	if got := diags.Count(diag.Context); got != 1 {
		t.Errorf("got %d context errors, want 1", got)
	}
	if got := diags.Errors()[0].Pos; got != at(3) {
		t.Errorf("reported at %v, want %v", got, at(3))
	}
}

func TestContextStackPopExpectMissing(t *testing.T) {
	diags := diag.NewList(0)
	s := NewContextStack(0, diags)
	s.Push(FrameElement, "div", at(1), ast.NoNode)

	if f := s.PopExpect(FrameOriginBody, at(2)); f != nil {
		t.Errorf("got %+v, want nil", f)
	}
	if got := s.Depth(); got != 1 {
		t.Errorf("got depth %d, want 1", got)
	}
	if !diags.HasErrors() {
		t.Error("expected a context error")
	}
}

func TestContextStackUnclosed(t *testing.T) {
	s := NewContextStack(0, nil)
	s.Push(FrameElement, "html", at(1), ast.NoNode)
	s.Push(FrameElement, "body", at(2), ast.NoNode)

	frames := s.Unclosed()
	if len(frames) != 2 || frames[0].Name != "html" || frames[1].Name != "body" {
		t.Errorf("got %+v", frames)
	}
	if got := s.ElementPath(); got != "html > body" {
		t.Errorf("got %q", got)
	}
	s.Pop()
	s.Pop()
	if s.Pop() != nil || s.Current() != nil {
		t.Error("empty stack returned a frame")
	}
}
