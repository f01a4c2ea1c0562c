package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/format"
	"github.com/dhamidi/chtl/project"
)

var errFailed = errors.New("compilation failed")

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chtl file: %w", err)
	}
	return data, nil
}

// projectOptions returns the compiler options of the project containing dir.
func projectOptions(dir string) ([]compiler.Option, error) {
	p, err := project.LoadFrom(dir)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return p.CompilerOptions(), nil
}

// compileFile compiles path with the options of its project followed by
// extra.
func compileFile(path string, extra ...compiler.Option) (*compiler.Result, []byte, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, nil, err
	}
	opts, err := projectOptions(filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, extra...)
	return compiler.New(opts...).Compile(data, path), data, nil
}

func printDiagnostics(w io.Writer, list *diag.List, file string, src []byte, color bool) error {
	p := format.NewDiagnosticPrinter(w, color)
	p.AddSource(file, src)
	return p.Print(list)
}
