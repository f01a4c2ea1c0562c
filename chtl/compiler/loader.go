package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/chtl/chtl/ast"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/symbols"
)

var (
	ErrUnsupported = errors.New("not supported")
	ErrImportCycle = errors.New("import cycle")
)

// Request asks a loader for the target of one [Import].
type Request struct {
	Kind ast.DeclKind
	Path string
	// From is the file containing the import; relative paths are resolved
	// against its directory.
	From string
	// Raw is set when the file is wanted verbatim rather than compiled.
	Raw bool
	// Chain lists the files whose imports led here, outermost first.
	Chain []string
}

// Module is a loaded import. Table is set for compiled CHTL files, Payload
// for raw files.
type Module struct {
	File        string
	Table       *symbols.Table
	Diagnostics *diag.List
	Payload     string
}

type Loader interface {
	Load(req Request) (*Module, error)
}

// FileLoader reads imports from the file system and compiles CHTL files in a
// child session.
type FileLoader struct {
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	// Options are passed to the child sessions.
	Options []Option
}

func NewFileLoader(opts ...Option) *FileLoader {
	return &FileLoader{ReadFile: os.ReadFile, Options: opts}
}

func (l *FileLoader) Load(req Request) (*Module, error) {
	if req.Kind == ast.DeclCJmod {
		return nil, fmt.Errorf("@CJmod modules are %w", ErrUnsupported)
	}
	name := l.resolve(req)
	read := l.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	if req.Raw {
		data, err := read(name)
		if err != nil {
			return nil, err
		}
		return &Module{File: name, Payload: string(data)}, nil
	}

	for i, f := range req.Chain {
		if f == name {
			cycle := append(append([]string(nil), req.Chain[i:]...), name)
			return nil, fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(cycle, " -> "))
		}
	}
	data, err := read(name)
	if err != nil {
		return nil, err
	}
	opts := append(append([]Option(nil), l.Options...), WithLoader(l), withChain(req.Chain))
	res := New(opts...).Compile(data, name)
	return &Module{File: name, Table: res.Symbols, Diagnostics: res.Diagnostics}, nil
}

// resolve turns the import path into a file name. CHTL imports without an
// extension get .chtl.
func (l *FileLoader) resolve(req Request) string {
	name := filepath.FromSlash(req.Path)
	if !req.Raw && filepath.Ext(name) == "" {
		name += ".chtl"
	}
	if !filepath.IsAbs(name) && req.From != "" {
		name = filepath.Join(filepath.Dir(req.From), name)
	}
	return filepath.Clean(name)
}

// stem returns the file name without directory and extension.
func stem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
