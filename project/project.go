// Package project finds a CHTL project on disk and reads its configuration
// from chtl.toml or chtl.yaml.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/chtl/parser"
)

// ConfigFiles are the names looked for, in order.
var ConfigFiles = []string{"chtl.toml", "chtl.yaml", "chtl.yml"}

type Config struct {
	Src               string `toml:"src" yaml:"src"`
	Out               string `toml:"out" yaml:"out"`
	MaxErrors         int    `toml:"max_errors" yaml:"max_errors"`
	MaxDepth          int    `toml:"max_depth" yaml:"max_depth"`
	IndexInitialCount int    `toml:"index_initial_count" yaml:"index_initial_count"`
	ValidateForeign   bool   `toml:"validate_foreign" yaml:"validate_foreign"`
	ParallelLex       bool   `toml:"parallel_lex" yaml:"parallel_lex"`
}

func DefaultConfig() Config {
	return Config{
		Src:       "src",
		Out:       "out",
		MaxErrors: diag.DefaultMaxErrors,
		MaxDepth:  parser.DefaultMaxDepth,
	}
}

// Project is a directory of CHTL sources.
type Project struct {
	RootDir string
	// ConfigFile is empty when the project uses the defaults.
	ConfigFile string
	SrcDir     string
	OutDir     string
	Config     Config
}

// Load finds the project containing the current directory.
func Load() (*Project, error) {
	return LoadFrom(".")
}

// LoadFrom walks up from dir to the nearest directory holding a
// configuration file. Without one, dir is a project with the defaults.
func LoadFrom(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	root, file := abs, ""
	if found, ok := Find(abs); ok {
		root, file = filepath.Dir(found), found
	}

	cfg := DefaultConfig()
	if file != "" {
		if cfg, err = ReadConfig(file); err != nil {
			return nil, err
		}
	}

	return &Project{
		RootDir:    root,
		ConfigFile: file,
		SrcDir:     filepath.Join(root, cfg.Src),
		OutDir:     filepath.Join(root, cfg.Out),
		Config:     cfg,
	}, nil
}

// Find returns the configuration file in dir or its nearest ancestor.
func Find(dir string) (string, bool) {
	for d := dir; ; d = filepath.Dir(d) {
		for _, name := range ConfigFiles {
			path := filepath.Join(d, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
		if filepath.Dir(d) == d {
			return "", false
		}
	}
}

// ReadConfig reads a configuration file, choosing the format by extension.
// Keys missing from the file keep their defaults; unknown keys are errors.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("parse %s: unknown key %s", path, undecoded[0])
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Src == "":
		return errors.New("src must not be empty")
	case c.MaxErrors < 1:
		return fmt.Errorf("max_errors must be positive, got %d", c.MaxErrors)
	case c.MaxDepth < 1:
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	case c.IndexInitialCount < 0:
		return fmt.Errorf("index_initial_count must not be negative, got %d", c.IndexInitialCount)
	}
	return nil
}

// Files returns every .chtl file below SrcDir in lexical order.
func (p *Project) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.SrcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".chtl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan chtl files in %s: %w", p.SrcDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// CompilerOptions turns the configuration into compiler options.
func (p *Project) CompilerOptions() []compiler.Option {
	c := p.Config
	shared := []compiler.Option{
		compiler.WithMaxErrors(c.MaxErrors),
		compiler.WithMaxDepth(c.MaxDepth),
		compiler.WithIndexBase(c.IndexInitialCount),
		compiler.WithForeignValidation(c.ValidateForeign),
		compiler.WithParallelLex(c.ParallelLex),
	}
	return append(shared, compiler.WithLoader(compiler.NewFileLoader(shared...)))
}

// Init writes a chtl.toml holding the default configuration to dir and
// creates the source directory.
func Init(dir string) (*Project, error) {
	path := filepath.Join(dir, ConfigFiles[0])
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	p, err := LoadFrom(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.SrcDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", p.SrcDir, err)
	}
	return p, nil
}

// EnsureOutDir creates the output directory if it doesn't exist.
func (p *Project) EnsureOutDir() error {
	if err := os.MkdirAll(p.OutDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", p.OutDir, err)
	}
	return nil
}
