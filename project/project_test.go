package project

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/chtl/chtl/compiler"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"chtl.toml", "src = \"pages\"\nmax_errors = 5\nindex_initial_count = 1\nvalidate_foreign = true\n"},
		{"chtl.yaml", "src: pages\nmax_errors: 5\nindex_initial_count: 1\nvalidate_foreign: true\n"},
		{"chtl.yml", "src: pages\nmax_errors: 5\nindex_initial_count: 1\nvalidate_foreign: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, tt.file), tt.content)
			nested := filepath.Join(root, "pages", "blog")
			if err := os.MkdirAll(nested, 0755); err != nil {
				t.Fatal(err)
			}

			p, err := LoadFrom(nested)
			if err != nil {
				t.Fatal(err)
			}
			if p.RootDir != root {
				t.Errorf("got root %q, want %q", p.RootDir, root)
			}
			if want := filepath.Join(root, tt.file); p.ConfigFile != want {
				t.Errorf("got config %q, want %q", p.ConfigFile, want)
			}
			want := Config{
				Src:               "pages",
				Out:               "out",
				MaxErrors:         5,
				MaxDepth:          256,
				IndexInitialCount: 1,
				ValidateForeign:   true,
			}
			if !reflect.DeepEqual(p.Config, want) {
				t.Errorf("got %+v, want %+v", p.Config, want)
			}
			if want := filepath.Join(root, "pages"); p.SrcDir != want {
				t.Errorf("got src %q, want %q", p.SrcDir, want)
			}
		})
	}
}

func TestLoadFromDefaults(t *testing.T) {
	root := t.TempDir()
	p, err := LoadFrom(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.ConfigFile != "" {
		// A config file in an ancestor of the temp dir would be picked up.
		t.Skipf("found %s above the temp dir", p.ConfigFile)
	}
	if p.RootDir != root {
		t.Errorf("got %q, want %q", p.RootDir, root)
	}
	if !reflect.DeepEqual(p.Config, DefaultConfig()) {
		t.Errorf("got %+v, want %+v", p.Config, DefaultConfig())
	}
}

func TestReadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown toml key", "chtl.toml", "source = \"x\"\n", "unknown key source"},
		{"unknown yaml key", "chtl.yaml", "source: x\n", "field source not found"},
		{"bad toml", "chtl.toml", "src = \n", "parse"},
		{"negative index", "chtl.toml", "index_initial_count = -1\n", "index_initial_count must not be negative"},
		{"zero errors", "chtl.yaml", "max_errors: 0\n", "max_errors must be positive"},
		{"empty src", "chtl.toml", "src = \"\"\n", "src must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			_, err := ReadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestReadConfigEmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chtl.yaml")
	writeFile(t, path, "")
	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("got %+v, want %+v", cfg, DefaultConfig())
	}
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "chtl.toml"), "")
	writeFile(t, filepath.Join(root, "src", "b.chtl"), "div { }")
	writeFile(t, filepath.Join(root, "src", "a", "c.chtl"), "div { }")
	writeFile(t, filepath.Join(root, "src", "style.css"), "a { }")

	p, err := LoadFrom(root)
	if err != nil {
		t.Fatal(err)
	}
	files, err := p.Files()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "src", "a", "c.chtl"),
		filepath.Join(root, "src", "b.chtl"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestFilesMissingSrc(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "chtl.toml"), "src = \"nope\"\n")
	p, err := LoadFrom(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Files(); err == nil {
		t.Error("want error for missing src directory")
	}
}

func TestEnsureOutDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "chtl.toml"), "out = \"build/site\"\n")
	p, err := LoadFrom(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.EnsureOutDir(); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filepath.Join(root, "build", "site")); err != nil || !info.IsDir() {
		t.Errorf("got %v, want directory", err)
	}
}

func TestCompilerOptions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "chtl.toml"), "index_initial_count = 1\n")
	writeFile(t, filepath.Join(root, "src", "lib.chtl"), "[Template] @Style Red { color: red; }")
	main := filepath.Join(root, "src", "main.chtl")
	writeFile(t, main, "[Import] @Chtl from \"lib\";\ndiv { style { @Style Red from lib; } }")

	p, err := LoadFrom(root)
	if err != nil {
		t.Fatal(err)
	}
	res, err := compiler.New(p.CompilerOptions()...).CompileFile(main)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatal(res.Diagnostics.Errors())
	}
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	p, err := Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.ConfigFile != filepath.Join(dir, "chtl.toml") {
		t.Errorf("got %q", p.ConfigFile)
	}
	if !reflect.DeepEqual(p.Config, DefaultConfig()) {
		t.Errorf("got %+v, want %+v", p.Config, DefaultConfig())
	}
	if info, err := os.Stat(p.SrcDir); err != nil || !info.IsDir() {
		t.Errorf("got %v, want source directory", err)
	}

	if _, err := Init(dir); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("got %v, want already exists", err)
	}
}
