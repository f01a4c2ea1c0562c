package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/project"
)

//go:embed init/index.chtl
var indexTemplate string

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a CHTL project",
		Long: `Create a CHTL project.

Writes chtl.toml with the default settings and a starter src/index.chtl.
If a directory is provided it is created; otherwise the current directory
is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			p, err := project.Init(dir)
			if err != nil {
				return err
			}
			index := filepath.Join(p.SrcDir, "index.chtl")
			if _, err := os.Stat(index); err == nil {
				return nil
			}
			if err := os.WriteFile(index, []byte(indexTemplate), 0644); err != nil {
				return fmt.Errorf("write %s: %w", index, err)
			}
			fmt.Printf("Created %s\n", p.ConfigFile)
			fmt.Printf("Created %s\n", index)
			return nil
		},
	}
}
