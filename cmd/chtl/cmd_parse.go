package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/format"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var includeComments bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a CHTL file and dump its syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, ok := format.ForName(outputFormat, os.Stdout)
			if !ok {
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			var extra []compiler.Option
			if includeComments {
				extra = append(extra, compiler.WithComments())
			}
			res, src, err := compileFile(args[0], extra...)
			if err != nil {
				return err
			}

			if err := enc.Encode(res.Tree); err != nil {
				return fmt.Errorf("encode %s: %w", outputFormat, err)
			}
			if err := printDiagnostics(os.Stderr, res.Diagnostics, res.File, src, !noColor); err != nil {
				return err
			}
			if !res.OK() {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (json, yaml, tree, tree-pos)")
	cmd.Flags().BoolVar(&includeComments, "comments", false, "keep -- comments in the tree")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	return cmd
}
