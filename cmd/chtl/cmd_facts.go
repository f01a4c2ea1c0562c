package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/format"
)

func newFactsCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "facts <file>",
		Short: "Validate embedded HTML, CSS and JavaScript and print what they declare",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, err := compileFile(args[0], compiler.WithForeignValidation(true))
			if err != nil {
				return err
			}
			if err := format.NewJSONEncoder(os.Stdout).EncodeFacts(res.Foreign); err != nil {
				return fmt.Errorf("encode facts: %w", err)
			}
			return printDiagnostics(os.Stderr, res.Diagnostics, res.File, src, !noColor)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	return cmd
}
