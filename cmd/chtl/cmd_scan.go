package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/format"
)

func newScanCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Split a CHTL file into fragments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			data, err := readSource(file)
			if err != nil {
				return err
			}

			frags, diags := scanner.Scan(data, file)
			if err := format.NewLineEncoder(os.Stdout).EncodeFragments(frags); err != nil {
				return fmt.Errorf("encode fragments: %w", err)
			}
			if err := printDiagnostics(os.Stderr, diags, file, data, !noColor); err != nil {
				return err
			}
			if diags.HasErrors() {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	return cmd
}
