package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/chtl/parser"
	"github.com/dhamidi/chtl/chtl/scanner"
	"github.com/dhamidi/chtl/format"
)

func newLexCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "lex <file>",
		Short: "Print the tokens of a CHTL file, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			data, err := readSource(file)
			if err != nil {
				return err
			}

			frags, diags := scanner.Scan(data, file)
			var tokens []parser.Token
			for _, f := range frags {
				tokens = append(tokens, parser.Tokenize(f, diags)...)
			}
			if err := format.NewLineEncoder(os.Stdout).EncodeTokens(tokens); err != nil {
				return fmt.Errorf("encode tokens: %w", err)
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
