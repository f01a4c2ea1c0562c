package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/format"
)

func newSymbolsCmd() *cobra.Command {
	var outputFormat string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "List the declarations visible in a CHTL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, src, err := compileFile(args[0])
			if err != nil {
				return err
			}

			entries := res.Symbols.Entries()
			switch outputFormat {
			case "text":
				err = format.NewLineEncoder(os.Stdout).EncodeSymbols(entries)
			case "json":
				err = format.NewJSONEncoder(os.Stdout).EncodeSymbols(entries)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			if err != nil {
				return fmt.Errorf("encode symbols: %w", err)
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

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	return cmd
}
