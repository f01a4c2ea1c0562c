package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

func main() {
	var verbose int

	rootCmd := &cobra.Command{
		Use:          "chtl",
		Short:        "Scan, parse and check CHTL documents",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbose, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newLexCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newSymbolsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newFactsCmd())
	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
