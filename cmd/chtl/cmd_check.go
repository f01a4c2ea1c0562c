package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/chtl/codebase"
	"github.com/dhamidi/chtl/chtl/compiler"
	"github.com/dhamidi/chtl/chtl/diag"
	"github.com/dhamidi/chtl/format"
	"github.com/dhamidi/chtl/project"
)

func newCheckCmd() *cobra.Command {
	var outputFormat string
	var watch bool
	var validateForeign bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report diagnostics for CHTL files or the current project",
		Long: `Report diagnostics for CHTL files.

Without arguments every .chtl file below the project's source directory is
checked. The project is found by looking for chtl.toml, chtl.yaml or
chtl.yml in the current directory and its parents.

With --watch the source directory is polled and files are checked again
whenever they change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "text" && outputFormat != "json" {
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			p, err := project.Load()
			if err != nil {
				return fmt.Errorf("load project: %w", err)
			}
			opts := p.CompilerOptions()
			if validateForeign {
				opts = append(opts, compiler.WithForeignValidation(true))
			}

			if watch {
				dir := p.SrcDir
				if len(args) == 1 {
					dir = args[0]
				}
				return watchDir(dir, opts, os.Stdout, !noColor)
			}

			files := args
			if len(files) == 0 {
				if files, err = p.Files(); err != nil {
					return err
				}
			}
			return checkFiles(files, opts, outputFormat, os.Stdout, !noColor)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "check again whenever a file changes")
	cmd.Flags().BoolVar(&validateForeign, "validate-foreign", false, "also check embedded HTML, CSS and JavaScript")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	return cmd
}

func checkFiles(files []string, opts []compiler.Option, outputFormat string, w io.Writer, color bool) error {
	c := compiler.New(opts...)
	var all []diag.Diagnostic
	failed := false

	for _, file := range files {
		data, err := readSource(file)
		if err != nil {
			return err
		}
		res := c.Compile(data, file)
		if !res.OK() {
			failed = true
		}

		if outputFormat == "json" {
			all = append(all, res.Diagnostics.All()...)
			continue
		}
		if err := printDiagnostics(w, res.Diagnostics, file, data, color); err != nil {
			return err
		}
	}

	if outputFormat == "json" {
		if err := format.NewJSONEncoder(w).EncodeDiagnostics(all); err != nil {
			return fmt.Errorf("encode diagnostics: %w", err)
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func watchDir(dir string, opts []compiler.Option, w io.Writer, color bool) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(w, "watching %s\n", dir)
	codebase.New(dir, opts...).Watch(ctx, time.Second, func(ch codebase.Change) {
		switch f := ch.File; {
		case f == nil:
			fmt.Fprintf(w, "%s: removed\n", ch.Path)
		case f.Result.OK() && len(f.Result.Diagnostics.Warnings()) == 0:
			fmt.Fprintf(w, "%s: ok\n", ch.Path)
		default:
			printDiagnostics(w, f.Result.Diagnostics, ch.Path, f.Content, color)
		}
	})
	return nil
}
