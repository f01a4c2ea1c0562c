package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dhamidi/chtl/ui"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a browser playground that compiles CHTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := projectOptions(".")
			if err != nil {
				return err
			}
			server, err := ui.NewServer(opts...)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			fmt.Printf("Listening on http://%s\n", addr)
			return http.ListenAndServe(addr, server)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8080", "address to listen on")

	return cmd
}
