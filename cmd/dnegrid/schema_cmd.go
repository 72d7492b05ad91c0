// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/dnegrid/internal/schema/contract"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
)

// schemaRenderers maps --format values to contract artifacts.
var schemaRenderers = map[string]func() ([]byte, error){
	"ts": func() ([]byte, error) {
		ts, err := contract.TypeScript()
		return []byte(ts), err
	},
	"openapi-json": contract.OpenAPIJSON,
	"openapi-yaml": contract.OpenAPIYAML,
}

func newSchemaCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Emit the wire contract (TypeScript or OpenAPI)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			render, ok := schemaRenderers[format]
			if !ok {
				return usageErrorf("unsupported format %q (use ts, openapi-json or openapi-yaml)", format)
			}
			body, err := render()
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0750); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := renameio.WriteFile(out, body, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "ts", "artifact: ts, openapi-json or openapi-yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
