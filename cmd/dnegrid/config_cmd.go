// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/version"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file and report every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := requireFile(file)
			if err != nil {
				return err
			}

			if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
				var verr *config.ValidationError
				if errors.As(err, &verr) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Configuration error in %s:\n", path)
					for _, issue := range verr.Issues {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", issue.Field, issue.Message)
					}
				}
				return invalid(fmt.Errorf("%s is invalid: %w", path, err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to YAML configuration file")
	return cmd
}

func newDumpCmd() *cobra.Command {
	var file, format, out string
	var raw bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration (defaults + file + env)",
		Long: `Print the effective configuration (defaults + file + env).

--raw prints the file as declared, without defaults or environment overrides.
--out writes the effective configuration as YAML to a file, atomically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := requireFile(file)
			if err != nil {
				return err
			}
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "yaml", "yml", "json":
			default:
				return usageErrorf("unsupported format %q (use yaml or json)", format)
			}
			if out != "" && (raw || format == "json") {
				return usageErrorf("--out writes the effective configuration as YAML; drop --raw and --format json")
			}

			var doc config.FileConfig
			if raw {
				fc, err := config.LoadFileConfig(path)
				if err != nil {
					return invalid(fmt.Errorf("configuration error in %s: %w", path, err))
				}
				doc = *fc
			} else {
				cfg, err := config.NewLoader(path, version.Version).Load()
				if err != nil {
					return invalid(fmt.Errorf("configuration error in %s: %w", path, err))
				}
				if out != "" {
					if err := config.NewManager(out).Save(cfg); err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
					return nil
				}
				doc = config.ToFileConfig(cfg)
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}
			data, err := config.EncodeYAML(doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to YAML configuration file")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the effective configuration to this YAML file")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the file as declared, without defaults or env")
	return cmd
}
