// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// dnegrid serves the DNE grid view configuration to the web client.
//
// Usage:
//
//	dnegrid serve --config config.yaml
//	dnegrid validate -f config.yaml
//	dnegrid dump -f config.yaml --format=json
//	dnegrid schema --format=ts --out dne.ts
//	dnegrid version
//
// Exit codes:
//   - 0: success
//   - 1: configuration is invalid or the command failed
//   - 2: usage error
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/version"
	"github.com/spf13/cobra"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func invalid(err error) error {
	return &exitError{code: exitInvalid, err: err}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and maps the outcome to an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Only cobra's own command lookup fails without an exitError: flag and
	// argument errors are tagged as usage, RunE errors as failures.
	return exitUsage
}

// classify tags the errors of cmd and its children with exit codes.
func classify(cmd *cobra.Command) {
	if args := cmd.Args; args != nil {
		cmd.Args = func(c *cobra.Command, a []string) error {
			if err := args(c, a); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			return nil
		}
	}
	if runE := cmd.RunE; runE != nil {
		cmd.RunE = func(c *cobra.Command, a []string) error {
			err := runE(c, a)
			var ee *exitError
			if err == nil || errors.As(err, &ee) {
				return err
			}
			return invalid(err)
		}
	}
	for _, child := range cmd.Commands() {
		classify(child)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dnegrid",
		Short:         "Serve the DNE grid view configuration",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newDumpCmd(),
		newSchemaCmd(),
		newVersionCmd(),
	)
	classify(root)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

// defaultConfigPath is $DNEGRID_CONFIG, or empty for env-only configuration.
func defaultConfigPath() string {
	return os.Getenv(config.EnvConfigPath)
}

// requireFile resolves the -f flag for commands that need a file.
func requireFile(file string) (string, error) {
	if file == "" {
		file = defaultConfigPath()
	}
	if file == "" {
		return "", usageErrorf("--file is required (or set %s)", config.EnvConfigPath)
	}
	return file, nil
}
