// Package clirun supplies the exit-code convention spec.md §6 fixes for
// every CLI collaborator: "Exit codes: 0 success, 1 usage, 2 runtime."
package clirun

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RuntimeError marks an error returned from a command's RunE as a runtime
// failure (exit 2) rather than a usage failure (exit 1, cobra's own
// default for flag/argument errors).
type RuntimeError struct{ Err error }

func (e RuntimeError) Error() string { return e.Err.Error() }
func (e RuntimeError) Unwrap() error { return e.Err }

// Runtime wraps err as a RuntimeError, or returns nil unchanged.
func Runtime(err error) error {
	if err == nil {
		return nil
	}
	return RuntimeError{Err: err}
}

// Execute runs cmd and calls os.Exit with 0, 1 or 2 per spec.md §6.
func Execute(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if _, ok := err.(RuntimeError); ok {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
