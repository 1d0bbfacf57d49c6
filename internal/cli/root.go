// Package cli implements kietool, the operator command line of the redirect service.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jboss-openshift/openshift-kieserver/internal/version"
)

// usageError marks bad arguments, reported with exit code 1 like any other failure
// but printed together with the command usage.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// NewRootCommand builds the kietool command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "kietool",
		Short:         "Operator tooling for the KIE deployment redirect service",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSumCommand(),
		newURLCommand(),
		newStateCommand(),
		newVersionsCommand(),
		newRoutesCommand(),
		newServicesCommand(),
		newLookupCommand(),
	)
	return root
}

// Execute runs kietool with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteC()
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "❌ %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(stderr, cmd.UsageString())
	}
	return 1
}

// envOr returns the environment value of key, or def when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
