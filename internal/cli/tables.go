package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/pathtemplate"
	"github.com/jboss-openshift/openshift-kieserver/internal/servicemethod"
)

func newRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the REST path templates in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TEMPLATE\tVARIABLES")
			for _, t := range pathtemplate.NewRegistry(pathtemplate.DefaultRoutes()).Templates() {
				fmt.Fprintf(w, "%s\t%s\n", t, strings.Join(t.Variables(), ","))
			}
			return w.Flush()
		},
	}
}

func newServicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the remote service methods and their argument roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, m := range servicemethod.Default(logger.NewNop()).Methods() {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}
