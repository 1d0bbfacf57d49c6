package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jboss-openshift/openshift-kieserver/internal/coordinate"
)

func newVersionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Order group:artifact:version coordinates",
	}

	pick := func(use, short string, fn func(...string) (coordinate.Coordinate, bool)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <gav...>",
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					return usagef("%s needs at least one coordinate", use)
				}
				c, ok := fn(args...)
				if !ok {
					return usagef("no valid group:artifact:version coordinate in %v", args)
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ExternalForm())
				return nil
			},
		}
	}

	cmd.AddCommand(
		pick("earliest", "Print the lowest coordinate", coordinate.Earliest),
		pick("latest", "Print the highest coordinate", coordinate.Latest),
	)
	return cmd
}
