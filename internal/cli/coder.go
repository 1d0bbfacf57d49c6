package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jboss-openshift/openshift-kieserver/internal/coder"
)

func newSumCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sum <algorithm> <string...>",
		Short: "Print the lowercase hex digest of the joined strings",
		Long: "Digests the arguments joined by a single space.\n" +
			"Algorithms: " + strings.Join(coder.Algorithms(), ", ") + ".",
		Example: "  kietool sum MD5 c2=g2:a2:v2.1",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return usagef("sum needs an algorithm and at least one string")
			}
			c, err := coder.NewSumCoder(args[0])
			if err != nil {
				if errors.Is(err, coder.ErrUnknownAlgorithm) {
					return usagef("%v (want one of %s)", err, strings.Join(coder.Algorithms(), ", "))
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Encode(strings.Join(args[1:], " ")))
			return nil
		},
	}
}

func newURLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url",
		Short: "URL query escaping",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "encode <string>",
			Short: "Query-escape a string",
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) != 1 {
					return usagef("encode needs exactly one string")
				}
				fmt.Fprintln(cmd.OutOrStdout(), coder.URLCoder{}.Encode(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "decode <string>",
			Short: "Unescape a query-escaped string",
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) != 1 {
					return usagef("decode needs exactly one string")
				}
				out, err := coder.URLCoder{}.Decode(args[0])
				if err != nil {
					return usagef("%v", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			},
		},
	)
	return cmd
}
