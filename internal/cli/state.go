package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jboss-openshift/openshift-kieserver/internal/deployment"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

type registryFlags struct {
	repo           string
	serverID       string
	stateFile      string
	deployment     string
	deploymentFile string
	redirect       bool
}

// bind registers the flags, defaulting to the same environment variables the service reads.
func (f *registryFlags) bind(cmd *cobra.Command) {
	redirect, err := strconv.ParseBool(envOr("KIE_CONTAINER_REDIRECT_ENABLED", "true"))
	if err != nil {
		redirect = true
	}

	fs := cmd.Flags()
	fs.StringVar(&f.repo, "repo", envOr("KIE_SERVER_REPO", deployment.DefaultRepo), "server repository directory")
	fs.StringVar(&f.serverID, "server-id", envOr("KIE_SERVER_ID", deployment.DefaultServerID), "server id")
	fs.StringVar(&f.stateFile, "state-file", envOr("KIE_SERVER_STATE_FILE", ""), "state file, defaults to <repo>/<server-id>.xml")
	fs.StringVar(&f.deployment, "deployment", envOr("KIE_CONTAINER_DEPLOYMENT", ""), "alias=group:artifact:version|...")
	fs.StringVar(&f.deploymentFile, "deployment-file", envOr("KIE_CONTAINER_DEPLOYMENT_FILE", ""), "yaml mapping file merged after --deployment")
	fs.BoolVar(&f.redirect, "redirect", redirect, "hash deployment ids instead of using the alias")
}

func (f *registryFlags) registry() (*deployment.Registry, error) {
	mappings := deployment.ParseMappings(f.deployment)
	if f.deploymentFile != "" {
		more, err := deployment.LoadMappingFile(f.deploymentFile)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, more...)
	}
	return deployment.New(deployment.Options{
		Repo:            f.repo,
		ServerID:        f.serverID,
		StateFile:       f.stateFile,
		Mappings:        mappings,
		RedirectEnabled: f.redirect,
	}, logger.NewNop())
}

func newStateCommand() *cobra.Command {
	var (
		flags registryFlags
		write bool
	)

	cmd := &cobra.Command{
		Use:       "state env|xml|yaml|json",
		Short:     "Print the deployment registry",
		Long:      "Prints the registry built from the mapping spec. --write also stores the XML state file.",
		ValidArgs: []string{"env", "xml", "yaml", "json"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("state needs exactly one format: env, xml, yaml or json")
			}

			reg, err := flags.registry()
			if err != nil {
				return err
			}

			var out []byte
			switch args[0] {
			case "env":
				out = []byte(reg.EnvString())
			case "xml":
				out, err = reg.State().XML()
			case "yaml":
				out, err = reg.State().YAML()
			case "json":
				out, err = reg.State().JSON()
			default:
				return usagef("unknown format %q (want env, xml, yaml or json)", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if write {
				if err := reg.WriteStateFile(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✅ state written to %s\n", reg.StateFile())
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&write, "write", false, "write the XML state file")
	return cmd
}
