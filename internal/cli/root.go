package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	serveOpts := &ServeOptions{RootOptions: opts}
	serve := NewServeCommand(serveOpts)

	cmd := &cobra.Command{
		Use:           "admissions",
		Short:         "School admissions API",
		Long:          "Signup, login and admissions application uploads over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file (default ./configs/config.yaml or ./config.yaml)")
	registerServeFlags(cmd, serveOpts)

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
