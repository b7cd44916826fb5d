package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/featherframe/featherframe/cmd/config"
	"github.com/featherframe/featherframe/cmd/server"
	"github.com/featherframe/featherframe/internal/buildinfo"
	"github.com/featherframe/featherframe/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "featherframe",
		Short:   "FeatherFrame bird sighting service CLI",
		Version: buildinfo.Version(),
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	serverCmd := server.Command(settings)
	configCmd := config.Command(settings)

	rootCmd.AddCommand(serverCmd, configCmd)

	return rootCmd
}

// setupFlags defines global flags shared by every subcommand and binds them
// to viper so command line arguments take precedence over the config file.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding persistent flags: %v\n", err)
	}
}
