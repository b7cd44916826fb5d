// Package config implements the subcommand that inspects and writes the
// effective configuration.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/featherframe/featherframe/internal/conf"
)

// Command creates the config subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the FeatherFrame configuration file",
	}

	cmd.AddCommand(writeCommand(settings))

	return cmd
}

// writeCommand persists the effective settings, flags included, back to the
// configuration file. Useful for turning a flag-driven trial run into the
// durable configuration.
func writeCommand(settings *conf.Settings) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the effective configuration to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := outputPath
			if path == "" {
				configPaths, err := conf.GetDefaultConfigPaths()
				if err != nil {
					return fmt.Errorf("error resolving config paths: %w", err)
				}
				path = filepath.Join(configPaths[0], "config.yaml")
			}

			if err := conf.SaveYAMLConfig(path, settings); err != nil {
				return fmt.Errorf("error writing configuration: %w", err)
			}

			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file, defaults to the primary config path")

	return cmd
}
