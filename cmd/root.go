/*
Package cmd
File: root.go
Description: Root of the CLI. 'serve' runs the game server, 'simulate' runs
a headless fast-forward for balancing work, 'schema' emits the save-file
JSON schema for the browser save collaborator.
*/

package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "tradewinds",
	Short: "TRADEWINDS simulation core server",
	Long: `The TRADEWINDS simulation core: the game clock, the event scheduler,
the dynamic market engine, and the survival loop behind the browser client.

Run 'serve' to host a session, 'simulate' to fast-forward a headless economy
for balance tuning, or 'schema' to print the save-file JSON schema.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "world.yaml", "Path to the world configuration file")
}
