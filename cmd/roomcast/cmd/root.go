package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roomcast",
	Short: "Multi-process chat message distribution server",
	Long: `roomcast accepts chat messages over HTTP and WebSocket, persists them,
and fans them out through a pluggable broker so every server process
delivers them to its locally connected clients.

Configuration comes from the environment; the broker backend is chosen
with BROKER_DRIVER (channel, kafka or amqp).`,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
