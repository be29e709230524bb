// tagserver is a real-time, location-based multiplayer tag game server.
//
// Usage:
//
//	tagserver serve             - Start the WebSocket server
//
// Flags:
//
//	--config <path>   - Path to a YAML config file (overrides the search order)
//	--address <addr>  - Override the listen address
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tagserver",
	Short: "tagserver - a location-based multiplayer tag game server",
	Long: `tagserver hosts real-time tag games over WebSocket: players join a
game by code, one seeker chases the rest, and proximity to the game's
origin point scores everyone else until time runs out.

Examples:
  tagserver serve
  tagserver serve --address :9090
  tagserver serve --config ./configs/server.yaml`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
