package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var globalOpts struct {
	socketPath string
}

var rootCmd = &cobra.Command{
	Use:     "swaynotictl",
	Short:   "Control client for the swaynotid notification daemon",
	Version: version,
	Long: `swaynotictl talks to a running swaynotid daemon over its Unix control
socket: dismissing notifications, toggling Do Not Disturb, and inspecting
the live notification set.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.socketPath, "socket", "",
		"Path to the control socket (default: $XDG_RUNTIME_DIR/swaynoti.sock)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
