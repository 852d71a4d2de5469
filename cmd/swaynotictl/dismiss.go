package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/swaynoti/internal/controlsocket"
)

var dismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Dismiss a single visible notification by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid notification id %q: %w", args[0], err)
		}
		c := newClient(globalOpts.socketPath)
		_, err = c.send(controlsocket.Command{Command: controlsocket.CmdDismiss, ID: uint32(id)})
		return err
	},
}

var dismissAllCmd = &cobra.Command{
	Use:   "dismiss-all",
	Short: "Dismiss every currently visible notification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(globalOpts.socketPath)
		_, err := c.send(controlsocket.Command{Command: controlsocket.CmdDismissAll})
		return err
	},
}

func init() {
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(dismissAllCmd)
}
