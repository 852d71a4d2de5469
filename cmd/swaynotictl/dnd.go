package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/swaynoti/internal/controlsocket"
)

var dndOpts struct {
	quiet bool
}

// dndCmd mirrors the teacher's dnd command group: a status default, with
// quiet mode exit codes 0=off, 1=on.
var dndCmd = &cobra.Command{
	Use:   "dnd",
	Short: "Manage Do Not Disturb mode",
	RunE:  dndStatusRun,
}

var dndOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable Do Not Disturb mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dndSet(controlsocket.CmdEnableDnD, "enabled")
	},
}

var dndOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable Do Not Disturb mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dndSet(controlsocket.CmdDisableDnD, "disabled")
	},
}

var dndToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle Do Not Disturb mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(globalOpts.socketPath)
		resp, err := c.send(controlsocket.Command{Command: controlsocket.CmdToggleDnD})
		if err != nil {
			return err
		}
		var enabled bool
		if err := json.Unmarshal(resp.Data, &enabled); err != nil {
			return fmt.Errorf("decode toggle response: %w", err)
		}
		printDnDState(enabled)
		return nil
	},
}

var dndStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Do Not Disturb status",
	RunE:  dndStatusRun,
}

func init() {
	dndCmd.AddCommand(dndOnCmd, dndOffCmd, dndToggleCmd, dndStatusCmd)
	for _, cmd := range []*cobra.Command{dndCmd, dndOnCmd, dndOffCmd, dndToggleCmd, dndStatusCmd} {
		cmd.Flags().BoolVarP(&dndOpts.quiet, "quiet", "q", false,
			"Suppress output, return exit code only (0=off, 1=on)")
	}
	rootCmd.AddCommand(dndCmd)
}

func dndSet(cmdName, label string) error {
	c := newClient(globalOpts.socketPath)
	if _, err := c.send(controlsocket.Command{Command: cmdName}); err != nil {
		return err
	}
	if !dndOpts.quiet {
		fmt.Println("Do Not Disturb:", label)
	}
	if label == "enabled" {
		os.Exit(1)
	}
	return nil
}

func dndStatusRun(cmd *cobra.Command, args []string) error {
	c := newClient(globalOpts.socketPath)
	resp, err := c.send(controlsocket.Command{Command: controlsocket.CmdGetDnDStatus})
	if err != nil {
		return err
	}
	var enabled bool
	if err := json.Unmarshal(resp.Data, &enabled); err != nil {
		return fmt.Errorf("decode status response: %w", err)
	}
	printDnDState(enabled)
	return nil
}

func printDnDState(enabled bool) {
	if !dndOpts.quiet {
		if enabled {
			fmt.Println("Do Not Disturb: enabled")
		} else {
			fmt.Println("Do Not Disturb: disabled")
		}
	}
	if enabled {
		os.Exit(1)
	}
}
