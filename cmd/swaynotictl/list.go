package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/swaynoti/internal/config"
	"github.com/jmylchreest/swaynoti/internal/controlsocket"
)

// notificationSummary mirrors the wire shape of get_notifications
// (internal/coordinator's notificationSummary), decoded independently
// here since swaynotictl only ever sees the JSON over the socket.
type notificationSummary struct {
	ID      uint32 `json:"id"`
	App     string `json:"app"`
	Summary string `json:"summary"`
	Urgency string `json:"urgency"`
}

var listOpts struct {
	format string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List currently visible notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(globalOpts.socketPath)
		resp, err := c.send(controlsocket.Command{Command: controlsocket.CmdGetNotifications})
		if err != nil {
			return err
		}
		var items []notificationSummary
		if err := json.Unmarshal(resp.Data, &items); err != nil {
			return fmt.Errorf("decode notification list: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No visible notifications")
			return nil
		}

		if listOpts.format == "" {
			for _, n := range items {
				fmt.Printf("%-6d %-8s %-20s %s\n", n.ID, n.Urgency, n.App, n.Summary)
			}
			return nil
		}

		cliCfg, err := config.LoadCLIConfig("")
		if err != nil {
			return fmt.Errorf("load CLI output config: %w", err)
		}
		for _, n := range items {
			// get_notifications' wire shape (spec.md §6) carries no body or
			// timestamp for a still-live notification, so those fields of
			// TemplateData are left zero-valued here.
			line, err := cliCfg.Render(listOpts.format, config.TemplateData{
				ID:      n.ID,
				AppName: n.App,
				Summary: n.Summary,
				Urgency: n.Urgency,
			})
			if err != nil {
				return err
			}
			fmt.Println(line)
		}
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of live notifications, including any beyond the visible cap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(globalOpts.socketPath)
		resp, err := c.send(controlsocket.Command{Command: controlsocket.CmdGetCount})
		if err != nil {
			return err
		}
		var n int
		if err := json.Unmarshal(resp.Data, &n); err != nil {
			return fmt.Errorf("decode count response: %w", err)
		}
		fmt.Println(n)
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the daemon to reload its configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(globalOpts.socketPath)
		_, err := c.send(controlsocket.Command{Command: controlsocket.CmdReloadConfig})
		return err
	},
}

func init() {
	listCmd.Flags().StringVar(&listOpts.format, "format", "", `Render each line with a named CLI output template ("plain", "dmenu", or a custom name from cli.toml) instead of the default columns`)
	rootCmd.AddCommand(listCmd, countCmd, reloadCmd)
}
