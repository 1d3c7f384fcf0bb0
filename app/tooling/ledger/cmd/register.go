package cmd

import (
	"context"
	"net/http"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register [address...]",
	Short: "Register peer nodes with the node",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		req := struct {
			Nodes []string `json:"nodes"`
		}{
			Nodes: args,
		}

		var resp struct {
			Message    string   `json:"message"`
			TotalNodes []string `json:"total_nodes"`
		}
		if err := send(ctx, http.MethodPost, "/nodes/register", req, &resp); err != nil {
			return err
		}

		pterm.Success.Println(resp.Message)

		items := make([]pterm.BulletListItem, len(resp.TotalNodes))
		for i, node := range resp.TotalNodes {
			items[i] = pterm.BulletListItem{Level: 0, Text: node}
		}
		pterm.DefaultBulletList.WithItems(items).Render()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
