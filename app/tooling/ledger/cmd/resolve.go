package cmd

import (
	"context"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Ask the node to adopt the longest valid chain of its peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var resp struct {
			Message  string           `json:"message"`
			NewChain []database.Block `json:"new_chain"`
		}
		if err := send(ctx, http.MethodGet, "/nodes/resolve", nil, &resp); err != nil {
			return err
		}

		pterm.Info.Println(resp.Message)
		renderChain(resp.NewChain)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
