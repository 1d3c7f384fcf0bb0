package cmd

import (
	"context"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type mineResponse struct {
	Message      string        `json:"message"`
	Index        int64         `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        int64         `json:"proof"`
	PrevHash     database.Link `json:"previous_hash"`
}

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to forge a new block",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Mining ...")

		var resp mineResponse
		err := send(ctx, http.MethodGet, "/mine", nil, &resp)
		if spinner != nil {
			spinner.Stop()
		}

		if err != nil {
			return err
		}

		pterm.Success.Printfln("%s: block[%d]: proof[%d]", resp.Message, resp.Index, resp.Proof)
		renderTxs(resp.Transactions)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
}
