package cmd

import (
	"context"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// pendingCmd represents the pending command
var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the transactions waiting for the next block",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var resp struct {
			Transactions []database.Tx `json:"transactions"`
			Length       int           `json:"length"`
		}
		if err := send(ctx, http.MethodGet, "/tx/pending", nil, &resp); err != nil {
			return err
		}

		pterm.Info.Printfln("pending: %d", resp.Length)
		renderTxs(resp.Transactions)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

// renderTxs prints one row per transaction.
func renderTxs(txs []database.Tx) {
	if len(txs) == 0 {
		return
	}

	data := pterm.TableData{
		{"Sender", "Recipient", "Amount"},
	}
	for _, tx := range txs {
		data = append(data, []string{tx.Sender, tx.Recipient, tx.Amount.String()})
	}

	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
