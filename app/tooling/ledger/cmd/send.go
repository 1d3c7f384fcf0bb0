package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	sender    string
	recipient string
	amount    string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Queue a transaction for the next block",
	RunE: func(cmd *cobra.Command, args []string) error {
		amt, err := database.ParseAmount(amount)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		tx := database.NewTx(sender, recipient, amt)

		var resp struct {
			Message string `json:"message"`
		}
		if err := send(ctx, http.MethodPost, "/transactions/new", tx, &resp); err != nil {
			return err
		}

		pterm.Success.Println(resp.Message)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sender, "sender", "s", "", "Who is sending the amount.")
	sendCmd.Flags().StringVarP(&recipient, "recipient", "r", "", "Who is receiving the amount.")
	sendCmd.Flags().StringVarP(&amount, "amount", "a", "0", "Amount to send.")
	sendCmd.MarkFlagRequired("sender")
	sendCmd.MarkFlagRequired("recipient")
}
