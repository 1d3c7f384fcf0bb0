package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type chainResponse struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// chainCmd represents the chain command
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain held by the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		var resp chainResponse
		if err := send(ctx, http.MethodGet, "/chain", nil, &resp); err != nil {
			return err
		}

		renderChain(resp.Chain)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

// renderChain prints one row per block.
func renderChain(chain []database.Block) {
	data := pterm.TableData{
		{"Index", "Time", "Proof", "Txs", "Prev Hash", "Hash"},
	}

	for _, block := range chain {
		data = append(data, []string{
			strconv.FormatInt(block.Index, 10),
			block.TimeStamp.Time().Format("2006-01-02 15:04:05"),
			strconv.FormatInt(block.Proof, 10),
			strconv.Itoa(len(block.Transactions)),
			shorten(string(block.PrevHash)),
			shorten(block.Hash()),
		})
	}

	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Info.Printfln("length: %d: valid: %v", len(chain), database.IsValidChain(chain))
}

func shorten(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return fmt.Sprintf("%s..%s", hash[:8], hash[len(hash)-6:])
}
