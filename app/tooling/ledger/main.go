// This program provides a command line client for a ledger node.
package main

import (
	"github.com/ardanlabs/powledger/app/tooling/ledger/cmd"
)

func main() {
	cmd.Execute()
}
