// Command reconcile runs a reconciliation between two local files without
// starting the HTTP server.
//
//	reconcile columns bank.csv
//	reconcile run --file1 bank.csv --file2 ledger.xlsx -a id -b ref --mode outer
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
