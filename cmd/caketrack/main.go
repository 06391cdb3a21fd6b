// Command caketrack is a local-first order book for a small cake shop.
//
// All data lives on the user's device: a catalog of flavors, a client book,
// and orders. Storage prefers embedded SQLite and degrades to plain JSON
// files when the engine cannot be opened; concurrently running caketrack
// processes stay in sync through filesystem change events.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
