package main

import (
	"fmt"
	"os"

	"docqa/app/cli"
)

// Standalone drop-folder loader, same as "docqa watch".
func main() {
	if err := cli.NewWatchCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
