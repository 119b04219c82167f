// ABOUTME: Entry point for the VocalSwap web front-end server
// ABOUTME: Delegates to the cobra commands (serve, health, projects, voices)

package main

import (
	"fmt"
	"os"

	"github.com/vocalswap/vocalswap-web/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
