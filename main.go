// ABOUTME: Entry point for the opsdesk CLI
// ABOUTME: Command-line client for the opsdesk project-management backend

package main

import (
	"fmt"
	"os"

	"github.com/opsdesk/opsdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
