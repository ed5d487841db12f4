// CLI entry point for CiteGuard.
package main

import (
	"os"

	"github.com/turtacn/CiteGuard/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
