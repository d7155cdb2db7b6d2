// Command fivectl keeps score for games of Five from the terminal.
package main

import (
	"os"

	"scorefive/internal/logger"
)

func main() {
	logger.Init()
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Error("fivectl failed", "error", err)
		os.Exit(1)
	}
}
