package main

import (
	"errors"
	"os"

	"github.com/fabian-co/SelfEconomy/internal/commands"
	"github.com/fabian-co/SelfEconomy/internal/importer"
)

// exitPasswordRequired tells callers to retry with a password.
const exitPasswordRequired = 10

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		if errors.Is(err, importer.ErrPasswordRequired) {
			os.Exit(exitPasswordRequired)
		}
		os.Exit(1)
	}
}
