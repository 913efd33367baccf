package main

import (
	"os"

	"coordinator/cmd/coordctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
