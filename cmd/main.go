package main

import (
	"os"

	"github.com/oksasatya/go-identity-docstore/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
