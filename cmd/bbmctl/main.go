package main

import (
	"os"

	"github.com/juanketo/BBMApp-sub000/cmd/bbmctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
