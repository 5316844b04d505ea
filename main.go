package main

import (
	"os"

	"github.com/axiomloom/loom/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
