package main

import (
	"os"

	"github.com/conneroisu/bundler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
