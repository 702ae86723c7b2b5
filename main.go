package main

import (
	"os"

	"github.com/nabokov/clipd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
