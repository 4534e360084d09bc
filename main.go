package main

import (
	"os"

	"github.com/weftdev/weft/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
