package main

import (
	"os"

	"github.com/gridloop/recap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
