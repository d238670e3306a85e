package main

import (
	"os"

	"github.com/Bishwas-py/fymo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
