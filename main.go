package main

import (
	"os"

	"github.com/doomscroll/doomscroll/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
