package main

import (
	"os"

	packratcmder "github.com/packratco/packrat/cmd/packrat"
)

func main() {
	cmd := packratcmder.NewPackratCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
