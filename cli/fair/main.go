package main

import (
	"fmt"
	"os"

	faircmder "github.com/burnes-center/fair/cmd/fair"
	"github.com/burnes-center/fair/pkg/cliui"
)

func main() {
	cliui.SetupColor(os.Stderr)

	cmd := faircmder.NewFairCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
		os.Exit(1)
	}
}
