package main

import (
	"fmt"
	"os"

	"github.com/ShadowBlip/PowerStation/cmd/powerstationd/command"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := command.App()
	if err := app.Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
