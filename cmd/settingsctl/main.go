package main

import (
	"errors"
	"fmt"
	"os"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/cli"
)

// exitParse is returned when stored settings cannot be parsed.
const exitParse = 2

var (
	rootCommand = cli.NewRootCommand
	osExit      = os.Exit
)

func main() {
	cmd := rootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var parseErr *settings.ParseError
		if errors.As(err, &parseErr) {
			osExit(exitParse)
			return
		}
		osExit(1)
	}
}
