package main

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/cobra"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/cli"
)

func resetMainGlobals() {
	rootCommand = cli.NewRootCommand
	osExit = os.Exit
}

func runMain(t *testing.T, run func() error) int {
	t.Helper()
	t.Cleanup(resetMainGlobals)

	rootCommand = func() *cobra.Command {
		return &cobra.Command{
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE:          func(*cobra.Command, []string) error { return run() },
		}
	}
	code := -1
	osExit = func(c int) { code = c }
	os.Args = []string{"settingsctl"}
	main()
	return code
}

func TestMainSuccess(t *testing.T) {
	code := runMain(t, func() error { return nil })
	if code != -1 {
		t.Fatalf("unexpected exit code %d", code)
	}
}

func TestMainFailure(t *testing.T) {
	code := runMain(t, func() error { return errors.New("boom") })
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestMainParseErrorExitCode(t *testing.T) {
	code := runMain(t, func() error {
		return &settings.ParseError{Scope: settings.ScopeUser, Group: "General", Key: "FontSize", Kind: settings.KindInteger, Raw: "big", Err: settings.ErrFormat}
	})
	if code != exitParse {
		t.Fatalf("expected exit code %d, got %d", exitParse, code)
	}
}
