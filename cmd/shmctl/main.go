// Command shmctl inspects and cleans up the shared memory regions exchanged
// between a worker and its host.
//
// Usage:
//
//	shmctl [--dir DIR]... [--suffix NAME] <command> [options]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	shmcli "github.com/srediag/shmbridge/internal/cli"
)

func main() {
	app := shmcli.App()
	app.ExitErrHandler = exitErrHandler
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitErrHandler keeps the exit code of cli.Exit errors.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
