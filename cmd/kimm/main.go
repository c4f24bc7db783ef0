// @MX:ANCHOR: [AUTO] main is the only entry point of the kimm binary; exit code 1 on any command error.
package main

import (
	"os"

	"github.com/kim-interface/kimm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
