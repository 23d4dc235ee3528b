package main

import (
	"os"

	"github.com/ariel-frischer/issuelog/internal/cli"
)

func main() {
	os.Exit(cli.ExitCodeFor(cli.Execute()))
}
