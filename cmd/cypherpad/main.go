package main

import (
	"os"

	"github.com/kobzarvs/cypherpad/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(cli.Execute(version, os.Args[1:], os.Stderr))
}
