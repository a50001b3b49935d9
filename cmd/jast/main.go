package main

import (
	"os"

	"github.com/nhle/jast/internal/cli"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(cli.Execute(cli.Options{
		Build: cli.BuildInfo{Version: version, Commit: commit, Date: date},
	}))
}
