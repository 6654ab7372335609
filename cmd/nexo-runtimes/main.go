package main

import "github.com/nexo-app/runtimes/internal/cli"

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	cli.Version = Version
	cli.Execute()
}
