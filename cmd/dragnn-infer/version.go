package main

import (
	"fmt"
)

// Set at build time with -ldflags "-X main.BuildTag=... -X main.BuildCommit=...".
var (
	BuildTag    = "dev"
	BuildCommit = "none"
)

func version() string {
	return fmt.Sprintf("%s (commit: %s)", BuildTag, BuildCommit)
}
