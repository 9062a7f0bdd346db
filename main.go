// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for NightCore.
//
// Usage:
//
//	go run . [flags]
//	./nightcore [flags]
//
// Without a subcommand the interactive console starts. See --help.
package main

import (
	"os"

	log "github.com/charmbracelet/log"

	"github.com/xnfinite/nightcoreapp/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Errorf("nightcore: %v", err)
		os.Exit(1)
	}
}
