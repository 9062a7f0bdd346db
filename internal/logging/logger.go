// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger shared by the trust layer packages.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	Prefix:          "nightcore",
	ReportTimestamp: false,
})

// Configure sets the level from a config string ("debug", "info", "warn",
// "error"). Unknown values keep the current level.
func Configure(level string, verbose bool) {
	if verbose {
		L.SetLevel(clog.DebugLevel)
		return
	}
	if level == "" {
		return
	}
	lvl, err := clog.ParseLevel(strings.ToLower(level))
	if err != nil {
		L.Warn("unknown log level, keeping default", "level", level)
		return
	}
	L.SetLevel(lvl)
}

// SetOutput redirects the logger, mainly for the TUI which owns stderr.
func SetOutput(w io.Writer) {
	L.SetOutput(w)
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}
