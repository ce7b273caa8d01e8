// Package main is the entry point for cui.
//
//	@title			cui API
//	@version		1.0
//	@description	Session history index for Claude Code conversation archives.
//	@description	Serves indexed session metadata, full conversations and live update streams.
//
//	@contact.name	cui project
//	@contact.url	https://github.com/cui-project/cui
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:3001
//	@BasePath	/
//	@schemes	http
//
//	@tag.name			system
//	@tag.description	Health, index statistics and reindex control
//	@tag.name			conversations
//	@tag.description	Session listing, conversation reads and preference updates
//	@tag.name			stream
//	@tag.description	Live update streams over SSE and WebSocket
package main

import (
	"fmt"
	"os"

	"github.com/cui-project/cui/cmd/cui/cmd"

	_ "github.com/cui-project/cui/api/swagger" // swagger docs
)

// Version information (set by ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Pass version info to cmd package
	cmd.SetVersionInfo(Version, BuildTime, GitCommit)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
