// Package version carries the build identity stamped into harnessctl.
package version

// GitCommit identifies the build. Release builds override the default
// through ldflags:
//
//	-X github.com/driftlock/agent-harness/internal/version.GitCommit=$(git rev-parse --short HEAD)
var GitCommit = "dev"
