/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rowstore

import (
	"runtime"

	"github.com/suparena/rowstore/registry"
)

// Version information set by build flags
var (
	// Version is the semantic version of RowStore
	Version = "0.1.0"

	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"

	// BuildDate is the build date (set by build flags)
	BuildDate = "unknown"
)

// VersionInfo contains version information
type VersionInfo struct {
	Version   string   `json:"version"`
	GitCommit string   `json:"gitCommit"`
	BuildDate string   `json:"buildDate"`
	GoVersion string   `json:"goVersion"`
	Backends  []string `json:"backends"`
}

// GetVersionInfo returns the version information and the compiled-in backends
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Backends:  registry.Backends(),
	}
}
