// Package buildinfo holds the release metadata of the manifestkit binary.
//
// Release builds stamp it through the linker, with
// PKG=github.com/matzehuels/manifestkit/pkg/buildinfo:
//
//	go build -ldflags "-X $PKG.Version=$(git describe --tags) \
//	    -X $PKG.Commit=$(git rev-parse --short HEAD) \
//	    -X $PKG.Date=$(date -u +%FT%TZ)" ./cmd/manifestkit
//
// A binary installed with `go install ...@vX.Y.Z` carries no stamp, so its
// version is taken from the module version the toolchain recorded instead.
// `manifestkit --version` and GET /healthz both report Current.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Placeholders kept by unstamped builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Current returns the stamped version, falling back to the module version of
// a `go install` build and then to "dev".
func Current() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Version
}

// String renders the metadata as one "field: value" line each.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Current(), Commit, Date)
}

// Template is the cobra version template behind --version.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Current(), Commit, Date)
}
