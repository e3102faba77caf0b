// Package buildinfo exposes the version stamped into vertexflow binaries.
//
// The variables are overridden with ldflags at release time:
//
//	go build -ldflags "-X github.com/matzehuels/vertexflow/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/vertexflow/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/vertexflow/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/vertexflow
package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent is sent with every backend request.
func UserAgent() string {
	return fmt.Sprintf("vertexflow/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Template is the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt:  %s\ngo:     %s\n", Version, Commit, Date, runtime.Version())
}
