package swapwatcher

import (
	"fmt"
	"io"
	"runtime"
)

// Populated during build
var (
	// Version is the release version
	Version = "v0.1.0"
	// GitRev is the commit of the release
	GitRev = "undefined"
	// GitBranch is the branch of the release
	GitBranch = "undefined"
	// BuildDate is the date of the release
	BuildDate = "undefined"
)

// PrintVersion prints version info into the provided io.Writer.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "Version:      %s\n", Version)
	fmt.Fprintf(w, "Git revision: %s\n", GitRev)
	fmt.Fprintf(w, "Git branch:   %s\n", GitBranch)
	fmt.Fprintf(w, "Go version:   %s\n", runtime.Version())
	fmt.Fprintf(w, "Built:        %s\n", BuildDate)
	fmt.Fprintf(w, "OS/Arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
