// pkg/version/version.go - build information for the auto-installer binaries.

package version

import (
	"fmt"
	"io"
)

// These values are private which ensures they can only be set with the build flags.
var (
	version   = "unknown"
	branch    = "unknown"
	revision  = "unknown"
	goVersion = "unknown"
	buildDate = "unknown"
	appName   = "autoinstaller"
)

// Info is a structure with version build information about the current application.
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	GoVersion string `json:"go_version"`
	BuildDate string `json:"build_date"`
}

// Version returns a structure with the current version information.
func Version() Info {
	return Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: goVersion,
		BuildDate: buildDate,
	}
}

// Fprint writes the application name and version string.
func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", appName, version)
}

// FprintFull writes the application name and detailed version information.
func FprintFull(w io.Writer) {
	v := Version()
	fmt.Fprintf(w, "%s %s\n", appName, v.Version)
	fmt.Fprintf(w, "  branch: \t%s\n", v.Branch)
	fmt.Fprintf(w, "  revision: \t%s\n", v.Revision)
	fmt.Fprintf(w, "  build date: \t%s\n", v.BuildDate)
	fmt.Fprintf(w, "  go version: \t%s\n", v.GoVersion)
}
