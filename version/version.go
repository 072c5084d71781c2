// Package version reports how the autocode binary was built.
//
// Release builds stamp Version, Commit and Date with -ldflags -X. Binaries
// built with "go install" or "go build" fall back to the module and VCS data
// the toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/sghaida/autocode/dispatch"
)

// Stamped at release, e.g. -X github.com/sghaida/autocode/version.Version=v1.2.0.
var (
	Version string
	Commit  string
	Date    string
)

const unknown = "unknown"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`

	// GenVersion is the header tag written when no version is configured.
	GenVersion string `json:"gen_version" yaml:"gen_version"`
}

func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return build(bi)
}

// build merges stamped values with bi; stamped values win.
func build(bi *debug.BuildInfo) Info {
	info := Info{
		Version:    Version,
		Commit:     Commit,
		Date:       Date,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		GenVersion: dispatch.DefaultVersion,
	}

	if bi != nil {
		if info.Version == "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = unknown
	}
	if info.Date == "" {
		info.Date = unknown
	}
	return info
}

// ShortCommit is the first 12 characters of the commit, as git shows it.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

func (i Info) String() string {
	commit := i.ShortCommit()
	if i.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("autocode %s (%s, %s)", i.Version, commit, i.Date)
}
