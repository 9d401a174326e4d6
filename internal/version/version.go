// Package version holds build metadata stamped in with -ldflags -X.
package version

import "runtime/debug"

const AppName = "folio-web"

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate string
)

type Info struct {
	App        string `json:"app"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitDate string `json:"commit_date,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	GoVersion  string `json:"go_version"`
	Dirty      *bool  `json:"vcs_dirty,omitempty"`
}

// Get merges the ldflags values with the VCS settings recorded by the Go
// toolchain. Explicit ldflags win.
func Get() Info {
	out := Info{
		App:       AppName,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	applyBuildInfo(&out, bi)
	return out
}

func applyBuildInfo(out *Info, bi *debug.BuildInfo) {
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "none" && s.Value != "" {
				out.Commit = s.Value
			}
		case "vcs.time":
			out.CommitDate = s.Value
			if out.BuildDate == "" {
				out.BuildDate = s.Value
			}
		case "vcs.modified":
			dirty := s.Value == "true"
			if s.Value == "true" || s.Value == "false" {
				out.Dirty = &dirty
			}
		}
	}
}
