// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Version is set at build time
var Version = "dev"

// Name is the binary name, as displayed by the version commands
var Name = "monitoring-poc"

// BuildInfo describes the running binary. VCS fields are empty when the
// binary was built outside of a repository.
type BuildInfo struct {
	Version   string
	GoVersion string
	Commit    string
	Time      string
	Modified  string
}

func ReadBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	vcs := map[string]*string{
		"vcs.revision": &info.Commit,
		"vcs.time":     &info.Time,
		"vcs.modified": &info.Modified,
	}
	for _, s := range bi.Settings {
		if field, ok := vcs[s.Key]; ok {
			*field = s.Value
		}
	}
	return info
}

// TreeState returns "dirty" or "clean", or "" if unknown.
func (info BuildInfo) TreeState() string {
	switch info.Modified {
	case "":
		return ""
	case "true":
		return "dirty"
	default:
		return "clean"
	}
}

// Fprint writes info to w, one field per line, skipping unknown fields.
func (info BuildInfo) Fprint(w io.Writer) error {
	lines := [][2]string{
		{"GoVersion", info.GoVersion},
		{"Date", info.Time},
		{"GitCommit", info.Commit},
		{"GitTreeState", info.TreeState()},
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", Name, info.Version); err != nil {
		return err
	}
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", l[0], l[1]); err != nil {
			return err
		}
	}
	return nil
}
