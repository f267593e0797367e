package main

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version   string
	Module    string
	GoVersion string
	Commit    string
	Date      string
}

// buildVersion merges the link-time values with the build info embedded by
// the go tool. Link-time values win.
func buildVersion(info *debug.BuildInfo) versionInfo {
	v := versionInfo{
		Version: strings.TrimSpace(version),
		Commit:  strings.TrimSpace(commit),
		Date:    strings.TrimSpace(date),
	}
	if v.Commit == "none" {
		v.Commit = ""
	}
	if v.Date == "unknown" {
		v.Date = ""
	}
	if info == nil {
		return v
	}
	v.Module = info.Main.Path
	v.GoVersion = info.GoVersion
	if (v.Version == "" || v.Version == "dev") && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	var revision, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			if v.Date == "" {
				v.Date = s.Value
			}
		}
	}
	if v.Commit == "" && revision != "" {
		v.Commit = revision
		if modified == "true" {
			v.Commit += "+dirty"
		}
	}
	return v
}

func (v versionInfo) write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "chatbot %s\n", v.Version)
	for _, line := range [][2]string{
		{"module", v.Module},
		{"go", v.GoVersion},
		{"commit", v.Commit},
		{"date", v.Date},
	} {
		if line[1] != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", line[0], line[1])
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build info",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, _ := debug.ReadBuildInfo()
			buildVersion(info).write(cmd.OutOrStdout())
			return nil
		},
	}
}
