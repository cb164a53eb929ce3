package main

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X main.commit=... -X main.buildDate=..." or detected.
var (
	commit    = "dev"
	buildDate = ""
)

func init() {
	commit, buildDate = detectBuild(commit, buildDate)
}

// detectBuild fills in whatever was not stamped at link time, first from the
// embedded VCS settings, then from git, then from the clock.
func detectBuild(rev, date string) (string, string) {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && rev == "dev" && s.Value != "":
				rev = shortRev(s.Value)
			case s.Key == "vcs.time" && date == "" && s.Value != "":
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					date = t.Format("2006-01-02")
				}
			}
		}
	}
	if rev == "dev" {
		if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
			rev = strings.TrimSpace(string(out))
		}
	}
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return rev, date
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
