// SPDX-License-Identifier: MIT
//
// Package build carries metadata embedded at link time:
//
//	go build -ldflags "-X shottimer/pkg/build.buildVersion=0.3.0 -X shottimer/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds run without them and report "dev" values.
package build

import (
	"errors"
	"fmt"
)

// Name and Description identify the binary in help output.
const (
	Name        = "shottimer"
	Description = "Acoustic shot timer: detects shots from a microphone and reports times and splits"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the flags for --version output.
func (f ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}

// Populated by -ldflags.
var (
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        Name,
		Description: Description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// ErrMissingFlag is wrapped by Initialize for every link-time value that was not set.
var ErrMissingFlag = errors.New("build flag not set")

// Initialize copies the link-time values into the build flags. Missing values
// keep their development defaults and are reported in the returned error,
// which callers may treat as a warning.
func Initialize() error {
	var errs []error
	set := func(dst *string, value, name string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFlag, name))
			return
		}
		*dst = value
	}

	set(&buildFlags.Time, buildTime, "buildTime")
	set(&buildFlags.Commit, buildCommit, "buildCommit")
	set(&buildFlags.Version, buildVersion, "buildVersion")
	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
