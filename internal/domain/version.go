package domain

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionFieldRegex matches a quoted "version" field on a single manifest line.
// This is a text match, not a JSON parse: a manifest that spells the field any
// other way yields no version at all.
var versionFieldRegex = regexp.MustCompile(`"version": ?"([^"]*)"`)

// ExtractVersion returns the first "version": "<value>" found in manifest, or "" when none matches
func ExtractVersion(manifest string) string {
	for _, line := range strings.Split(manifest, "\n") {
		if m := versionFieldRegex.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// IsPrerelease reports whether version carries a prerelease component (1.2.0-beta.1)
func IsPrerelease(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		// not semver; fall back to the same hyphen rule semver uses
		core, _, _ := strings.Cut(version, "+")
		return strings.Contains(core, "-")
	}
	return v.Prerelease() != ""
}

// Channel picks the registry dist-tag for version
func Channel(version, stable, prerelease string) string {
	if IsPrerelease(version) {
		return prerelease
	}
	return stable
}
