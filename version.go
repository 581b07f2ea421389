// This file contains code adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0. See NOTICE file for full attribution.
package vertag

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// Version is a parsed SemVer 2.0 value. It is blang/semver's own
// representation directly: that library's Parse, Compare and String
// already implement the grammar's round-trip and ordering rules, so the
// transformations below are built on top of it rather than beside it.
type Version = semver.Version

// ParseVersion parses text as a SemVer 2.0 version after stripping the
// exact byte prefix tagPrefix. It reports false, not an error, on any
// failure: wrong prefix, malformed numerics, empty identifiers, illegal
// characters, or trailing garbage are all "not a version".
func ParseVersion(text, tagPrefix string) (Version, bool) {
	if !strings.HasPrefix(text, tagPrefix) {
		return Version{}, false
	}
	v, err := semver.Parse(text[len(tagPrefix):])
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// IsPreRelease reports whether v carries pre-release identifiers.
func IsPreRelease(v Version) bool {
	return len(v.Pre) > 0
}

// CompareVersions returns -1, 0, or 1 as a orders before, the same as,
// or after b. Build metadata never participates.
func CompareVersions(a, b Version) int {
	return a.Compare(b)
}

// Satisfying lifts v to meet a minimum (major, minor) floor. If v
// already satisfies min, it is returned unchanged; otherwise a fresh
// version at min.Major.min.Minor.0 with the given default pre-release
// identifiers is returned. Idempotent: the result always satisfies min
// by construction, so applying Satisfying again with the same
// arguments returns it unchanged.
func Satisfying(v Version, min MajorMinor, defaultPreReleaseIdentifiers []string) (Version, error) {
	if v.Major > min.Major || (v.Major == min.Major && v.Minor >= min.Minor) {
		return v, nil
	}
	pre, err := preReleaseIdentifiers(defaultPreReleaseIdentifiers)
	if err != nil {
		return Version{}, err
	}
	return Version{
		Major: min.Major,
		Minor: min.Minor,
		Patch: 0,
		Pre:   pre,
	}, nil
}

// WithHeight applies the walk height to v. It is a no-op when height is
// zero — HEAD sits exactly on the selected tag, so there is nothing to
// encode. When v is already a pre-release, height is appended as a
// trailing numeric pre-release identifier. When v is a release, the
// component named by autoIncrement is bumped, lower components are
// zeroed, pre-release becomes defaultPreReleaseIdentifiers followed by
// height, and any build metadata is cleared.
func WithHeight(v Version, height uint64, autoIncrement AutoIncrement, defaultPreReleaseIdentifiers []string) (Version, error) {
	if height == 0 {
		return v, nil
	}

	heightID := numericIdentifier(height)

	if IsPreRelease(v) {
		nv := v
		nv.Pre = append(append([]semver.PRVersion{}, v.Pre...), heightID)
		return nv, nil
	}

	pre, err := preReleaseIdentifiers(defaultPreReleaseIdentifiers)
	if err != nil {
		return Version{}, err
	}
	pre = append(pre, heightID)

	nv := Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Pre: pre}
	switch autoIncrement {
	case AutoIncrementMajor:
		nv.Major++
		nv.Minor = 0
		nv.Patch = 0
	case AutoIncrementMinor:
		nv.Minor++
		nv.Patch = 0
	case AutoIncrementPatch:
		nv.Patch++
	default:
		return Version{}, fmt.Errorf("%w: auto_increment %q", ErrInvalidConfiguration, autoIncrement)
	}
	return nv, nil
}

// AddBuildMetadata replaces v's build metadata with the identifiers
// parsed from meta (dot-separated). An empty meta is the identity.
func AddBuildMetadata(v Version, meta string) (Version, error) {
	if meta == "" {
		return v, nil
	}
	build, err := buildIdentifiers(meta)
	if err != nil {
		return Version{}, err
	}
	nv := v
	nv.Build = build
	return nv, nil
}

func numericIdentifier(n uint64) semver.PRVersion {
	return semver.PRVersion{VersionNum: n, IsNum: true}
}

func preReleaseIdentifiers(identifiers []string) ([]semver.PRVersion, error) {
	if len(identifiers) == 0 {
		identifiers = DefaultPreReleaseIdentifiers
	}
	out := make([]semver.PRVersion, 0, len(identifiers))
	for _, id := range identifiers {
		pr, err := semver.NewPRVersion(id)
		if err != nil {
			return nil, fmt.Errorf("%w: pre-release identifier %q: %v", ErrInvalidConfiguration, id, err)
		}
		out = append(out, pr)
	}
	return out, nil
}

func buildIdentifiers(meta string) ([]string, error) {
	parts := strings.Split(meta, ".")
	for _, p := range parts {
		if !validIdentifier(p) {
			return nil, fmt.Errorf("%w: build metadata identifier %q", ErrInvalidConfiguration, p)
		}
	}
	return parts, nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
