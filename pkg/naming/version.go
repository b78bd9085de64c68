// Package naming generates and validates the names given to configurations and their versions.
//
// Auto-generated version names look like semantic versions: "v<major>.<minor>.<patch>",
// where minor and patch are single digits. A version name packs an integer of at
// least 3 digits: 100 is "v1.0.0", 1234 is "v12.3.4".
//
// Custom version names are stored as tags and percent-encoded for the characters
// git does not accept in ref names.
package naming

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	versionPrefix    = "v"
	versionSeparator = "."

	// InitialVersion is the integer packed by the first auto-generated version name
	InitialVersion = 100
)

var rexVersionName = regexp.MustCompile(`^v[1-9][0-9]*\.[0-9]\.[0-9]$`)

// IsAutoVersionName tells if a name looks like an auto-generated version name
func IsAutoVersionName(name string) bool {
	return rexVersionName.MatchString(name)
}

// GenerateVersionName packs an integer into a version name. Integers below 100 cannot be represented.
func GenerateVersionName(version int) (string, bool) {
	digits := strconv.Itoa(version)
	if version < InitialVersion || len(digits) < 3 {
		return "", false
	}
	n := len(digits)

	var b strings.Builder
	b.Grow(n + 3)
	b.WriteString(versionPrefix)
	b.WriteString(digits[:n-2])
	b.WriteString(versionSeparator)
	b.WriteByte(digits[n-2])
	b.WriteString(versionSeparator)
	b.WriteByte(digits[n-1])
	return b.String(), true
}

// InitialVersionName is the name of the first version of a configuration
func InitialVersionName() string {
	name, _ := GenerateVersionName(InitialVersion)
	return name
}

// IncrementVersionName yields the version name following name.
// It returns false when name is not an auto-generated version name.
func IncrementVersionName(name string) (string, bool) {
	version, ok := parseVersionName(name)
	if !ok || version == math.MaxInt {
		return "", false
	}
	return GenerateVersionName(version + 1)
}

// MostRecentVersionName picks the highest auto-generated version name. Other names are ignored.
func MostRecentVersionName(names []string) (string, bool) {
	highest, found := 0, false
	for _, name := range names {
		version, ok := parseVersionName(name)
		if !ok {
			continue
		}
		if !found || version > highest {
			highest, found = version, true
		}
	}
	if !found {
		return "", false
	}
	return GenerateVersionName(highest)
}

// NextVersionName yields the version name following the most recent one in names,
// or the initial version name when there is none.
func NextVersionName(names []string) string {
	recent, ok := MostRecentVersionName(names)
	if !ok {
		return InitialVersionName()
	}
	next, ok := IncrementVersionName(recent)
	if !ok {
		return InitialVersionName()
	}
	return next
}

func parseVersionName(name string) (int, bool) {
	if !IsAutoVersionName(name) {
		return 0, false
	}
	digits := strings.ReplaceAll(strings.TrimPrefix(name, versionPrefix), versionSeparator, "")
	version, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return version, true
}
