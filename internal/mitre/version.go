package mitre

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const tagPrefix = "ATT&CK-"

var (
	ErrNoMatchingTag = errors.New("no matching ATT&CK version tag")
	ErrInvalidURL    = errors.New("invalid ATT&CK techniques URL")
)

var urlVersionPattern = regexp.MustCompile(`/versions/(v\d+)/techniques/enterprise/`)

// VersionFromURL extracts the "vNN" segment of a versioned enterprise techniques URL
func VersionFromURL(pageURL string) (string, error) {
	m := urlVersionPattern.FindStringSubmatch(pageURL)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, pageURL)
	}
	return m[1], nil
}

// parseVersion turns "v10", "10" or "10.1" into numeric components
func parseVersion(s string) ([]int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func compareVersions(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// ResolveTag picks the newest release tag ("ATT&CK-v10.1") for a requested
// version ("v10"). A tag matches when its leading components equal the
// requested ones; "v1" does not match "ATT&CK-v10.1". Candidates are ordered
// numerically, so v10.1 beats v9.0 and v10.10 beats v10.9.
func ResolveTag(version string, tags []string) (string, error) {
	want, ok := parseVersion(version)
	if !ok {
		return "", fmt.Errorf("%w: unparseable version %q", ErrNoMatchingTag, version)
	}

	var best string
	var bestVersion []int
	for _, tag := range tags {
		rest, found := strings.CutPrefix(tag, tagPrefix)
		if !found {
			continue
		}
		have, ok := parseVersion(rest)
		if !ok || len(have) < len(want) {
			continue
		}
		if compareVersions(have[:len(want)], want) != 0 {
			continue
		}
		if best == "" || compareVersions(have, bestVersion) > 0 {
			best, bestVersion = tag, have
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w for %s", ErrNoMatchingTag, version)
	}
	return best, nil
}
