package fetch

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

var numericRun = regexp.MustCompile(`\d+`)

// canonical converts a release string to canonical semver form ("1.24" →
// "v1.24.0"). Returns "" when the string has no semver reading.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return semver.Canonical(v)
	}
	return ""
}

// compareVersions orders two upstream release strings. Semver ordering is
// used when both sides parse; otherwise the numeric runs are compared
// field by field, which handles forms like "144.0.3719.92".
func compareVersions(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	if ca != "" && cb != "" {
		return semver.Compare(ca, cb)
	}
	return compareNumericRuns(a, b)
}

func compareNumericRuns(a, b string) int {
	as := numericRun.FindAllString(a, -1)
	bs := numericRun.FindAllString(b, -1)
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, _ := strconv.Atoi(as[i])
		bi, _ := strconv.Atoi(bs[i])
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}
