package domain

import (
	"regexp"
	"strings"
)

// ProblemURLPattern is the accepted shape of a problem reference. It is a
// prefix match: anything after the slug (query, fragment, "/description")
// is tolerated.
const ProblemURLPattern = `^https?://(www\.)?leetcode\.com/problems/[a-zA-Z0-9-]+/?`

var (
	problemURLRe  = regexp.MustCompile(ProblemURLPattern)
	problemSlugRe = regexp.MustCompile(`problems/([a-zA-Z0-9-]+)`)
)

// IsValidProblemURL reports whether u has the shape of a LeetCode problem URL.
func IsValidProblemURL(u string) bool {
	return problemURLRe.MatchString(u)
}

// ProblemName derives a readable name from the slug after "problems/",
// e.g. "two-sum" becomes "two sum". It returns fallback when no slug is found.
func ProblemName(u, fallback string) string {
	m := problemSlugRe.FindStringSubmatch(u)
	if len(m) < 2 || m[1] == "" {
		return fallback
	}
	return strings.ReplaceAll(m[1], "-", " ")
}
