// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"net/url"
	"regexp"
	"strings"
)

// absPattern matches "/abs/<core>[vK]" where core is a legacy
// "<archive>/<7 digits>" identifier or a modern "<4 digits>.<4-5 digits>" one.
var absPattern = regexp.MustCompile(`(?i)/abs/((?:[a-z\-]+(?:\.[a-z]{2})?/\d{7})|\d{4}\.\d{4,5})(v\d+)?`)

// ID is a parsed arXiv identifier.
type ID struct {
	// Core is the identifier without version ("2501.01234", "hep-th/9901001").
	Core string
	// Version is the version suffix including "v" ("v2"), or empty.
	Version string
}

// String returns Core followed by Version.
func (id ID) String() string { return id.Core + id.Version }

// ParseAbsURL extracts the identifier from an item URL or href containing
// "/abs/<id>[vK]". It reports false when nothing matches.
func ParseAbsURL(s string) (ID, bool) {
	m := absPattern.FindStringSubmatch(s)
	if m == nil {
		return ID{}, false
	}
	return ID{Core: m[1], Version: m[2]}, true
}

var allowedHosts = map[string]bool{
	"arxiv.org":        true,
	"export.arxiv.org": true,
	"www.arxiv.org":    true,
}

// ValidateURL reports whether raw parses as a URL on an arXiv host.
func ValidateURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return allowedHosts[strings.ToLower(u.Hostname())]
}
