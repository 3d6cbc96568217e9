package moviebot

import (
	"net/url"
	"regexp"
	"strings"
)

const NotionDomainSuffix = "notion.so"

var schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// ParsePageReference extracts a page id from user input. There are three
// outcomes: an absolute URL on the workspace domain yields the last
// hyphen-delimited token of its last path segment; input that is not an
// absolute URL is returned as a raw id; an absolute URL on any other domain
// yields no match.
//
// Input that carries a scheme is always treated as a URL, even when
// url.Parse rejects it, so a malformed foreign link never becomes a raw id.
func ParsePageReference(input, domainSuffix string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	var host, path string
	parsed, err := url.Parse(input)
	switch {
	case err == nil && parsed.IsAbs():
		host, path = parsed.Hostname(), parsed.Path
	case schemePrefix.MatchString(input):
		host, path = splitRawURL(input)
	default:
		return input, true
	}
	host = strings.ToLower(host)
	if host == "" || !strings.HasSuffix(host, strings.ToLower(domainSuffix)) {
		return "", false
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := segments[len(segments)-1]
	pieces := strings.Split(last, "-")
	id := pieces[len(pieces)-1]
	if id == "" {
		return "", false
	}
	return id, true
}

// splitRawURL pulls host and path out of a scheme-bearing string that
// url.Parse refused. Userinfo and port are dropped from the host.
func splitRawURL(raw string) (string, string) {
	rest := schemePrefix.ReplaceAllString(raw, "")
	authority, path := rest, ""
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		authority, path = rest[:end], rest[end:]
	}
	if end := strings.IndexAny(path, "?#"); end >= 0 {
		path = path[:end]
	}
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		authority = authority[at+1:]
	}
	if colon := strings.LastIndex(authority, ":"); colon >= 0 && !strings.Contains(authority[colon:], "]") {
		authority = authority[:colon]
	}
	return authority, path
}
