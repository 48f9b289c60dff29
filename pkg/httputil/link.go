package httputil

import (
	"net/url"
	"strings"
)

// ParseLink parses an RFC 8288 Link header into a map of relation to target.
//
//	<https://api.github.com/user/1/repos?page=2>; rel="next", <...?page=5>; rel="last"
//
// Malformed entries are skipped.
func ParseLink(header string) map[string]string {
	links := make(map[string]string)
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start != 0 || end < start {
			continue
		}
		target := part[start+1 : end]
		for _, param := range strings.Split(part[end+1:], ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.TrimSpace(k) != "rel" {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(v), `"`)) {
				links[rel] = target
			}
		}
	}
	return links
}

// RelativeRef strips scheme and host from an absolute URL, keeping path and
// query. Relative input is returned unchanged.
func RelativeRef(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return raw
	}
	ref := u.EscapedPath()
	if ref == "" {
		ref = "/"
	}
	if u.RawQuery != "" {
		ref += "?" + u.RawQuery
	}
	return ref
}

// TrimBase strips the path of base from ref when ref lies under it, so a
// link normalized by [RelativeRef] can be joined onto base again.
//
//	TrimBase("/api/v3/users/o/repos?page=2", "https://ghe.example.com/api/v3")
//	// "/users/o/repos?page=2"
func TrimBase(ref, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	prefix := strings.TrimRight(b.EscapedPath(), "/")
	if prefix == "" {
		return ref
	}
	rest, ok := strings.CutPrefix(ref, prefix)
	if !ok || (rest != "" && rest[0] != '/' && rest[0] != '?') {
		return ref
	}
	return "/" + strings.TrimLeft(rest, "/")
}
