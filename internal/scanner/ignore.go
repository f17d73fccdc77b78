package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is a single gitignore-style pattern from an .ebpfignore file.
type IgnorePattern struct {
	pattern     string
	isNegation  bool // pattern starts with !
	isDirectory bool // pattern ends with /
	isAbsolute  bool // pattern starts with /, anchored at the scan root
	segments    []string
}

// ParseIgnorePattern parses one pattern line.
func ParseIgnorePattern(pattern string) IgnorePattern {
	p := IgnorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.isNegation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.isDirectory = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.isAbsolute = true
		pattern = pattern[1:]
	}
	p.segments = strings.Split(pattern, "/")
	return p
}

// IsNegation reports whether this pattern re-includes matching paths.
func (p IgnorePattern) IsNegation() bool {
	return p.isNegation
}

// Match reports whether the slash-separated relative path matches. Directory
// patterns match the directory and everything under it; unanchored patterns
// may start at any path segment.
func (p IgnorePattern) Match(relPath string) bool {
	pathSegs := strings.Split(relPath, "/")

	if p.isAbsolute {
		return p.matchAt(pathSegs)
	}
	for start := 0; start < len(pathSegs); start++ {
		if p.matchAt(pathSegs[start:]) {
			return true
		}
	}
	return false
}

// matchAt matches the pattern's segments against the front of pathSegs.
func (p IgnorePattern) matchAt(pathSegs []string) bool {
	return matchSegments(p.segments, pathSegs, p.isDirectory)
}

// matchSegments matches pattern segments against path segments. When prefix
// is true a full pattern match may leave path segments over, which is how a
// directory pattern covers its contents.
func matchSegments(patternSegs, pathSegs []string, prefix bool) bool {
	if len(patternSegs) == 0 {
		return prefix || len(pathSegs) == 0
	}
	if patternSegs[0] == "**" {
		for i := 0; i <= len(pathSegs); i++ {
			if matchSegments(patternSegs[1:], pathSegs[i:], prefix) {
				return true
			}
		}
		return false
	}
	if len(pathSegs) == 0 {
		return false
	}
	ok, err := path.Match(patternSegs[0], pathSegs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(patternSegs[1:], pathSegs[1:], prefix)
}
