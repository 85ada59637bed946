package integrity

import "path/filepath"

// PathMatcher decides whether a path is excluded from scanning. Rules are
// canonicalized once at construction; a directory rule excludes itself and
// everything beneath it. Matching walks whole path components, so excluding
// /a/b never excludes /a/bc.
type PathMatcher struct {
	rules map[string]struct{}
}

// NewPathMatcher builds a matcher from the configured exclusion paths.
func NewPathMatcher(exclusions []string) *PathMatcher {
	rules := make(map[string]struct{}, len(exclusions))
	for _, rule := range exclusions {
		rules[canonicalPath(rule)] = struct{}{}
	}
	return &PathMatcher{rules: rules}
}

// Excluded reports whether path equals a rule or has an ancestor directory
// equal to a rule.
func (m *PathMatcher) Excluded(path string) bool {
	if len(m.rules) == 0 {
		return false
	}
	p := canonicalPath(path)
	for {
		if _, ok := m.rules[p]; ok {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}

// canonicalPath normalizes a path so that relative/absolute spellings and
// separator styles compare equal across runs.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
