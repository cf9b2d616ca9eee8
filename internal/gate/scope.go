package gate

import (
	"path"
	"strings"
)

// Scope decides which request paths the gate is applied to. Paths under an
// excluded prefix, or ending in an excluded extension, are not evaluated.
type Scope struct {
	SkipPrefixes []string
	SkipExts     []string
}

func (s Scope) Applies(p string) bool {
	for _, pre := range s.SkipPrefixes {
		if pre != "" && strings.HasPrefix(p, pre) {
			return false
		}
	}
	if len(s.SkipExts) > 0 {
		ext := strings.ToLower(path.Ext(p))
		if ext == "" {
			return true
		}
		for _, e := range s.SkipExts {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if strings.EqualFold(e, ext) {
				return false
			}
		}
	}
	return true
}
