package mimetype

import (
	"mime"
	"strings"
)

// BareTypes are reported without an encoding so browsers always receive a
// directly interpretable copy.
var BareTypes = []string{"text/html", "text/css", "application/javascript"}

// NoCache wraps a Resolver and drops the encoding for BareTypes. Every other
// result passes through unchanged.
type NoCache struct {
	Base Resolver
	// Bare overrides BareTypes when non-nil.
	Bare []string
}

func NewNoCache(base Resolver) NoCache {
	return NoCache{Base: base}
}

func (n NoCache) Resolve(name string) (string, string) {
	base := n.Base
	if base == nil {
		base = NewDefault()
	}
	t, enc := base.Resolve(name)
	if n.isBare(t) {
		return t, ""
	}
	return t, enc
}

func (n NoCache) isBare(t string) bool {
	if t == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(t)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(t))
	}
	bare := n.Bare
	if bare == nil {
		bare = BareTypes
	}
	for _, b := range bare {
		if strings.EqualFold(mt, b) {
			return true
		}
	}
	return false
}
