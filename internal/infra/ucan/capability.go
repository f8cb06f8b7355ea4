package ucan

import "strings"

// Capability is one ability (`can`) on one resource (`with`).
type Capability struct {
	With string `json:"with"`
	Can  string `json:"can"`
}

// Covers reports whether c grants at least what other asks for.
// Abilities match exactly, by "*", or by a "ns/*" prefix.
func (c Capability) Covers(other Capability) bool {
	if c.With != other.With {
		return false
	}
	if c.Can == "*" || c.Can == other.Can {
		return true
	}
	if strings.HasSuffix(c.Can, "/*") {
		return strings.HasPrefix(other.Can, strings.TrimSuffix(c.Can, "*"))
	}
	return false
}
