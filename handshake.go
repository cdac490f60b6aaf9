package wsmprpc

import "strings"

// ProtocolVersion is this implementation's handshake version (spec §4.6).
// Only the major component (the part before the first '.') is compared for
// compatibility.
const ProtocolVersion = "1.0.0"

func majorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

func versionsCompatible(a, b string) bool {
	return majorVersion(a) == majorVersion(b)
}
