package memscene

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// namer hands out unique node names derived from caller hints, so refs are
// deterministic for identical construction sequences.
type namer struct {
	taken map[string]bool
}

func newNamer() *namer {
	return &namer{taken: make(map[string]bool)}
}

// claim returns a unique name for hint, sanitized to identifier characters.
// Collisions get an incrementing numeric suffix.
func (n *namer) claim(hint string) string {
	base := sanitizeName(hint)
	if !n.taken[base] {
		n.taken[base] = true
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if !n.taken[candidate] {
			n.taken[candidate] = true
			return candidate
		}
	}
}

func (n *namer) release(name string) {
	delete(n.taken, name)
}

// reserve claims an exact name, used when restoring a snapshot whose names
// are already unique.
func (n *namer) reserve(name string) error {
	if n.taken[name] {
		return fmt.Errorf("memscene: name %q already taken", name)
	}
	n.taken[name] = true
	return nil
}

// sanitizeName normalizes hint to NFC and maps it onto the identifier
// character set hosts accept for node names.
func sanitizeName(hint string) string {
	hint = norm.NFC.String(hint)
	var b strings.Builder
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "node"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
