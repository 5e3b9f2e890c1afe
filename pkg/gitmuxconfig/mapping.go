package gitmuxconfig

import "strings"

// PathMapping is a single source->destination path pair. Both sides
// are normalized: "." and "/" map to empty, a leading "./" is dropped,
// leading/trailing separators are stripped, internal separators are
// preserved.
type PathMapping struct {
	Source      string
	Destination string
}

// NormalizePath applies the mapping normalization rule described in
// spec.md section 3: "." and "/" collapse to empty, a leading "./" is
// dropped, and leading/trailing slashes are stripped while internal
// slashes survive.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "." || p == "/" {
		return ""
	}
	p = strings.Trim(p, "/")
	for strings.HasPrefix(p, "./") {
		p = strings.TrimLeft(strings.TrimPrefix(p, "./"), "/")
	}
	if p == "." {
		return ""
	}
	return p
}

// ParseMappingSpec parses a single "src:dst" CLI mapping argument. The
// separator is the first *unescaped* colon; "\:" anywhere de-escapes
// to a literal colon. Zero or more than one unescaped colon is a hard
// parse error.
func ParseMappingSpec(spec string) (PathMapping, error) {
	srcRaw, dstRaw, err := splitUnescapedColon(spec)
	if err != nil {
		return PathMapping{}, NewConfigError(spec, "%s", err.Error())
	}

	return PathMapping{
		Source:      NormalizePath(unescapeColon(srcRaw)),
		Destination: NormalizePath(unescapeColon(dstRaw)),
	}, nil
}

// splitUnescapedColon finds the first unescaped ':' in spec and
// returns the two halves (still escaped). It fails if there is no
// unescaped colon, or if the remainder after the first one contains
// another unescaped colon.
func splitUnescapedColon(spec string) (string, string, error) {
	var b strings.Builder
	escaped := false
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			b.WriteByte(c)
			continue
		}
		if c == ':' {
			rest := spec[i+1:]
			for j := 0; j < len(rest); j++ {
				if rest[j] == '\\' {
					j++
					continue
				}
				if rest[j] == ':' {
					return "", "", errExtraUnescapedColon
				}
			}
			return b.String(), rest, nil
		}
		b.WriteByte(c)
	}
	return "", "", errNoUnescapedColon
}

var errNoUnescapedColon = &mappingParseErr{"mapping must contain exactly one unescaped ':' separating source and destination"}

var errExtraUnescapedColon = &mappingParseErr{"mapping must contain exactly one unescaped ':' separating source and destination; escape literal colons as \\:"}

type mappingParseErr struct{ msg string }

func (e *mappingParseErr) Error() string { return e.msg }

// unescapeColon replaces "\:" with ":" in s. Other backslash sequences
// are left untouched.
func unescapeColon(s string) string {
	if !strings.Contains(s, `\:`) {
		return s
	}
	return strings.ReplaceAll(s, `\:`, ":")
}

// escapeColon escapes literal colons for round-trip serialization.
func escapeColon(s string) string {
	if !strings.Contains(s, ":") {
		return s
	}
	return strings.ReplaceAll(s, ":", `\:`)
}

// FormatMappingSpec re-serializes a PathMapping to its "src:dst" wire
// form, escaping any literal colons in either side. Used for the
// parser's round-trip property (spec.md section 8, property 1).
func FormatMappingSpec(m PathMapping) string {
	return escapeColon(m.Source) + ":" + escapeColon(m.Destination)
}

// destinationsOverlap reports whether a and b are equal or one is a
// path-prefix ancestor of the other, per the prefix-or-equal relation
// in spec.md's disjointness invariant.
func destinationsOverlap(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		// An empty destination (place-at-root) overlaps with everything.
		return true
	}
	return strings.HasPrefix(a+"/", b+"/") || strings.HasPrefix(b+"/", a+"/")
}
