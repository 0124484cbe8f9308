package collect

import (
	"regexp"
	"strings"
)

// referencePattern is the extraction contract: a path rooted at /assets/ or /imager/
// running up to the next double quote. Surrounding JSON, JS or HTML structure is ignored.
var referencePattern = regexp.MustCompile(`/(?:assets|imager)/[^"]+`)

// escapedSeparators covers the ways minified bundles encode a forward slash inside
// JSON strings.
var escapedSeparators = strings.NewReplacer(
	`\u002F`, "/",
	`\u002f`, "/",
	`\/`, "/",
)

var strayChars = strings.NewReplacer(`"`, "", ",", "")

// Normalize converts encoded path separators (\u002F, \/) into literal slashes.
func Normalize(text string) string {
	return escapedSeparators.Replace(text)
}

// Extract returns every well-formed asset reference in text, in order of appearance,
// duplicates included. Malformed candidates are dropped.
func Extract(text string) []string {
	refs, _ := scan(text)
	return refs
}

// scan splits candidates into well-formed references and malformed ones. A candidate is
// malformed when no closing quote follows it or when it runs across a line break.
func scan(text string) (refs []string, malformed []string) {
	normalized := Normalize(text)
	for _, loc := range referencePattern.FindAllStringIndex(normalized, -1) {
		raw := normalized[loc[0]:loc[1]]
		terminated := loc[1] < len(normalized)
		if !terminated || strings.ContainsAny(raw, "\r\n") {
			malformed = append(malformed, raw)
			continue
		}
		// \" inside a JSON-encoded string leaves the escaping backslash behind.
		ref := strings.TrimRight(strayChars.Replace(raw), `\`)
		if ref == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, malformed
}

// IsReference reports whether ref is a usable asset reference: a root-relative path or
// an absolute http(s) URL.
func IsReference(ref string) bool {
	switch {
	case ref == "":
		return false
	case strings.HasPrefix(ref, "/"):
		return !strings.HasPrefix(ref, "//")
	default:
		return IsAbsoluteURL(ref)
	}
}

// IsAbsoluteURL reports whether ref carries an http or https scheme.
func IsAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
