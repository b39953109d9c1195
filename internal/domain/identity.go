package domain

import "regexp"

var canonicalUUID = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsCanonicalUserID reports whether id is a 36-character RFC 4122 UUID of
// version 1-5. Looser forms accepted by uuid.Parse (braces, urn prefix, no
// hyphens) are rejected.
func IsCanonicalUserID(id string) bool {
	return len(id) == 36 && canonicalUUID.MatchString(id)
}
