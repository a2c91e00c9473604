package notion

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	reEmbeddedID = regexp.MustCompile(`(?i)[a-f0-9]{32}`)
	reCompactID  = regexp.MustCompile(`(?i)^[a-f0-9]{32}$`)
)

// NormalizeID extracts the 32 hex character identifier from raw, which may
// be a bare id, a dashed UUID, or a share URL. The result is lowercase and
// undashed.
func NormalizeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", newError(KindConfigMissing, "normalize id", nil)
	}
	candidate := reEmbeddedID.FindString(trimmed)
	if candidate == "" {
		candidate = strings.ReplaceAll(trimmed, "-", "")
	}
	if !reCompactID.MatchString(candidate) {
		return "", newError(KindIDInvalidFormat, "normalize id", nil)
	}
	return strings.ToLower(candidate), nil
}

// DashedID formats a compact id as a canonical UUID. Ids that do not parse
// are returned unchanged.
func DashedID(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return u.String()
}

// CompactID strips dashes from a page id.
func CompactID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}
