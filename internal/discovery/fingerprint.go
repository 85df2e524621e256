package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Fingerprint derives the stable dedup key for a posting. Company,
// title and location are trimmed and lowercased; the apply URL
// contributes only its lowercased host and path, so the same posting
// mirrored with different tracking query parameters collapses to one
// fingerprint.
func Fingerprint(company, title, location, applyURL string) string {
	hostPath := strings.ToLower(applyURL)
	if u, err := url.Parse(applyURL); err == nil {
		hostPath = strings.ToLower(u.Host + u.Path)
	}

	normalized := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(company)),
		strings.ToLower(strings.TrimSpace(title)),
		strings.ToLower(strings.TrimSpace(location)),
		hostPath,
	)

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
