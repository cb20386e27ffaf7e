package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"jobpress-engine/internal/domain"
)

// Compute derives the dedupe identity of a listing from its source URL,
// title, and company. Inputs are case- and whitespace-folded so that trivial
// formatting differences between runs map to the same fingerprint.
// Description, salary, and every other field are deliberately excluded.
func Compute(n domain.NormalizedListing) string {
	return Hash(n.Raw.SourceURL, n.Title, n.Company)
}

func Hash(sourceURL, title, company string) string {
	h := sha256.New()
	for _, part := range []string{sourceURL, title, company} {
		h.Write([]byte(fold(part)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fold(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(strings.TrimSpace(s))
}
